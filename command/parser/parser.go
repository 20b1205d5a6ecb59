/*
 * RVLanes - Console command line parser.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package parser

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/rcornwell/rvlanes/emu/core"
	"github.com/rcornwell/rvlanes/emu/host"
)

// Control is what commands act on.
type Control struct {
	Core    *core.Core    // Run loop.
	Machine *host.Machine // Machine run loop drives.
	Out     io.Writer     // Command output.
}

type cmd struct {
	Name     string // Command name.
	Min      int    // Minimum match size.
	Process  func(*cmdLine, *Control) (bool, error)
	Complete func(*cmdLine) []string
}

type cmdLine struct {
	line string // Current command.
	pos  int    // Position in line.
}

// Execute the command line given.
func ProcessCommand(commandLine string, ctl *Control) (bool, error) {
	line := cmdLine{line: commandLine}
	command := line.getWord()
	if command == "" {
		line.skipSpace()
		if !line.isEOL() {
			return false, errors.New("command not found: " + line.line[line.pos:])
		}
		return false, nil
	}

	match := matchList(command)
	if len(match) == 0 {
		return false, errors.New("command not found: " + command)
	}

	if len(match) > 1 {
		return false, errors.New("unique command not found: " + command)
	}

	return match[0].Process(&line, ctl)
}

// Check if command matches at least to minimum length.
func matchCommand(match cmd, command string) bool {
	if len(command) > len(match.Name) {
		return false
	}
	l := 0
	for l = range len(command) {
		if match.Name[l] != command[l] {
			return false
		}
	}
	return (l + 1) >= match.Min
}

// Check if command matches one of the commands.
func matchList(command string) []cmd {
	// If command empty just return.
	if command == "" {
		return []cmd{}
	}

	// Try and match one command.
	var match []cmd
	for _, m := range cmdList {
		if matchCommand(m, command) {
			match = append(match, m)
		}
	}
	return match
}

var (
	errNotNumber = errors.New("not a number")
	errTooLarge  = errors.New("number too large")
)

// Skip forward over line until none whitespace character found.
func (line *cmdLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

// Check if at end of line or comment.
func (line *cmdLine) isEOL() bool {
	return line.pos >= len(line.line) || line.line[line.pos] == '#'
}

// Check only spaces or comment remain.
func (line *cmdLine) atEnd() bool {
	line.skipSpace()
	return line.isEOL()
}

// Next space delimited token, empty at end of line.
func (line *cmdLine) token() string {
	if line.atEnd() {
		return ""
	}
	start := line.pos
	for line.pos < len(line.line) && !unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
	return line.line[start:line.pos]
}

// Return rest of line.
func (line *cmdLine) rest() string {
	line.skipSpace()
	str := line.line[line.pos:]
	line.pos = len(line.line)
	return str
}

// Parse string that is "string" or just string, "" in quotes is one quote.
func (line *cmdLine) parseQuoteString() (string, bool) {
	if line.atEnd() {
		return "", false
	}
	if line.line[line.pos] != '"' {
		return line.token(), true
	}

	var value strings.Builder
	for line.pos++; line.pos < len(line.line); line.pos++ {
		by := line.line[line.pos]
		if by == '"' {
			if line.pos+1 >= len(line.line) || line.line[line.pos+1] != '"' {
				line.pos++
				return value.String(), true
			}
			line.pos++
		}
		value.WriteByte(by)
	}
	return value.String(), false
}

// Parse token as number in base, position is kept on error.
func (line *cmdLine) getBase(base int) (uint32, error) {
	pos := line.pos
	tok := line.token()
	if tok == "" {
		return 0, errNotNumber
	}
	value, err := strconv.ParseUint(tok, base, 32)
	if err != nil {
		line.pos = pos
		if errors.Is(err, strconv.ErrRange) {
			return 0, errTooLarge
		}
		return 0, errNotNumber
	}
	return uint32(value), nil
}

// Parse decimal number.
func (line *cmdLine) getNumber() (uint32, error) {
	return line.getBase(10)
}

// Parse hex number.
func (line *cmdLine) getHex() (uint32, error) {
	return line.getBase(16)
}

// Parse a word of letters, digits, dots and underscores starting with a
// letter, returned lower case. Nothing is consumed if token is not a word.
func (line *cmdLine) getWord() string {
	pos := line.pos
	tok := line.token()
	for i, by := range tok {
		if unicode.IsLetter(by) || (i > 0 && (unicode.IsDigit(by) || by == '.' || by == '_')) {
			continue
		}
		line.pos = pos
		return ""
	}
	return strings.ToLower(tok)
}

// Get core number, checking it exists.
func (line *cmdLine) getCore(ctl *Control) (int, error) {
	num, err := line.getHex()
	if err != nil {
		return 0, errors.New("core number expected")
	}
	if int(num) >= ctl.Machine.Cores() {
		return 0, host.ErrNoCore
	}
	return int(num), nil
}

// Get core number or all, -1 for all. Empty means all.
func (line *cmdLine) getCoreOrAll(ctl *Control) (int, error) {
	if line.atEnd() {
		return -1, nil
	}
	pos := line.pos
	if line.getWord() == "all" {
		return -1, nil
	}
	line.pos = pos
	return line.getCore(ctl)
}
