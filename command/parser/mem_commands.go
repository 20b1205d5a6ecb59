/*
 * RVLanes - Console memory commands.
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
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rcornwell/rvlanes/emu/assemble"
	"github.com/rcornwell/rvlanes/emu/disassemble"
	"github.com/rcornwell/rvlanes/util/hex"
)

type memoryOpts struct {
	symbolic bool // Show as instructions.
	assemble bool // Deposit assembled instruction.
}

// Get options for memory reference command, -i or -s symbolic, -a assemble.
func (line *cmdLine) parseMemoryOptions(options *memoryOpts) error {
	for !line.atEnd() && line.line[line.pos] == '-' {
		for _, char := range strings.ToLower(line.token()[1:]) {
			switch char {
			case 'i', 's':
				options.symbolic = true
			case 'a':
				options.assemble = true
			default:
				return fmt.Errorf("unknown option: %c", char)
			}
		}
	}
	return nil
}

// Examine physical memory: examine [-i] addr [count]. Count is decimal words.
func examine(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Examine")
	var options memoryOpts
	if err := line.parseMemoryOptions(&options); err != nil {
		return false, err
	}
	if options.assemble {
		return false, errors.New("examine does not take -a")
	}
	addr, err := line.getHex()
	if err != nil {
		return false, errors.New("address must be hex number")
	}
	count := uint32(1)
	if !line.atEnd() {
		count, err = line.getNumber()
		if err != nil || !line.atEnd() || count == 0 {
			return false, errors.New("count must be decimal number")
		}
	}
	words, err := ctl.Machine.ReadMemory(addr&^3, int(count))
	if err != nil {
		return false, err
	}

	var str strings.Builder
	if options.symbolic {
		for i, w := range words {
			hex.FormatWord(&str, []uint32{(addr &^ 3) + uint32(4*i), w})
			str.WriteString(disassemble.Disassemble(w))
			str.WriteByte('\n')
		}
	} else {
		for i := 0; i < len(words); i += hex.DumpWords {
			end := min(i+hex.DumpWords, len(words))
			hex.FormatDump(&str, (addr&^3)+uint32(4*i), words[i:end])
			str.WriteByte('\n')
		}
	}
	fmt.Fprint(ctl.Out, str.String())
	return false, nil
}

// Deposit words: deposit addr value... or deposit -a addr instruction.
func deposit(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Deposit")
	var options memoryOpts
	if err := line.parseMemoryOptions(&options); err != nil {
		return false, err
	}
	addr, err := line.getHex()
	if err != nil {
		return false, errors.New("address must be hex number")
	}

	if options.assemble {
		word, err := assemble.Assemble(line.rest())
		if err != nil {
			return false, err
		}
		return false, ctl.Machine.WriteMemory(addr, word)
	}

	if line.atEnd() {
		return false, errors.New("deposit requires a value")
	}
	for !line.atEnd() {
		value, err := line.getHex()
		if err != nil {
			return false, errors.New("value must be hex number")
		}
		if err := ctl.Machine.WriteMemory(addr, value); err != nil {
			return false, err
		}
		addr += 4
	}
	return false, nil
}

// Complete opcode names after deposit -a addr.
func depositComplete(line *cmdLine) []string {
	if !strings.Contains(line.line, "-a") {
		return nil
	}
	return line.completeLast(opcodeNames())
}

// Load binary file into memory: load addr file.
func load(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Load")
	addr, err := line.getHex()
	if err != nil {
		return false, errors.New("address must be hex number")
	}
	name, ok := line.parseQuoteString()
	if !ok || name == "" || !line.atEnd() {
		return false, errors.New("load requires one file name")
	}
	return false, ctl.Machine.LoadFile(addr, name)
}

// Write PNG of memory: snapshot file.
func snapshot(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Snapshot")
	name, ok := line.parseQuoteString()
	if !ok || name == "" || !line.atEnd() {
		return false, errors.New("snapshot requires one file name")
	}
	file, err := os.Create(name)
	if err != nil {
		return false, err
	}
	err = ctl.Machine.Snapshot(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return false, err
}
