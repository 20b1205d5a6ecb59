/*
 * RVLanes - Configuration file parser.
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

package configparser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"unicode"
)

/* Configuration file format:
 *
 * '#' starts a comment, rest of line is ignored.
 * <line>    ::= <model> <number> <options> |
 *               <option> <value> |
 *               <options> <value> <options> |
 *               <file> <quoted> |
 *               <switch>
 * <number>  ::= <hex> | <decimal>('K'|'M')
 * <options> ::= *(<name> ['=' <quoted>] *(',' <name>))
 * <quoted>  ::= <string> | '"' *<any> '"'     "" inside quotes is one quote.
 */

const (
	TypeModel   = 1 + iota // Requires a number, then options.
	TypeOption             // Accepts a single value.
	TypeOptions            // Accepts a value followed by options.
	TypeSwitch             // Name only.
	TypeFile               // Accepts a file name.
)

// Value passed when first option is not a number.
const NoNum uint32 = 0xffffffff

// Returned, wrapped with line number, for any malformed line.
var ErrSyntax = errors.New("config syntax")

// Option following the first value of a line.
type Option struct {
	Name     string   // Name of option.
	EqualOpt string   // Value of string after =.
	Value    []string // Comma separated values after option.
}

// Handler called for each configuration line.
type Handler = func(number uint32, value string, options []Option) error

type modelDef struct {
	create Handler
	ty     int
}

var models = map[string]modelDef{}

var typeNames = map[int]string{
	TypeModel:   "model",
	TypeOption:  "option",
	TypeOptions: "options",
	TypeSwitch:  "switch",
	TypeFile:    "file",
}

// First value on a line.
type firstValue struct {
	number uint32 // NoNum unless value was a number.
	isNum  bool
	value  string
}

// Line being parsed.
type optionLine struct {
	line   string
	pos    int
	number int // Line number in file, 0 for single lines.
}

func register(mod string, ty int, fn Handler) {
	mod = strings.ToUpper(mod)
	slog.Debug("Registering config: " + mod)
	models[mod] = modelDef{create: fn, ty: ty}
}

// Register should be called from init functions.
func RegisterModel(mod string, ty int, fn Handler) {
	register(mod, ty, fn)
}

// Register name only line.
func RegisterSwitch(mod string, fn Handler) {
	register(mod, TypeSwitch, fn)
}

// Register line taking one value.
func RegisterOption(mod string, fn Handler) {
	register(mod, TypeOption, fn)
}

// Register line that takes a file name.
func RegisterFile(mod string, fn Handler) {
	register(mod, TypeFile, fn)
}

// Find handler, it must be registered as type ty.
func lookup(mod string, ty int) (Handler, error) {
	mod = strings.ToUpper(mod)
	model, ok := models[mod]
	if !ok {
		return nil, fmt.Errorf("unknown %s: %s", typeNames[ty], mod)
	}
	if model.ty != ty {
		return nil, fmt.Errorf("%s is not a %s", mod, typeNames[ty])
	}
	return model.create, nil
}

// Convert number, hex unless followed by K or M.
func ParseNumber(value string) (uint32, error) {
	if value == "" {
		return 0, errors.New("number expected")
	}
	mult := uint64(0)
	switch value[len(value)-1] {
	case 'k', 'K':
		mult = 1024
	case 'm', 'M':
		mult = 1024 * 1024
	}
	if mult != 0 {
		num, err := strconv.ParseUint(value[:len(value)-1], 10, 32)
		if err != nil || num*mult > 0xffffffff {
			return 0, errors.New("invalid size: " + value)
		}
		return uint32(num * mult), nil
	}
	value = strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X")
	num, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return 0, errors.New("invalid number: " + value)
	}
	return uint32(num), nil
}

// Load in a configuration file.
func LoadConfigFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	if err = LoadConfig(file); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Process configuration lines from reader.
func LoadConfig(rd io.Reader) error {
	scanner := bufio.NewScanner(rd)
	number := 0
	for scanner.Scan() {
		number++
		line := optionLine{line: scanner.Text(), number: number}
		if err := line.parseLine(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Process a single configuration line.
func ParseLine(text string) error {
	line := optionLine{line: text}
	return line.parseLine()
}

// Error for current line.
func (line *optionLine) errorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if line.number != 0 {
		return fmt.Errorf("line: %d: %w: %s", line.number, ErrSyntax, msg)
	}
	return fmt.Errorf("%w: %s", ErrSyntax, msg)
}

// Handler errors get the line number too.
func (line *optionLine) wrap(err error) error {
	if err == nil || line.number == 0 {
		return err
	}
	return fmt.Errorf("line: %d: %w", line.number, err)
}

// Parse one line and call its handler.
func (line *optionLine) parseLine() error {
	name := line.parseName()
	if name == "" {
		if line.skipSpace(); !line.isEOL() {
			return line.errorf("invalid character %q", line.line[line.pos])
		}
		return nil
	}

	model, ok := models[name]
	if !ok {
		return line.errorf("no type: %s registered", name)
	}

	var first *firstValue
	if model.ty != TypeSwitch {
		first = line.parseFirst()
		if first == nil {
			return line.errorf("%s not followed by value", name)
		}
	}

	var options []Option
	switch model.ty {
	case TypeModel, TypeOptions:
		if model.ty == TypeModel && !first.isNum {
			return line.errorf("%s requires a number", name)
		}
		var err error
		options, err = line.parseOptions()
		if err != nil {
			return err
		}
		if options == nil {
			options = []Option{}
		}
	case TypeFile:
		if first.value == "" {
			return line.errorf("%s requires one file name", name)
		}
		fallthrough
	default:
		if line.skipSpace(); !line.isEOL() {
			return line.errorf("%s followed by extra data", name)
		}
	}

	create, err := lookup(name, model.ty)
	if err != nil {
		return line.wrap(err)
	}
	switch model.ty {
	case TypeSwitch:
		return line.wrap(create(0, "", nil))
	case TypeFile:
		return line.wrap(create(NoNum, first.value, nil))
	case TypeModel:
		return line.wrap(create(first.number, "", options))
	case TypeOption:
		options = []Option{}
	}
	return line.wrap(create(first.number, first.value, options))
}

// Skip forward over line until none whitespace character found.
func (line *optionLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

// Check if at end of line or comment.
func (line *optionLine) isEOL() bool {
	return line.pos >= len(line.line) || line.line[line.pos] == '#'
}

// Current character, 0 at end of line.
func (line *optionLine) peek() byte {
	if line.isEOL() {
		return 0
	}
	return line.line[line.pos]
}

func isAlnum(by byte) bool {
	return unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by))
}

// Characters allowed in an unquoted first value.
func isValueChar(by byte) bool {
	return isAlnum(by) || by == '.' || by == '/' || by == '_' || by == '-'
}

// Collect run of characters accepted by ok.
func (line *optionLine) collect(ok func(byte) bool) string {
	start := line.pos
	for !line.isEOL() && ok(line.line[line.pos]) {
		line.pos++
	}
	return line.line[start:line.pos]
}

// Line name, upper cased.
func (line *optionLine) parseName() string {
	line.skipSpace()
	return strings.ToUpper(line.collect(isAlnum))
}

// Parse first value, numbers are converted.
func (line *optionLine) parseFirst() *firstValue {
	line.skipSpace()
	if line.isEOL() {
		return nil
	}

	if line.peek() == '"' {
		value, ok := line.parseQuoteString()
		if !ok {
			return nil
		}
		return &firstValue{number: NoNum, value: value}
	}

	first := firstValue{number: NoNum, value: line.collect(isValueChar)}
	if number, err := ParseNumber(first.value); err == nil {
		first.number = number
		first.isNum = true
	}
	return &first
}

// Parse string that is "string" or just string. Unquoted strings end at
// space or comma.
func (line *optionLine) parseQuoteString() (string, bool) {
	if line.peek() != '"' {
		return line.collect(func(by byte) bool {
			return by != ',' && !unicode.IsSpace(rune(by))
		}), true
	}

	var value strings.Builder
	line.pos++
	for line.pos < len(line.line) {
		by := line.line[line.pos]
		line.pos++
		if by != '"' {
			value.WriteByte(by)
			continue
		}
		// "" is a single quote.
		if line.pos < len(line.line) && line.line[line.pos] == '"' {
			value.WriteByte(by)
			line.pos++
			continue
		}
		return value.String(), true
	}
	return value.String(), false
}

// Parse one option with any = value and comma values.
func (line *optionLine) parseOption() (*Option, error) {
	line.skipSpace()
	if line.isEOL() {
		return nil, nil
	}
	if !unicode.IsLetter(rune(line.peek())) {
		return nil, line.errorf("invalid option at [%d]", line.pos)
	}

	option := Option{Name: line.collect(isAlnum)}
	if line.peek() == '=' {
		line.pos++
		value, ok := line.parseQuoteString()
		if !ok {
			return nil, line.errorf("invalid quoted string at [%d]", line.pos)
		}
		option.EqualOpt = value
	}

	line.skipSpace()
	for line.peek() == ',' {
		line.pos++
		line.skipSpace()
		if value := line.collect(isAlnum); value != "" {
			option.Value = append(option.Value, value)
		}
		line.skipSpace()
	}
	return &option, nil
}

// Collect all options for line.
func (line *optionLine) parseOptions() ([]Option, error) {
	var options []Option
	for {
		option, err := line.parseOption()
		if err != nil {
			return nil, err
		}
		if option == nil {
			return options, nil
		}
		options = append(options, *option)
	}
}
