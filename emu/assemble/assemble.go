/*
 * RVLanes - RV32 single line assembler.
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

package assemble

import (
	"errors"
	"unicode"

	op "github.com/rcornwell/rvlanes/emu/opcodemap"
)

// Assemble one instruction.
func Assemble(line string) (uint32, error) {
	var next byte
	var err error
	var rd, rs1, rs2 int
	var imm int64

	opName, line := getName(line) // Get opcode.
	inst, ok := op.Find(opName)
	if !ok {
		return 0, errors.New("undefined opcode " + opName)
	}

	// Expect a comma between operands.
	comma := func() error {
		next, line = getNext(line)
		if next != ',' {
			return errors.New("invalid format for " + opName)
		}
		return nil
	}

	var word uint32
	switch inst.Type {
	case op.TyR: // "op rd,rs1,rs2"
		if rd, line, err = getReg(line, opName); err != nil {
			return 0, err
		}
		if err = comma(); err != nil {
			return 0, err
		}
		if rs1, line, err = getReg(line, opName); err != nil {
			return 0, err
		}
		if err = comma(); err != nil {
			return 0, err
		}
		if rs2, line, err = getReg(line, opName); err != nil {
			return 0, err
		}
		word = op.EncodeR(inst.Match, rd, rs1, rs2)

	case op.TyI, op.TyShift: // "op rd,rs1,imm"
		if rd, line, err = getReg(line, opName); err != nil {
			return 0, err
		}
		if err = comma(); err != nil {
			return 0, err
		}
		if rs1, line, err = getReg(line, opName); err != nil {
			return 0, err
		}
		if err = comma(); err != nil {
			return 0, err
		}
		if inst.Type == op.TyShift {
			imm, line, err = getImm(line, 0, 31, opName)
		} else {
			imm, line, err = getImm(line, -2048, 2047, opName)
		}
		if err != nil {
			return 0, err
		}
		word = op.EncodeI(inst.Match, rd, rs1, int32(imm))

	case op.TyLoad, op.TyJR, op.TyS: // "op rd,imm(rs1)" "op rs2,imm(rs1)"
		if rd, line, err = getReg(line, opName); err != nil {
			return 0, err
		}
		if err = comma(); err != nil {
			return 0, err
		}
		if imm, rs1, line, err = getAddr(line, opName); err != nil {
			return 0, err
		}
		if inst.Type == op.TyS {
			word = op.EncodeS(inst.Match, rs1, rd, int32(imm))
		} else {
			word = op.EncodeI(inst.Match, rd, rs1, int32(imm))
		}

	case op.TyB: // "op rs1,rs2,offset"
		if rs1, line, err = getReg(line, opName); err != nil {
			return 0, err
		}
		if err = comma(); err != nil {
			return 0, err
		}
		if rs2, line, err = getReg(line, opName); err != nil {
			return 0, err
		}
		if err = comma(); err != nil {
			return 0, err
		}
		if imm, line, err = getImm(line, -4096, 4094, opName); err != nil {
			return 0, err
		}
		if (imm & 1) != 0 {
			return 0, errors.New("branch offset must be even for " + opName)
		}
		word = op.EncodeB(inst.Match, rs1, rs2, int32(imm))

	case op.TyU: // "op rd,imm20"
		if rd, line, err = getReg(line, opName); err != nil {
			return 0, err
		}
		if err = comma(); err != nil {
			return 0, err
		}
		if imm, line, err = getImm(line, 0, 0xfffff, opName); err != nil {
			return 0, err
		}
		word = op.EncodeU(inst.Match, rd, uint32(imm)<<12)

	case op.TyJ: // "op rd,offset"
		if rd, line, err = getReg(line, opName); err != nil {
			return 0, err
		}
		if err = comma(); err != nil {
			return 0, err
		}
		if imm, line, err = getImm(line, -(1 << 20), (1<<20)-2, opName); err != nil {
			return 0, err
		}
		if (imm & 1) != 0 {
			return 0, errors.New("jump offset must be even for " + opName)
		}
		word = op.EncodeJ(inst.Match, rd, int32(imm))

	case op.TyCSR, op.TyCSRI: // "op rd,csr,rs1" "op rd,csr,uimm"
		var csr uint32
		if rd, line, err = getReg(line, opName); err != nil {
			return 0, err
		}
		if err = comma(); err != nil {
			return 0, err
		}
		if csr, line, err = getCSR(line, opName); err != nil {
			return 0, err
		}
		if err = comma(); err != nil {
			return 0, err
		}
		if inst.Type == op.TyCSR {
			rs1, line, err = getReg(line, opName)
		} else {
			imm, line, err = getImm(line, 0, 31, opName)
			rs1 = int(imm)
		}
		if err != nil {
			return 0, err
		}
		word = inst.Match | uint32(rd)<<7 | uint32(rs1)<<15 | csr<<20

	case op.TySFence: // "op" "op rs1,rs2"
		word = inst.Match
		if skipSpace(line) != "" {
			if rs1, line, err = getReg(line, opName); err != nil {
				return 0, err
			}
			if err = comma(); err != nil {
				return 0, err
			}
			if rs2, line, err = getReg(line, opName); err != nil {
				return 0, err
			}
			word = op.EncodeR(inst.Match, 0, rs1, rs2)
		}

	default:
		word = inst.Match
	}

	line = skipSpace(line)
	if line != "" && line[0] != '#' {
		return 0, errors.New("Extra data after instruction " + opName)
	}
	return word, nil
}

// Skip forward over line until none whitespace character found.
func skipSpace(str string) string {
	for i := range str {
		if !unicode.IsSpace(rune(str[i])) {
			return str[i:]
		}
	}
	return ""
}

// Get next name.
func getName(str string) (string, string) {
	str = skipSpace(str)
	for i := range str {
		if unicode.IsSpace(rune(str[i])) {
			return str[:i], str[i+1:]
		}
	}
	return str, ""
}

// Get next non blank character.
func getNext(str string) (byte, string) {
	str = skipSpace(str)
	if str == "" {
		return 0, ""
	}
	return str[0], str[1:]
}

// Get a word of letters, digits and dots.
func getWord(str string) (string, string) {
	str = skipSpace(str)
	l := 0
	for _, by := range str {
		if !unicode.IsLetter(by) && !unicode.IsDigit(by) && by != '.' {
			break
		}
		l++
	}
	return str[:l], str[l:]
}

// Get register by ABI name or xN.
func getReg(str string, opName string) (int, string, error) {
	name, rest := getWord(str)
	r, ok := op.RegNumber(name)
	if !ok {
		return 0, str, errors.New("invalid register " + name + " for " + opName)
	}
	return r, rest, nil
}

// Get CSR by name or number.
func getCSR(str string, opName string) (uint32, string, error) {
	name, rest := getWord(str)
	if csr, ok := op.CSRNumber(name); ok {
		return csr, rest, nil
	}
	num, _, err := getImm(name, 0, 0xfff, opName)
	if err != nil {
		return 0, str, errors.New("invalid csr " + name + " for " + opName)
	}
	return uint32(num), rest, nil
}

// Get signed decimal or 0x hex number inside range.
func getImm(str string, low, high int64, opName string) (int64, string, error) {
	str = skipSpace(str)
	neg := false
	if str != "" && (str[0] == '-' || str[0] == '+') {
		neg = str[0] == '-'
		str = str[1:]
	}
	base := int64(10)
	if len(str) > 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X') {
		base = 16
		str = str[2:]
	}
	num := int64(0)
	l := 0
	for _, by := range str {
		var digit int64
		switch {
		case by >= '0' && by <= '9':
			digit = int64(by - '0')
		case base == 16 && by >= 'a' && by <= 'f':
			digit = int64(by-'a') + 10
		case base == 16 && by >= 'A' && by <= 'F':
			digit = int64(by-'A') + 10
		default:
			digit = -1
		}
		if digit < 0 {
			break
		}
		num = num*base + digit
		if num > 1<<33 {
			return 0, str, errors.New("immediate out of range for " + opName)
		}
		l++
	}
	if l == 0 {
		return 0, str, errors.New("number expected for " + opName)
	}
	if neg {
		num = -num
	}
	if num < low || num > high {
		return 0, str, errors.New("immediate out of range for " + opName)
	}
	return num, str[l:], nil
}

// Get address of form imm(reg) or (reg).
func getAddr(str string, opName string) (int64, int, string, error) {
	var imm int64
	var err error
	str = skipSpace(str)
	if str != "" && str[0] != '(' {
		imm, str, err = getImm(str, -2048, 2047, opName)
		if err != nil {
			return 0, 0, str, err
		}
	}
	var next byte
	next, str = getNext(str)
	if next != '(' {
		return 0, 0, str, errors.New("invalid format for " + opName)
	}
	r, str, err := getReg(str, opName)
	if err != nil {
		return 0, 0, str, err
	}
	next, str = getNext(str)
	if next != ')' {
		return 0, 0, str, errors.New("invalid format for " + opName)
	}
	return imm, r, str, nil
}
