/*
 * RVLanes - RV32 disassembler.
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

package disassemble

import (
	"fmt"

	op "github.com/rcornwell/rvlanes/emu/opcodemap"
)

// Return text of instruction word.
func Disassemble(word uint32) string {
	inst, ok := op.Lookup(word)
	if !ok {
		return undefined(word)
	}

	rd := op.RegNames[(word>>7)&0x1f]
	rs1 := op.RegNames[(word>>15)&0x1f]
	rs2 := op.RegNames[(word>>20)&0x1f]

	// Make opcode align
	str := fmt.Sprintf("%-7s ", inst.Name)
	switch inst.Type {
	case op.TyR:
		str += fmt.Sprintf("%s,%s,%s", rd, rs1, rs2)
	case op.TyI:
		str += fmt.Sprintf("%s,%s,%d", rd, rs1, int32(op.ImmI(word)))
	case op.TyShift:
		str += fmt.Sprintf("%s,%s,%d", rd, rs1, (word>>20)&0x1f)
	case op.TyLoad, op.TyJR:
		str += fmt.Sprintf("%s,%d(%s)", rd, int32(op.ImmI(word)), rs1)
	case op.TyS:
		str += fmt.Sprintf("%s,%d(%s)", rs2, int32(op.ImmS(word)), rs1)
	case op.TyB:
		str += fmt.Sprintf("%s,%s,%d", rs1, rs2, int32(op.ImmB(word)))
	case op.TyU:
		str += fmt.Sprintf("%s,0x%x", rd, word>>12)
	case op.TyJ:
		str += fmt.Sprintf("%s,%d", rd, int32(op.ImmJ(word)))
	case op.TyCSR:
		str += fmt.Sprintf("%s,%s,%s", rd, csrName(word>>20), rs1)
	case op.TyCSRI:
		str += fmt.Sprintf("%s,%s,%d", rd, csrName(word>>20), (word>>15)&0x1f)
	case op.TySFence:
		str += fmt.Sprintf("%s,%s", rs1, rs2)
	default:
		return inst.Name
	}
	return str
}

func csrName(num uint32) string {
	name, ok := op.CSRNames[num]
	if !ok {
		return fmt.Sprintf("0x%03x", num)
	}
	return name
}

func undefined(word uint32) string {
	return fmt.Sprintf(".word   0x%08x", word)
}
