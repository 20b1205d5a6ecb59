/*
 * RVLanes - Disassembler tests.
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
	"testing"

	"github.com/rcornwell/rvlanes/emu/assemble"
)

func TestDisassemble(t *testing.T) {
	tests := []struct {
		word  uint32
		match string
	}{
		{0x00500513, "ADDI    a0,zero,5"},
		{0x00c58533, "ADD     a0,a1,a2"},
		{0x40c58533, "SUB     a0,a1,a2"},
		{0x40355513, "SRAI    a0,a0,3"},
		{0x00812503, "LW      a0,8(sp)"},
		{0x00a12423, "SW      a0,8(sp)"},
		{0xfeb50ee3, "BEQ     a0,a1,-4"},
		{0x12345537, "LUI     a0,0x12345"},
		{0x008000ef, "JAL     ra,8"},
		{0x300512f3, "CSRRW   t0,mstatus,a0"},
		{0x7c0512f3, "CSRRW   t0,0x7c0,a0"},
		{0x00000073, "ECALL"},
		{0x30200073, "MRET"},
		{0x0000000b, "HALT"},
		{0x00000000, ".word   0x00000000"},
		{0xffffffff, ".word   0xffffffff"},
	}
	for _, test := range tests {
		inst := Disassemble(test.word)
		if inst != test.match {
			t.Error("Inst Got: " + inst + " Expected " + test.match)
		}
	}
}

// Text from the disassembler should assemble back to the same word.
func TestDisassembleAssemble(t *testing.T) {
	words := []uint32{
		0x00500513, 0xfff00513, 0x00c58533, 0x40c58533, 0x40355513,
		0x00812503, 0xffc14503, 0x00a12423, 0xfeb50ee3, 0x12345537,
		0x008000ef, 0x000080e7, 0x300512f3, 0x3000d073, 0x30200073,
		0x0000000b, 0x0000100f,
	}
	for _, word := range words {
		text := Disassemble(word)
		got, err := assemble.Assemble(text)
		if err != nil {
			t.Errorf("Inst: '%s' returned error: %v", text, err)
			continue
		}
		if got != word {
			t.Errorf("Inst: '%s' got: %08x wanted: %08x", text, got, word)
		}
	}
}
