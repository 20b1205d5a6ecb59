/*
 * RVLanes - Assembler tests.
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
	"testing"
)

func TestAssembleErrors(t *testing.T) {
	// Test empty string value.
	test := " "
	inst, err := Assemble(test)
	if err == nil {
		t.Error("Empty instruction did not return error")
	} else if err.Error() != "undefined opcode " {
		t.Error("Wrong error message: " + err.Error())
	}
	if inst != 0 {
		t.Errorf("Inst: '%s' Got: %08x Expected 0", test, inst)
	}

	test = ""
	_, err = Assemble(test)
	if err == nil {
		t.Error("Empty instruction did not return error")
	} else if err.Error() != "undefined opcode " {
		t.Error("Wrong error message: " + err.Error())
	}

	test = "ABC"
	_, err = Assemble(test)
	if err == nil {
		t.Error("Undefined instruction did not return error")
	} else if err.Error() != "undefined opcode ABC" {
		t.Error("Wrong error message: " + err.Error())
	}

	bad := []string{
		"ADD a0,a1",
		"ADD a0,a1,x32",
		"ADDI a0,a0,2048",
		"ADDI a0,a0,-2049",
		"SLLI a0,a0,32",
		"LW a0,8(sp",
		"LW a0,sp",
		"BEQ a0,a1,3",
		"JAL ra,1048576",
		"LUI a0,0x100000",
		"CSRRW a0,bogus,a1",
		"CSRRWI a0,mstatus,32",
		"ECALL a0",
	}
	for _, test := range bad {
		if _, err := Assemble(test); err == nil {
			t.Errorf("Inst: '%s' did not return error", test)
		}
	}
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		text string
		word uint32
	}{
		{"ADDI a0,zero,5", 0x00500513},
		{"addi x10,x0,5", 0x00500513},
		{"ADD a0,a1,a2", 0x00c58533},
		{"SUB a0,a1,a2", 0x40c58533},
		{"SRAI a0,a0,3", 0x40355513},
		{"LW a0,8(sp)", 0x00812503},
		{"LW a0,(sp)", 0x00012503},
		{"SW a0,8(sp)", 0x00a12423},
		{"BEQ a0,a1,-4", 0xfeb50ee3},
		{"LUI a0,0x12345", 0x12345537},
		{"JAL ra,8", 0x008000ef},
		{"CSRRW t0,mstatus,a0", 0x300512f3},
		{"CSRRS a0,mcause,zero", 0x34202573},
		{"CSRRS a0,0x342,zero", 0x34202573},
		{"ECALL", 0x00000073},
		{"MRET  # return", 0x30200073},
		{"HALT", 0x0000000b},
		{"SFENCE.VMA", 0x12000073},
	}
	for _, test := range tests {
		word, err := Assemble(test.text)
		if err != nil {
			t.Errorf("Inst: '%s' returned error: %v", test.text, err)
			continue
		}
		if word != test.word {
			t.Errorf("Inst: '%s' got: %08x wanted: %08x", test.text, word, test.word)
		}
	}
}
