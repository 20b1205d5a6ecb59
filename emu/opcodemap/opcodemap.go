/*
 * RVLanes - RV32 opcode definitions.
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

package opcodemap

import "strings"

const (
	// Major opcodes, bits 6:0.
	OpLoad    = 0x03
	OpCustom0 = 0x0B // HALT
	OpMiscMem = 0x0F // FENCE, FENCE.I
	OpImm     = 0x13
	OpAUIPC   = 0x17
	OpStore   = 0x23
	OpReg     = 0x33
	OpLUI     = 0x37
	OpBranch  = 0x63
	OpJALR    = 0x67
	OpJAL     = 0x6F
	OpSystem  = 0x73

	// Funct3 values.
	F3Beq  = 0
	F3Bne  = 1
	F3Blt  = 4
	F3Bge  = 5
	F3Bltu = 6
	F3Bgeu = 7

	F3Lb  = 0
	F3Lh  = 1
	F3Lw  = 2
	F3Lbu = 4
	F3Lhu = 5

	F3Sb = 0
	F3Sh = 1
	F3Sw = 2

	F3Add  = 0 // ADD/SUB
	F3Sll  = 1
	F3Slt  = 2
	F3Sltu = 3
	F3Xor  = 4
	F3Srl  = 5 // SRL/SRA
	F3Or   = 6
	F3And  = 7

	F3Priv   = 0 // ECALL, EBREAK, MRET, WFI, SFENCE.VMA
	F3Csrrw  = 1
	F3Csrrs  = 2
	F3Csrrc  = 3
	F3Csrrwi = 5
	F3Csrrsi = 6
	F3Csrrci = 7

	F3Fence  = 0
	F3FenceI = 1

	F7Alt = 0x20 // SUB, SRA, SRAI

	// Fixed system encodings.
	InstECALL  uint32 = 0x00000073
	InstEBREAK uint32 = 0x00100073
	InstMRET   uint32 = 0x30200073
	InstWFI    uint32 = 0x10500073
	F7SFence          = 0x09

	// CSR numbers.
	CSRSatp      = 0x180
	CSRMstatus   = 0x300
	CSRMisa      = 0x301
	CSRMie       = 0x304
	CSRMtvec     = 0x305
	CSRMscratch  = 0x340
	CSRMepc      = 0x341
	CSRMcause    = 0x342
	CSRMtval     = 0x343
	CSRMip       = 0x344
	CSRMcycle    = 0xB00
	CSRMinstret  = 0xB02
	CSRMcycleh   = 0xB80
	CSRMinstreth = 0xB82
	CSRCycle     = 0xC00
	CSRInstret   = 0xC02
	CSRCycleh    = 0xC80
	CSRInstreth  = 0xC82
	CSRMhartid   = 0xF14
	CSRGuestBase = 0xFC0 // Isolation window base, host set.
	CSRGuestSize = 0xFC1 // Isolation window size, host set.
	CSRSticky    = 0xFC2 // Sticky flags since last host read.
	CSRFault     = 0xFC3 // Reason of last translation fault.
)

// Instruction formats.
const (
	TyR      = 1 + iota // rd, rs1, rs2
	TyI                 // rd, rs1, imm
	TyShift             // rd, rs1, shamt
	TyLoad              // rd, imm(rs1)
	TyS                 // rs2, imm(rs1)
	TyB                 // rs1, rs2, offset
	TyU                 // rd, imm20
	TyJ                 // rd, offset
	TyJR                // rd, imm(rs1)
	TyCSR               // rd, csr, rs1
	TyCSRI              // rd, csr, uimm
	TySFence            // rs1, rs2
	TyNone              // No operands
)

// Inst describes one instruction encoding.
type Inst struct {
	Name  string
	Type  int
	Match uint32 // Fixed bits of encoding.
	Mask  uint32 // Which bits are fixed.
}

const (
	maskOp    uint32 = 0x0000007f
	maskF3    uint32 = 0x0000707f
	maskF7    uint32 = 0xfe00707f
	maskFixed uint32 = 0xffffffff
)

var Instructions = []Inst{
	{"LUI", TyU, OpLUI, maskOp},
	{"AUIPC", TyU, OpAUIPC, maskOp},
	{"JAL", TyJ, OpJAL, maskOp},
	{"JALR", TyJR, OpJALR, maskF3},
	{"BEQ", TyB, F3Beq<<12 | OpBranch, maskF3},
	{"BNE", TyB, F3Bne<<12 | OpBranch, maskF3},
	{"BLT", TyB, F3Blt<<12 | OpBranch, maskF3},
	{"BGE", TyB, F3Bge<<12 | OpBranch, maskF3},
	{"BLTU", TyB, F3Bltu<<12 | OpBranch, maskF3},
	{"BGEU", TyB, F3Bgeu<<12 | OpBranch, maskF3},
	{"LB", TyLoad, F3Lb<<12 | OpLoad, maskF3},
	{"LH", TyLoad, F3Lh<<12 | OpLoad, maskF3},
	{"LW", TyLoad, F3Lw<<12 | OpLoad, maskF3},
	{"LBU", TyLoad, F3Lbu<<12 | OpLoad, maskF3},
	{"LHU", TyLoad, F3Lhu<<12 | OpLoad, maskF3},
	{"SB", TyS, F3Sb<<12 | OpStore, maskF3},
	{"SH", TyS, F3Sh<<12 | OpStore, maskF3},
	{"SW", TyS, F3Sw<<12 | OpStore, maskF3},
	{"ADDI", TyI, F3Add<<12 | OpImm, maskF3},
	{"SLTI", TyI, F3Slt<<12 | OpImm, maskF3},
	{"SLTIU", TyI, F3Sltu<<12 | OpImm, maskF3},
	{"XORI", TyI, F3Xor<<12 | OpImm, maskF3},
	{"ORI", TyI, F3Or<<12 | OpImm, maskF3},
	{"ANDI", TyI, F3And<<12 | OpImm, maskF3},
	{"SLLI", TyShift, F3Sll<<12 | OpImm, maskF7},
	{"SRLI", TyShift, F3Srl<<12 | OpImm, maskF7},
	{"SRAI", TyShift, F7Alt<<25 | F3Srl<<12 | OpImm, maskF7},
	{"ADD", TyR, F3Add<<12 | OpReg, maskF7},
	{"SUB", TyR, F7Alt<<25 | F3Add<<12 | OpReg, maskF7},
	{"SLL", TyR, F3Sll<<12 | OpReg, maskF7},
	{"SLT", TyR, F3Slt<<12 | OpReg, maskF7},
	{"SLTU", TyR, F3Sltu<<12 | OpReg, maskF7},
	{"XOR", TyR, F3Xor<<12 | OpReg, maskF7},
	{"SRL", TyR, F3Srl<<12 | OpReg, maskF7},
	{"SRA", TyR, F7Alt<<25 | F3Srl<<12 | OpReg, maskF7},
	{"OR", TyR, F3Or<<12 | OpReg, maskF7},
	{"AND", TyR, F3And<<12 | OpReg, maskF7},
	{"FENCE", TyNone, F3Fence<<12 | OpMiscMem, maskF3},
	{"FENCE.I", TyNone, F3FenceI<<12 | OpMiscMem, maskF3},
	{"ECALL", TyNone, InstECALL, maskFixed},
	{"EBREAK", TyNone, InstEBREAK, maskFixed},
	{"MRET", TyNone, InstMRET, maskFixed},
	{"WFI", TyNone, InstWFI, maskFixed},
	{"SFENCE.VMA", TySFence, F7SFence<<25 | F3Priv<<12 | OpSystem, 0xfe007fff},
	{"CSRRW", TyCSR, F3Csrrw<<12 | OpSystem, maskF3},
	{"CSRRS", TyCSR, F3Csrrs<<12 | OpSystem, maskF3},
	{"CSRRC", TyCSR, F3Csrrc<<12 | OpSystem, maskF3},
	{"CSRRWI", TyCSRI, F3Csrrwi<<12 | OpSystem, maskF3},
	{"CSRRSI", TyCSRI, F3Csrrsi<<12 | OpSystem, maskF3},
	{"CSRRCI", TyCSRI, F3Csrrci<<12 | OpSystem, maskF3},
	{"HALT", TyNone, OpCustom0, maskF3},
}

// Find instruction matching encoding.
func Lookup(word uint32) (Inst, bool) {
	for _, i := range Instructions {
		if (word & i.Mask) == i.Match {
			return i, true
		}
	}
	return Inst{}, false
}

// Find instruction by mnemonic.
func Find(name string) (Inst, bool) {
	name = strings.ToUpper(name)
	for _, i := range Instructions {
		if i.Name == name {
			return i, true
		}
	}
	return Inst{}, false
}

// ABI register names.
var RegNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// Convert register name, ABI or xN form, to number.
func RegNumber(name string) (int, bool) {
	name = strings.ToLower(name)
	if name == "fp" {
		return 8, true
	}
	for i, n := range RegNames {
		if n == name {
			return i, true
		}
	}
	if len(name) < 2 || len(name) > 3 || name[0] != 'x' {
		return 0, false
	}
	num := 0
	for _, c := range name[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		num = num*10 + int(c-'0')
	}
	if num > 31 || (len(name) == 3 && name[1] == '0') {
		return 0, false
	}
	return num, true
}

// CSR names for assembler and disassembler.
var CSRNames = map[uint32]string{
	CSRSatp:      "satp",
	CSRMstatus:   "mstatus",
	CSRMisa:      "misa",
	CSRMie:       "mie",
	CSRMtvec:     "mtvec",
	CSRMscratch:  "mscratch",
	CSRMepc:      "mepc",
	CSRMcause:    "mcause",
	CSRMtval:     "mtval",
	CSRMip:       "mip",
	CSRMcycle:    "mcycle",
	CSRMinstret:  "minstret",
	CSRMcycleh:   "mcycleh",
	CSRMinstreth: "minstreth",
	CSRCycle:     "cycle",
	CSRInstret:   "instret",
	CSRCycleh:    "cycleh",
	CSRInstreth:  "instreth",
	CSRMhartid:   "mhartid",
	CSRGuestBase: "gbase",
	CSRGuestSize: "gsize",
	CSRSticky:    "sticky",
	CSRFault:     "fault",
}

// Convert CSR name to number.
func CSRNumber(name string) (uint32, bool) {
	name = strings.ToLower(name)
	for n, s := range CSRNames {
		if s == name {
			return n, true
		}
	}
	return 0, false
}
