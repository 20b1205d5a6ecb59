/*
 * RVLanes - RV32 instruction field encoding.
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

// Sign extended I immediate.
func ImmI(inst uint32) uint32 {
	return uint32(int32(inst) >> 20)
}

// Sign extended S immediate.
func ImmS(inst uint32) uint32 {
	return uint32(int32(inst)>>25)<<5 | ((inst >> 7) & 0x1f)
}

// Sign extended B immediate.
func ImmB(inst uint32) uint32 {
	return uint32(int32(inst)>>31)<<12 | ((inst >> 7) & 1 << 11) |
		((inst >> 25) & 0x3f << 5) | ((inst >> 8) & 0xf << 1)
}

// U immediate.
func ImmU(inst uint32) uint32 {
	return inst & 0xfffff000
}

// Sign extended J immediate.
func ImmJ(inst uint32) uint32 {
	return uint32(int32(inst)>>31)<<20 | (inst & 0x000ff000) |
		((inst >> 20) & 1 << 11) | ((inst >> 21) & 0x3ff << 1)
}

func regs(rd, rs1, rs2 int) uint32 {
	return (uint32(rd)&0x1f)<<7 | (uint32(rs1)&0x1f)<<15 | (uint32(rs2)&0x1f)<<20
}

// Build R format instruction.
func EncodeR(match uint32, rd, rs1, rs2 int) uint32 {
	return match | regs(rd, rs1, rs2)
}

// Build I format instruction.
func EncodeI(match uint32, rd, rs1 int, imm int32) uint32 {
	return match | regs(rd, rs1, 0) | (uint32(imm)&0xfff)<<20
}

// Build S format instruction.
func EncodeS(match uint32, rs1, rs2 int, imm int32) uint32 {
	u := uint32(imm)
	return match | regs(0, rs1, rs2) | (u&0x1f)<<7 | ((u>>5)&0x7f)<<25
}

// Build B format instruction, offset in bytes.
func EncodeB(match uint32, rs1, rs2 int, imm int32) uint32 {
	u := uint32(imm)
	return match | regs(0, rs1, rs2) | ((u>>11)&1)<<7 | ((u>>1)&0xf)<<8 |
		((u>>5)&0x3f)<<25 | ((u>>12)&1)<<31
}

// Build U format instruction, imm is the upper 20 bits in place.
func EncodeU(match uint32, rd int, imm uint32) uint32 {
	return match | regs(rd, 0, 0) | (imm & 0xfffff000)
}

// Build J format instruction, offset in bytes.
func EncodeJ(match uint32, rd int, imm int32) uint32 {
	u := uint32(imm)
	return match | regs(rd, 0, 0) | (u & 0x000ff000) | ((u>>11)&1)<<20 |
		((u>>1)&0x3ff)<<21 | ((u>>20)&1)<<31
}
