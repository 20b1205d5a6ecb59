/*
 * RVLanes - Integer instructions.
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

package cpu

import (
	op "github.com/rcornwell/rvlanes/emu/opcodemap"
)

// Unknown instruction.
func (core *Core) opUnk(step *stepInfo) uint16 {
	step.tval = step.inst
	return ircIllegal
}

// Load upper immediate.
func (core *Core) opLUI(step *stepInfo) uint16 {
	core.regs[step.rd] = op.ImmU(step.inst)
	return 0
}

// Add upper immediate to PC.
func (core *Core) opAUIPC(step *stepInfo) uint16 {
	core.regs[step.rd] = core.PC + op.ImmU(step.inst)
	return 0
}

// Move PC to target, trap if not on word.
func (core *Core) jump(step *stepInfo, target uint32) uint16 {
	if (target & 3) != 0 {
		step.tval = target
		return ircInstMisaligned
	}
	step.nextPC = target
	return 0
}

// Jump and link.
func (core *Core) opJAL(step *stepInfo) uint16 {
	if err := core.jump(step, core.PC+op.ImmJ(step.inst)); err != 0 {
		return err
	}
	core.regs[step.rd] = core.PC + 4
	return 0
}

// Jump and link register.
func (core *Core) opJALR(step *stepInfo) uint16 {
	if step.funct3 != 0 {
		return core.opUnk(step)
	}
	if err := core.jump(step, (step.src1+op.ImmI(step.inst))&^1); err != 0 {
		return err
	}
	core.regs[step.rd] = core.PC + 4
	return 0
}

// Conditional branches.
func (core *Core) opBranch(step *stepInfo) uint16 {
	var taken bool
	switch step.funct3 {
	case op.F3Beq:
		taken = step.src1 == step.src2
	case op.F3Bne:
		taken = step.src1 != step.src2
	case op.F3Blt:
		taken = int32(step.src1) < int32(step.src2)
	case op.F3Bge:
		taken = int32(step.src1) >= int32(step.src2)
	case op.F3Bltu:
		taken = step.src1 < step.src2
	case op.F3Bgeu:
		taken = step.src1 >= step.src2
	default:
		return core.opUnk(step)
	}
	if taken {
		return core.jump(step, core.PC+op.ImmB(step.inst))
	}
	return 0
}

// Load byte, half or word.
func (core *Core) opLoad(step *stepInfo) uint16 {
	addr := step.src1 + op.ImmI(step.inst)
	var value uint32
	var err uint16
	switch step.funct3 {
	case op.F3Lb:
		value, err = core.readMem(addr, 1, step)
		value = uint32(int32(int8(value)))
	case op.F3Lh:
		value, err = core.readMem(addr, 2, step)
		value = uint32(int32(int16(value)))
	case op.F3Lw:
		value, err = core.readMem(addr, 4, step)
	case op.F3Lbu:
		value, err = core.readMem(addr, 1, step)
	case op.F3Lhu:
		value, err = core.readMem(addr, 2, step)
	default:
		return core.opUnk(step)
	}
	if err != 0 {
		return err
	}
	core.regs[step.rd] = value
	return 0
}

// Store byte, half or word.
func (core *Core) opStore(step *stepInfo) uint16 {
	addr := step.src1 + op.ImmS(step.inst)
	switch step.funct3 {
	case op.F3Sb:
		return core.writeMem(addr, 1, step.src2, step)
	case op.F3Sh:
		return core.writeMem(addr, 2, step.src2, step)
	case op.F3Sw:
		return core.writeMem(addr, 4, step.src2, step)
	}
	return core.opUnk(step)
}

// Set if less than.
func slt(a, b uint32) uint32 {
	if int32(a) < int32(b) {
		return 1
	}
	return 0
}

// Set if less than unsigned.
func sltu(a, b uint32) uint32 {
	if a < b {
		return 1
	}
	return 0
}

// Register immediate operations.
func (core *Core) opImm(step *stepInfo) uint16 {
	imm := op.ImmI(step.inst)
	var result uint32
	switch step.funct3 {
	case op.F3Add:
		result = step.src1 + imm
	case op.F3Slt:
		result = slt(step.src1, imm)
	case op.F3Sltu:
		result = sltu(step.src1, imm)
	case op.F3Xor:
		result = step.src1 ^ imm
	case op.F3Or:
		result = step.src1 | imm
	case op.F3And:
		result = step.src1 & imm
	case op.F3Sll:
		if step.funct7 != 0 {
			return core.opUnk(step)
		}
		result = step.src1 << step.rs2
	case op.F3Srl:
		switch step.funct7 {
		case 0:
			result = step.src1 >> step.rs2
		case op.F7Alt:
			result = uint32(int32(step.src1) >> step.rs2)
		default:
			return core.opUnk(step)
		}
	}
	core.regs[step.rd] = result
	return 0
}

// Register register operations.
func (core *Core) opReg(step *stepInfo) uint16 {
	if step.funct7 != 0 && step.funct7 != op.F7Alt {
		return core.opUnk(step)
	}
	alt := step.funct7 == op.F7Alt
	if alt && step.funct3 != op.F3Add && step.funct3 != op.F3Srl {
		return core.opUnk(step)
	}
	shift := step.src2 & 0x1f
	var result uint32
	switch step.funct3 {
	case op.F3Add:
		if alt {
			result = step.src1 - step.src2
		} else {
			result = step.src1 + step.src2
		}
	case op.F3Sll:
		result = step.src1 << shift
	case op.F3Slt:
		result = slt(step.src1, step.src2)
	case op.F3Sltu:
		result = sltu(step.src1, step.src2)
	case op.F3Xor:
		result = step.src1 ^ step.src2
	case op.F3Srl:
		if alt {
			result = uint32(int32(step.src1) >> shift)
		} else {
			result = step.src1 >> shift
		}
	case op.F3Or:
		result = step.src1 | step.src2
	case op.F3And:
		result = step.src1 & step.src2
	}
	core.regs[step.rd] = result
	return 0
}
