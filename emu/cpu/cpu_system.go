/*
 * RVLanes - System instructions.
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
	"github.com/rcornwell/rvlanes/util/debug"
)

// FENCE and FENCE.I.
func (core *Core) opFence(step *stepInfo) uint16 {
	switch step.funct3 {
	case op.F3Fence:
	case op.F3FenceI:
		core.csr[Sticky] |= FlagICache
	default:
		return core.opUnk(step)
	}
	return 0
}

// Stop core, exit code in a0.
func (core *Core) opHalt(step *stepInfo) uint16 {
	if step.funct3 != 0 {
		return core.opUnk(step)
	}
	core.exitCode = core.regs[10]
	core.state = Halted
	core.csr[Sticky] |= FlagHalt
	step.nextPC = core.PC
	return 0
}

// SYSTEM opcode.
func (core *Core) opSystem(step *stepInfo) uint16 {
	if step.funct3 != op.F3Priv {
		return core.opCSR(step)
	}

	switch step.inst {
	case op.InstECALL:
		return ircEcall
	case op.InstEBREAK:
		step.tval = core.PC
		return ircBreak
	case op.InstMRET:
		core.mret()
		step.nextPC = core.PC
		return 0
	case op.InstWFI:
		return 0
	}

	// SFENCE.VMA, flush whole TLB whatever the operands.
	if step.funct7 == op.F7SFence && step.rd == 0 {
		core.mmu.Flush()
		core.csr[Sticky] |= FlagTLBFlush
		return 0
	}
	return core.opUnk(step)
}

// CSRRW, CSRRS, CSRRC and immediate forms.
func (core *Core) opCSR(step *stepInfo) uint16 {
	num := step.inst >> 20
	c, ok := LookupCSR(num)
	if !ok {
		return core.opUnk(step)
	}

	src := step.src1
	if (step.funct3 & 4) != 0 {
		if step.funct3 == 4 {
			return core.opUnk(step)
		}
		src = uint32(step.rs1)
	}

	write := true
	if (step.funct3&3) != 1 && step.rs1 == 0 {
		write = false
	}
	if write && readOnly(num) {
		return core.opUnk(step)
	}

	old := core.readCSR(c)
	if write {
		var value uint32
		switch step.funct3 & 3 {
		case 1:
			value = src
		case 2:
			value = old | src
		case 3:
			value = old &^ src
		}
		core.writeCSR(c, value)
		if (debugMsk & debugCSR) != 0 {
			debug.Debugf("CPU", debugMsk, debugCSR, "%d csr %03x %08x -> %08x",
				core.ID, num, old, value)
		}
	}
	core.regs[step.rd] = old
	return 0
}
