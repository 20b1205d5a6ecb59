/*
 * RVLanes - RV32 processor core.
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
	"errors"
	"math/bits"

	"github.com/rcornwell/rvlanes/emu/disassemble"
	"github.com/rcornwell/rvlanes/emu/memory"
	"github.com/rcornwell/rvlanes/emu/mmu"
	op "github.com/rcornwell/rvlanes/emu/opcodemap"
	"github.com/rcornwell/rvlanes/util/debug"
)

/*
   Each core is a 32 bit RISC-V hart running in machine mode only. All
   instructions are 32 bits and must be on a word boundary.

    R format:
      +-------+-----+-----+----+-----+--------+
      |funct7 | rs2 | rs1 | f3 | rd  | opcode |
      +-------+-----+-----+----+-----+--------+
       31   25 24 20 19 15 14 12 11 7 6      0

    I format: imm[11:0] in 31:20.
    S format: imm[11:5] in 31:25, imm[4:0] in 11:7.
    B format: imm[12|10:5] in 31:25, imm[4:1|11] in 11:7.
    U format: imm[31:12] in 31:12.
    J format: imm[20|10:1|11|19:12] in 31:12.

   Every fetch, load and store goes through the core's MMU, which applies
   the page tables and then the guest window.
*/

// Create a core numbered id over shared memory.
func New(id int, mem *memory.Memory) *Core {
	core := &Core{ID: id, mem: mem, mmu: mmu.New(mem)}
	core.createTable()
	core.dirty = make([]uint64, (mem.Pages()+63)/64)
	core.Reset()
	return core
}

// Enable debug options.
func Debug(opt string) error {
	flag, ok := debugOption[opt]
	if !ok {
		return errors.New("cpu debug option invalid: " + opt)
	}
	debugMsk |= flag
	return nil
}

// Return core to power on state, window is kept.
func (core *Core) Reset() {
	w := core.mmu.Window()
	core.PC = 0
	core.regs = [32]uint32{}
	core.csr = [numCSR]uint32{}
	core.csr[Misa] = misaValue
	core.csr[Mstatus] = statusMPP
	core.csr[Mhartid] = uint32(core.ID)
	core.csr[GuestBase] = w.Base
	core.csr[GuestSize] = w.Size
	core.mmu.SetSatp(0)
	core.state = Running
	core.exitCode = 0
	core.cycles = 0
	core.instret = 0
	core.stats = Stats{}
	for i := range core.dirty {
		core.dirty[i] = 0
	}
}

// Return current state.
func (core *Core) State() State {
	return core.state
}

// Return exit code given to HALT.
func (core *Core) ExitCode() uint32 {
	return core.exitCode
}

// Return register.
func (core *Core) Reg(r int) uint32 {
	return core.regs[r&0x1f]
}

// Set register, x0 stays zero.
func (core *Core) SetReg(r int, value uint32) {
	if r&0x1f != 0 {
		core.regs[r&0x1f] = value
	}
}

// Return copy of register file.
func (core *Core) Registers() [32]uint32 {
	return core.regs
}

// Load register file and PC.
func (core *Core) LoadRegisters(regs []uint32, pc uint32) {
	for i := range core.regs {
		if i < len(regs) {
			core.regs[i] = regs[i]
		}
	}
	core.regs[0] = 0
	core.PC = pc
}

// Translate address the way the core would.
func (core *Core) Translate(va uint32, access mmu.Access) (uint32, mmu.Fault) {
	return core.mmu.Translate(va, access)
}

// Return and clear counters.
func (core *Core) TakeStats() Stats {
	s := core.stats
	core.stats = Stats{}
	return s
}

// Return numbers of pages written by core since last call and clear.
func (core *Core) TakeDirtyPages() []uint32 {
	var pages []uint32
	for i, w := range core.dirty {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			pages = append(pages, uint32(i*64+b))
			w &^= 1 << b
		}
		core.dirty[i] = 0
	}
	return pages
}

// Execute up to count instructions, stop early if halted.
func (core *Core) Run(count int) (int, State) {
	n := 0
	for n < count && core.state != Halted {
		core.Step()
		n++
	}
	return n, core.state
}

// Execute one instruction or take an interrupt.
func (core *Core) Step() State {
	if core.state == Halted {
		return Halted
	}
	core.cycles++
	defer core.checkUpdate()

	if core.interrupt() {
		return core.state
	}

	if (core.PC & 3) != 0 {
		core.trap(ircInstMisaligned, core.PC)
		return core.state
	}

	pa, fault := core.mmu.Translate(core.PC, mmu.Exec)
	if fault != mmu.None {
		core.trap(core.memFault(fault, mmu.Exec, core.PC), core.PC)
		return core.state
	}

	inst, _ := core.mem.GetWord(pa)
	if (debugMsk & debugInst) != 0 {
		debug.Debugf("CPU", debugMsk, debugInst, "%d %08x %08x %s", core.ID,
			core.PC, inst, disassemble.Disassemble(inst))
	}

	var step stepInfo
	step.inst = inst
	step.opcode = uint8(inst & 0x7f)
	step.rd = uint8((inst >> 7) & 0x1f)
	step.funct3 = uint8((inst >> 12) & 0x7)
	step.rs1 = uint8((inst >> 15) & 0x1f)
	step.rs2 = uint8((inst >> 20) & 0x1f)
	step.funct7 = uint8(inst >> 25)
	step.src1 = core.regs[step.rs1]
	step.src2 = core.regs[step.rs2]
	step.nextPC = core.PC + 4

	err := core.execute(&step)
	core.regs[0] = 0
	if err != 0 {
		core.trap(err, step.tval)
		return core.state
	}
	core.PC = step.nextPC
	core.instret++
	core.stats.Instructions++
	return core.state
}

// Dispatch instruction on major opcode.
func (core *Core) execute(step *stepInfo) uint16 {
	if (step.opcode & 3) != 3 {
		return core.opUnk(step)
	}
	return core.table[step.opcode>>2](step)
}

// Collect page table updates into sticky flags.
func (core *Core) checkUpdate() {
	if core.mmu.TakeUpdated() {
		core.csr[Sticky] |= FlagPTE
	}
}

// Create table of instructions.
func (core *Core) createTable() {
	for i := range core.table {
		core.table[i] = core.opUnk
	}
	core.table[op.OpLoad>>2] = core.opLoad
	core.table[op.OpCustom0>>2] = core.opHalt
	core.table[op.OpMiscMem>>2] = core.opFence
	core.table[op.OpImm>>2] = core.opImm
	core.table[op.OpAUIPC>>2] = core.opAUIPC
	core.table[op.OpStore>>2] = core.opStore
	core.table[op.OpReg>>2] = core.opReg
	core.table[op.OpLUI>>2] = core.opLUI
	core.table[op.OpBranch>>2] = core.opBranch
	core.table[op.OpJALR>>2] = core.opJALR
	core.table[op.OpJAL>>2] = core.opJAL
	core.table[op.OpSystem>>2] = core.opSystem
}

// Latch reason for failed translation and return interruption code.
func (core *Core) memFault(fault mmu.Fault, access mmu.Access, addr uint32) uint16 {
	core.csr[FaultInfo] = uint32(fault)
	if (debugMsk & debugMMU) != 0 {
		debug.Debugf("CPU", debugMsk, debugMMU, "%d %s %08x fault %s satp=%08x",
			core.ID, access, addr, fault, core.mmu.Satp())
	}
	return faultCode(fault, access)
}

// Map translation fault to interruption code.
func faultCode(fault mmu.Fault, access mmu.Access) uint16 {
	if fault == mmu.Bus {
		switch access {
		case mmu.Load:
			return ircLoadAccess
		case mmu.Store:
			return ircStoreAccess
		default:
			return ircInstAccess
		}
	}
	switch access {
	case mmu.Load:
		return ircLoadPage
	case mmu.Store:
		return ircStorePage
	default:
		return ircInstPage
	}
}

// Read size bytes, zero extended.
func (core *Core) readMem(addr uint32, size uint32, step *stepInfo) (uint32, uint16) {
	step.tval = addr
	if (addr & (size - 1)) != 0 {
		return 0, ircLoadMisaligned
	}

	pa, fault := core.mmu.Translate(addr, mmu.Load)
	if fault != mmu.None {
		return 0, core.memFault(fault, mmu.Load, addr)
	}

	word, _ := core.mem.GetWord(pa)
	word >>= 8 * (pa & 3)
	switch size {
	case 1:
		word &= byteMsk
	case 2:
		word &= halfMsk
	}
	return word, 0
}

// Write size bytes of data.
func (core *Core) writeMem(addr uint32, size uint32, data uint32, step *stepInfo) uint16 {
	step.tval = addr
	if (addr & (size - 1)) != 0 {
		return ircStoreMisaligned
	}

	pa, fault := core.mmu.Translate(addr, mmu.Store)
	if fault != mmu.None {
		return core.memFault(fault, mmu.Store, addr)
	}

	mask := ^uint32(0)
	switch size {
	case 1:
		mask = byteMsk
	case 2:
		mask = halfMsk
	}
	shift := 8 * (pa & 3)
	core.mem.PutWordMask(pa, data<<shift, mask<<shift)
	page := pa >> memory.PageShift
	core.dirty[page>>6] |= 1 << (page & 63)
	core.csr[Sticky] |= FlagStore
	return 0
}

// Take pending enabled interrupt, return true if taken.
func (core *Core) interrupt() bool {
	if (core.csr[Mstatus] & statusMIE) == 0 {
		return false
	}
	pending := core.csr[Mie] & core.csr[Mip]
	if pending == 0 {
		return false
	}
	var irq uint32
	switch {
	case (pending & MEIP) != 0:
		irq = IrqExternal
	case (pending & MSIP) != 0:
		irq = IrqSoftware
	default:
		irq = IrqTimer
	}
	// Host posted lines are acknowledged when taken, guest owns MSIP.
	if irq != IrqSoftware {
		core.ClearInterrupt(irq)
	}
	core.stats.Interrupts++
	core.enterTrap(CauseInterrupt|irq, 0)
	return true
}

// Take synchronous trap.
func (core *Core) trap(irc uint16, tval uint32) {
	cause := uint32(irc - 1)
	core.stats.Traps[cause&0xf]++
	core.enterTrap(cause, tval)
}

// Save state and go to trap vector, halt if no vector.
func (core *Core) enterTrap(cause uint32, tval uint32) {
	if (debugMsk & debugTrap) != 0 {
		debug.Debugf("CPU", debugMsk, debugTrap, "%d trap %08x PC=%08x tval=%08x",
			core.ID, cause, core.PC, tval)
	}
	core.csr[Mepc] = core.PC
	core.csr[Mcause] = cause
	core.csr[Mtval] = tval
	status := core.csr[Mstatus]
	if (status & statusMIE) != 0 {
		status |= statusMPIE
	} else {
		status &^= statusMPIE
	}
	status &^= statusMIE
	status |= statusMPP
	core.csr[Mstatus] = status
	core.csr[Sticky] |= FlagTrap

	if core.csr[Mtvec] == 0 {
		core.state = Halted
		core.csr[Sticky] |= FlagHalt
		return
	}
	core.PC = core.csr[Mtvec]
	core.state = Trapped
}

// Return from trap.
func (core *Core) mret() {
	status := core.csr[Mstatus]
	if (status & statusMPIE) != 0 {
		status |= statusMIE
	} else {
		status &^= statusMIE
	}
	status |= statusMPIE | statusMPP
	core.csr[Mstatus] = status
	core.PC = core.csr[Mepc]
	core.state = Running
}
