/*
 * RVLanes - Control and status registers.
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
	"github.com/rcornwell/rvlanes/emu/mmu"
	op "github.com/rcornwell/rvlanes/emu/opcodemap"
)

// CSR names a register in the bank.
type CSR int

const (
	Mstatus CSR = iota
	Misa
	Mie
	Mtvec
	Mscratch
	Mepc
	Mcause
	Mtval
	Mip
	Satp
	Mhartid
	Mcycle
	Mcycleh
	Minstret
	Minstreth
	GuestBase
	GuestSize
	Sticky
	FaultInfo
	numCSR
)

// Map from CSR number to bank index.
var csrIndex = map[uint32]CSR{
	op.CSRMstatus:   Mstatus,
	op.CSRMisa:      Misa,
	op.CSRMie:       Mie,
	op.CSRMtvec:     Mtvec,
	op.CSRMscratch:  Mscratch,
	op.CSRMepc:      Mepc,
	op.CSRMcause:    Mcause,
	op.CSRMtval:     Mtval,
	op.CSRMip:       Mip,
	op.CSRSatp:      Satp,
	op.CSRMhartid:   Mhartid,
	op.CSRMcycle:    Mcycle,
	op.CSRMcycleh:   Mcycleh,
	op.CSRMinstret:  Minstret,
	op.CSRMinstreth: Minstreth,
	op.CSRCycle:     Mcycle,
	op.CSRCycleh:    Mcycleh,
	op.CSRInstret:   Minstret,
	op.CSRInstreth:  Minstreth,
	op.CSRGuestBase: GuestBase,
	op.CSRGuestSize: GuestSize,
	op.CSRSticky:    Sticky,
	op.CSRFault:     FaultInfo,
}

// Look up CSR number.
func LookupCSR(num uint32) (CSR, bool) {
	c, ok := csrIndex[num&0xfff]
	return c, ok
}

// CSR numbers 0xC00-0xFFF are read only.
func readOnly(num uint32) bool {
	return ((num >> 10) & 3) == 3
}

// Read value of CSR.
func (core *Core) readCSR(c CSR) uint32 {
	switch c {
	case Mcycle:
		return uint32(core.cycles)
	case Mcycleh:
		return uint32(core.cycles >> 32)
	case Minstret:
		return uint32(core.instret)
	case Minstreth:
		return uint32(core.instret >> 32)
	case Satp:
		return core.mmu.Satp()
	}
	return core.csr[c]
}

// Write CSR with guest rules applied.
func (core *Core) writeCSR(c CSR, value uint32) {
	switch c {
	case Mstatus:
		core.csr[Mstatus] = (value & (statusMIE | statusMPIE)) | statusMPP
	case Misa, Mhartid, GuestBase, GuestSize, Sticky, FaultInfo:
		// Not writable by guest.
	case Mie:
		core.csr[Mie] = value & irqMask
	case Mtvec, Mepc:
		core.csr[c] = value &^ 3
	case Mip:
		// Software bit can be set, pending bits can only be cleared.
		old := core.csr[Mip]
		core.csr[Mip] = (old & (MTIP | MEIP) & value) | (value & MSIP)
	case Satp:
		core.mmu.SetSatp(value)
		core.csr[Sticky] |= FlagTLBFlush
	case Mcycle:
		core.cycles = (core.cycles &^ 0xffffffff) | uint64(value)
	case Mcycleh:
		core.cycles = (core.cycles & 0xffffffff) | (uint64(value) << 32)
	case Minstret:
		core.instret = (core.instret &^ 0xffffffff) | uint64(value)
	case Minstreth:
		core.instret = (core.instret & 0xffffffff) | (uint64(value) << 32)
	default:
		core.csr[c] = value
	}
}

// Read CSR by number for host.
func (core *Core) ReadCSR(num uint32) (uint32, bool) {
	c, ok := LookupCSR(num)
	if !ok {
		return 0, false
	}
	return core.readCSR(c), true
}

// Write CSR by number for host. Host may seed registers the guest can't.
func (core *Core) WriteCSR(num uint32, value uint32) bool {
	c, ok := LookupCSR(num)
	if !ok {
		return false
	}
	switch c {
	case GuestBase:
		return core.SetWindow(value, core.csr[GuestSize])
	case GuestSize:
		return core.SetWindow(core.csr[GuestBase], value)
	case Misa:
		return false
	case Mhartid:
		core.csr[Mhartid] = value
	case Sticky, FaultInfo:
		core.csr[c] = value
	case Mip:
		core.csr[Mip] = value & irqMask
	case Satp:
		core.mmu.SetSatp(value)
	default:
		core.writeCSR(c, value)
	}
	return true
}

// Set isolation window. Return false if not aligned or wraps.
func (core *Core) SetWindow(base, size uint32) bool {
	w := mmu.Window{Base: base, Size: size}
	if !w.Valid() {
		return false
	}
	core.csr[GuestBase] = base
	core.csr[GuestSize] = size
	core.mmu.SetWindow(w)
	return true
}

// Return current isolation window.
func (core *Core) Window() mmu.Window {
	return core.mmu.Window()
}

// Set page table base register.
func (core *Core) SetSatp(satp uint32) {
	core.mmu.SetSatp(satp)
}

// Read and clear sticky flags.
func (core *Core) TakeSticky() uint32 {
	f := core.csr[Sticky]
	core.csr[Sticky] = 0
	return f
}

// Post interrupt pending bit.
func (core *Core) PostInterrupt(irq uint32) bool {
	bit := uint32(1) << irq
	if (bit & irqMask) == 0 || irq > 31 {
		return false
	}
	core.csr[Mip] |= bit
	return true
}

// Clear interrupt pending bit.
func (core *Core) ClearInterrupt(irq uint32) {
	if irq > 31 {
		return
	}
	core.csr[Mip] &^= uint32(1) << irq
}
