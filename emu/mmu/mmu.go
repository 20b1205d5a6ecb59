/*
 * RVLanes - Sv32 address translation with guest window.
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

package mmu

import (
	"github.com/rcornwell/rvlanes/emu/memory"
)

// Access kind being translated.
type Access uint8

const (
	Load Access = iota
	Store
	Exec
)

func (a Access) String() string {
	switch a {
	case Load:
		return "load"
	case Store:
		return "store"
	case Exec:
		return "exec"
	}
	return "unknown"
}

// Reason a translation failed.
type Fault uint8

const (
	None       Fault = iota
	Invalid          // PTE valid bit clear.
	Permission       // R/W/X not granted.
	Reserved         // Reserved PTE encoding.
	Misaligned       // Superpage with low PPN bits set.
	Depth            // Pointer PTE at last level.
	Isolation        // Physical address outside guest window.
	Bus              // Physical address outside memory.
)

var faultNames = []string{"none", "invalid", "permission", "reserved", "misaligned",
	"depth", "isolation", "bus"}

func (f Fault) String() string {
	if int(f) >= len(faultNames) {
		return "unknown"
	}
	return faultNames[f]
}

// Sv32 page table entry bits.
const (
	PteValid    uint32 = 0x001
	PteRead     uint32 = 0x002
	PteWrite    uint32 = 0x004
	PteExec     uint32 = 0x008
	PteUser     uint32 = 0x010
	PteGlobal   uint32 = 0x020
	PteAccessed uint32 = 0x040
	PteDirty    uint32 = 0x080

	ptePPNShift = 10
	pageShift   = 12
	pageMask    = 0xfff
	superMask   = 0x3fffff
	vpnMask     = 0x3ff
	levels      = 2
	maxPPN      = 1 << 20 // PPNs at or above overflow 32 bit physical.

	SatpMode uint32 = 0x80000000
	SatpPPN  uint32 = 0x003fffff

	tlbSize = 256
)

// Build a page table entry for physical page number.
func MakePTE(ppn uint32, flags uint32) uint32 {
	return (ppn << ptePPNShift) | flags | PteValid
}

// Build satp value enabling translation with root table at physical address.
func MakeSatp(root uint32) uint32 {
	return SatpMode | (root >> pageShift)
}

// Window is the guest isolation window [Base, Base+Size).
type Window struct {
	Base uint32
	Size uint32
}

// Check if physical address lies in window. Size zero disables the check.
func (w Window) Contains(pa uint32) bool {
	if w.Size == 0 {
		return true
	}
	return pa >= w.Base && (pa-w.Base) < w.Size
}

// Check base and size are word aligned and do not wrap.
func (w Window) Valid() bool {
	if (w.Base&3) != 0 || (w.Size&3) != 0 {
		return false
	}
	return uint64(w.Base)+uint64(w.Size) <= 1<<32
}

type tlbEntry struct {
	vpn   uint32 // Virtual page number.
	frame uint32 // Physical address of 4K frame.
	pte   uint32 // Leaf PTE as last written.
	valid bool
}

// MMU translates addresses for one core.
type MMU struct {
	mem     *memory.Memory
	satp    uint32
	window  Window
	tlb     [tlbSize]tlbEntry
	fault   Fault // Reason for last failure.
	updated bool  // A/D bits written since last TakeUpdated.
}

// Create translator over memory.
func New(mem *memory.Memory) *MMU {
	return &MMU{mem: mem}
}

// Return current satp.
func (m *MMU) Satp() uint32 {
	return m.satp
}

// Set satp and flush TLB.
func (m *MMU) SetSatp(satp uint32) {
	m.satp = satp
	m.Flush()
}

// Return current isolation window.
func (m *MMU) Window() Window {
	return m.window
}

// Set isolation window.
func (m *MMU) SetWindow(w Window) {
	m.window = w
}

// Invalidate every TLB entry.
func (m *MMU) Flush() {
	for i := range m.tlb {
		m.tlb[i].valid = false
	}
}

// Return reason of last failed translation.
func (m *MMU) LastFault() Fault {
	return m.fault
}

// Return true once after page table entries were written.
func (m *MMU) TakeUpdated() bool {
	u := m.updated
	m.updated = false
	return u
}

// Check leaf permissions against access.
func permitted(pte uint32, access Access) bool {
	switch access {
	case Load:
		return (pte & PteRead) != 0
	case Store:
		return (pte & PteWrite) != 0
	case Exec:
		return (pte & PteExec) != 0
	}
	return false
}

func (m *MMU) fail(f Fault) (uint32, Fault) {
	m.fault = f
	return 0, f
}

// Translate virtual address to physical address.
func (m *MMU) Translate(va uint32, access Access) (uint32, Fault) {
	pa := va
	if (m.satp & SatpMode) != 0 {
		var f Fault
		pa, f = m.lookup(va, access)
		if f != None {
			return m.fail(f)
		}
	}

	if !m.window.Contains(pa) {
		return m.fail(Isolation)
	}

	if !m.mem.CheckAddr(pa) {
		return m.fail(Bus)
	}
	return pa, None
}

// Check TLB before walking tables.
func (m *MMU) lookup(va uint32, access Access) (uint32, Fault) {
	vpn := va >> pageShift
	e := &m.tlb[vpn&(tlbSize-1)]
	if e.valid && e.vpn == vpn {
		if !permitted(e.pte, access) {
			return 0, Permission
		}
		if access != Store || (e.pte&PteDirty) != 0 {
			return e.frame | (va & pageMask), None
		}
	}
	return m.walk(va, access)
}

// Walk the two level Sv32 table.
func (m *MMU) walk(va uint32, access Access) (uint32, Fault) {
	root := m.satp & SatpPPN
	if root >= maxPPN {
		return 0, Reserved
	}
	table := root << pageShift

	for level := levels - 1; level >= 0; level-- {
		index := (va >> (pageShift + 10*level)) & vpnMask
		addr := table + (index << 2)

		// Page tables must also lie inside the window.
		if !m.window.Contains(addr) {
			return 0, Isolation
		}

		pte, err := m.mem.GetWord(addr)
		if err {
			return 0, Bus
		}

		if (pte & PteValid) == 0 {
			return 0, Invalid
		}

		if (pte & (PteRead | PteWrite)) == PteWrite {
			return 0, Reserved
		}

		ppn := pte >> ptePPNShift
		if ppn >= maxPPN {
			return 0, Reserved
		}

		// Pointer to next level.
		if (pte & (PteRead | PteWrite | PteExec)) == 0 {
			if (pte & (PteAccessed | PteDirty | PteUser)) != 0 {
				return 0, Reserved
			}
			if level == 0 {
				return 0, Depth
			}
			table = ppn << pageShift
			continue
		}

		if !permitted(pte, access) {
			return 0, Permission
		}

		if level > 0 && (ppn&vpnMask) != 0 {
			return 0, Misaligned
		}

		update := pte | PteAccessed
		if access == Store {
			update |= PteDirty
		}
		if update != pte {
			if m.mem.PutWord(addr, update) {
				return 0, Bus
			}
			m.updated = true
			pte = update
		}

		var pa uint32
		if level > 0 {
			pa = (ppn << pageShift) | (va & superMask)
		} else {
			pa = (ppn << pageShift) | (va & pageMask)
		}

		e := &m.tlb[(va>>pageShift)&(tlbSize-1)]
		e.vpn = va >> pageShift
		e.frame = pa &^ pageMask
		e.pte = pte
		e.valid = true
		return pa, None
	}
	return 0, Depth
}
