/*
 * RVLanes - CPU definitions.
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
	"github.com/rcornwell/rvlanes/emu/memory"
	"github.com/rcornwell/rvlanes/emu/mmu"
)

// State of a core.
type State int

const (
	Running State = iota // Executing guest code.
	Trapped              // Running a trap handler.
	Halted               // Stopped until reset.
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Trapped:
		return "TRAPPED"
	case Halted:
		return "HALTED"
	}
	return "UNKNOWN"
}

type stepInfo struct {
	inst   uint32 // Instruction word
	opcode uint8  // Major opcode
	rd     uint8  // Destination register
	rs1    uint8  // First source register
	rs2    uint8  // Second source register
	funct3 uint8  // Minor opcode
	funct7 uint8  // Upper opcode bits
	src1   uint32 // Value of rs1
	src2   uint32 // Value of rs2
	nextPC uint32 // PC after instruction
	tval   uint32 // Trap value if instruction faults
}

// Stats counted since last read by host.
type Stats struct {
	Instructions uint64
	Traps        [16]uint64 // Synchronous traps by cause.
	Interrupts   uint64
}

// Core is one lane of execution.
type Core struct {
	ID       int
	PC       uint32     // Program counter
	regs     [32]uint32 // General registers
	csr      [numCSR]uint32
	state    State
	exitCode uint32
	cycles   uint64
	instret  uint64
	mem      *memory.Memory
	mmu      *mmu.MMU
	dirty    []uint64 // Pages written since last read.
	stats    Stats
	table    [32]func(*stepInfo) uint16
}

const (
	// Debug options.
	debugInst = 1 << iota
	debugTrap
	debugCSR
	debugMMU
)

var debugOption = map[string]int{
	"INST": debugInst,
	"TRAP": debugTrap,
	"CSR":  debugCSR,
	"MMU":  debugMMU,
}

var debugMsk int

const (
	// Interruption codes, cause plus one.
	ircInstMisaligned  uint16 = 0x0001 // Instruction address misaligned
	ircInstAccess      uint16 = 0x0002 // Instruction access fault
	ircIllegal         uint16 = 0x0003 // Illegal instruction
	ircBreak           uint16 = 0x0004 // Breakpoint
	ircLoadMisaligned  uint16 = 0x0005 // Load address misaligned
	ircLoadAccess      uint16 = 0x0006 // Load access fault
	ircStoreMisaligned uint16 = 0x0007 // Store address misaligned
	ircStoreAccess     uint16 = 0x0008 // Store access fault
	ircEcall           uint16 = 0x000c // Environment call from M mode
	ircInstPage        uint16 = 0x000d // Instruction page fault
	ircLoadPage        uint16 = 0x000e // Load page fault
	ircStorePage       uint16 = 0x0010 // Store page fault

	// Exception causes as reported in mcause.
	CauseInstMisaligned  uint32 = 0
	CauseInstAccess      uint32 = 1
	CauseIllegal         uint32 = 2
	CauseBreak           uint32 = 3
	CauseLoadMisaligned  uint32 = 4
	CauseLoadAccess      uint32 = 5
	CauseStoreMisaligned uint32 = 6
	CauseStoreAccess     uint32 = 7
	CauseEcall           uint32 = 11
	CauseInstPage        uint32 = 12
	CauseLoadPage        uint32 = 13
	CauseStorePage       uint32 = 15

	CauseInterrupt uint32 = 0x80000000

	// Interrupt numbers, bit in mie/mip.
	IrqSoftware uint32 = 3
	IrqTimer    uint32 = 7
	IrqExternal uint32 = 11

	MSIP uint32 = 1 << IrqSoftware
	MTIP uint32 = 1 << IrqTimer
	MEIP uint32 = 1 << IrqExternal

	irqMask = MSIP | MTIP | MEIP

	// mstatus bits.
	statusMIE  uint32 = 0x00000008
	statusMPIE uint32 = 0x00000080
	statusMPP  uint32 = 0x00001800

	statusMask = statusMIE | statusMPIE | statusMPP

	// RV32I in misa.
	misaValue uint32 = 0x40000100

	// Sticky flag bits.
	FlagStore    uint32 = 0x01 // Store completed.
	FlagPTE      uint32 = 0x02 // Page table entry updated.
	FlagTLBFlush uint32 = 0x04 // Translation cache flushed.
	FlagICache   uint32 = 0x08 // FENCE.I executed.
	FlagTrap     uint32 = 0x10 // Trap taken.
	FlagHalt     uint32 = 0x20 // Core halted.

	// Mask constants
	signBit uint32 = 0x80000000
	byteMsk uint32 = 0x000000ff
	halfMsk uint32 = 0x0000ffff
)
