/*
 * RVLanes - Console commands.
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

package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rcornwell/rvlanes/emu/cpu"
	"github.com/rcornwell/rvlanes/emu/disassemble"
	"github.com/rcornwell/rvlanes/emu/mmu"
	op "github.com/rcornwell/rvlanes/emu/opcodemap"
)

var cmdList = []cmd{
	{Name: "quit", Min: 4, Process: quit},
	{Name: "stop", Min: 3, Process: stop},
	{Name: "continue", Min: 2, Process: start},
	{Name: "start", Min: 3, Process: start},
	{Name: "step", Min: 3, Process: step},
	{Name: "show", Min: 2, Process: show, Complete: func(line *cmdLine) []string {
		return line.completeLast([]string{"all"})
	}},
	{Name: "examine", Min: 1, Process: examine},
	{Name: "deposit", Min: 1, Process: deposit, Complete: depositComplete},
	{Name: "reset", Min: 5, Process: reset, Complete: func(line *cmdLine) []string {
		return line.completeLast([]string{"all"})
	}},
	{Name: "window", Min: 1, Process: window},
	{Name: "satp", Min: 2, Process: satp},
	{Name: "csr", Min: 2, Process: csr, Complete: csrComplete},
	{Name: "flags", Min: 1, Process: flags},
	{Name: "translate", Min: 2, Process: translate, Complete: func(line *cmdLine) []string {
		return line.completeLast([]string{"load", "store", "exec"})
	}},
	{Name: "irq", Min: 1, Process: irq},
	{Name: "load", Min: 1, Process: load},
	{Name: "snapshot", Min: 2, Process: snapshot},
}

var errNoRunLoop = errors.New("machine run loop not started")

var flagNames = []struct {
	flag uint32
	name string
}{
	{cpu.FlagStore, "store"},
	{cpu.FlagPTE, "pte"},
	{cpu.FlagTLBFlush, "tlbflush"},
	{cpu.FlagICache, "icache"},
	{cpu.FlagTrap, "trap"},
	{cpu.FlagHalt, "halt"},
}

// Handle commands that quit simulation.
func quit(_ *cmdLine, _ *Control) (bool, error) {
	slog.Debug("Command Quit")
	return true, nil
}

// Stop the cores.
func stop(_ *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Stop")
	if ctl.Core == nil {
		return false, errNoRunLoop
	}
	ctl.Core.SendStop()
	return false, nil
}

// Start the cores.
func start(_ *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Start")
	if ctl.Core == nil {
		return false, errNoRunLoop
	}
	ctl.Core.SendStart()
	return false, nil
}

// Print PC, state and next instruction of core.
func (ctl *Control) showPC(n int) error {
	pc, err := ctl.Machine.PC(n)
	if err != nil {
		return err
	}
	state, _ := ctl.Machine.State(n)
	text := ""
	pa, fault, _ := ctl.Machine.Translate(n, pc, mmu.Exec)
	if fault == mmu.None {
		if words, err := ctl.Machine.ReadMemory(pa, 1); err == nil {
			text = disassemble.Disassemble(words[0])
		}
	} else {
		text = "fetch " + fault.String()
	}
	fmt.Fprintf(ctl.Out, "core %d %s pc=%08x %s\n", n, state, pc, text)
	return nil
}

// Step core or all cores, count is decimal.
func step(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Step")
	n, err := line.getCoreOrAll(ctl)
	if err != nil {
		return false, err
	}
	count := uint32(1)
	if !line.atEnd() {
		count, err = line.getNumber()
		if err != nil {
			return false, errors.New("step count must be decimal number")
		}
	}
	if !line.atEnd() {
		return false, errors.New("step takes core and count")
	}

	ctx := context.Background()
	if n >= 0 {
		_, err = ctl.Machine.Step(ctx, n, int(count))
		if err != nil {
			return false, err
		}
		return false, ctl.showPC(n)
	}

	batch, err := ctl.Machine.Dispatch(ctx, 0, ctl.Machine.Cores()-1, int(count))
	if err != nil {
		return false, err
	}
	for _, res := range batch.Cores {
		if err := ctl.showPC(res.Core); err != nil {
			return false, err
		}
	}
	return false, nil
}

// Reset core or all cores.
func reset(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Reset")
	n, err := line.getCoreOrAll(ctl)
	if err != nil {
		return false, err
	}
	if ctl.Core == nil {
		return false, errNoRunLoop
	}
	ctl.Core.SendReset(n)
	return false, nil
}

// Show core state or summary of all cores.
func show(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Show")
	n, err := line.getCoreOrAll(ctl)
	if err != nil {
		return false, err
	}
	if n < 0 {
		for i := range ctl.Machine.Cores() {
			if err := ctl.showPC(i); err != nil {
				return false, err
			}
		}
		return false, nil
	}

	if err := ctl.showPC(n); err != nil {
		return false, err
	}
	code, _ := ctl.Machine.ExitCode(n)
	base, _ := ctl.Machine.ReadCSR(n, op.CSRGuestBase)
	size, _ := ctl.Machine.ReadCSR(n, op.CSRGuestSize)
	satp, _ := ctl.Machine.ReadCSR(n, op.CSRSatp)
	cause, _ := ctl.Machine.ReadCSR(n, op.CSRMcause)
	epc, _ := ctl.Machine.ReadCSR(n, op.CSRMepc)
	tval, _ := ctl.Machine.ReadCSR(n, op.CSRMtval)
	fmt.Fprintf(ctl.Out, "window=%08x+%08x satp=%08x exit=%08x\n", base, size, satp, code)
	fmt.Fprintf(ctl.Out, "mcause=%08x mepc=%08x mtval=%08x\n", cause, epc, tval)

	regs, _ := ctl.Machine.Registers(n)
	var str strings.Builder
	for i, r := range regs {
		fmt.Fprintf(&str, "%4s=%08x", op.RegNames[i], r)
		if (i & 3) == 3 {
			str.WriteByte('\n')
		} else {
			str.WriteByte(' ')
		}
	}
	fmt.Fprint(ctl.Out, str.String())
	return false, nil
}

// Set isolation window: window core base size.
func window(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Window")
	n, err := line.getCore(ctl)
	if err != nil {
		return false, err
	}
	base, err := line.getHex()
	if err != nil {
		return false, errors.New("window base must be hex number")
	}
	size, err := line.getHex()
	if err != nil || !line.atEnd() {
		return false, errors.New("window size must be hex number")
	}
	return false, ctl.Machine.SetWindow(n, base, size)
}

// Set page table base: satp core value.
func satp(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Satp")
	n, err := line.getCore(ctl)
	if err != nil {
		return false, err
	}
	value, err := line.getHex()
	if err != nil || !line.atEnd() {
		return false, errors.New("satp value must be hex number")
	}
	return false, ctl.Machine.SetPageTableBase(n, value)
}

// Read or write CSR: csr core name [value].
func csr(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command CSR")
	n, err := line.getCore(ctl)
	if err != nil {
		return false, err
	}
	pos := line.pos
	name := line.getWord()
	num, ok := op.CSRNumber(name)
	if !ok {
		line.pos = pos
		num, err = line.getHex()
		if err != nil {
			return false, errors.New("csr name or number expected")
		}
		name = fmt.Sprintf("%03x", num)
	}
	if !line.atEnd() {
		value, err := line.getHex()
		if err != nil || !line.atEnd() {
			return false, errors.New("csr value must be hex number")
		}
		return false, ctl.Machine.WriteCSR(n, num, value)
	}
	value, err := ctl.Machine.ReadCSR(n, num)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(ctl.Out, "%s=%08x\n", name, value)
	return false, nil
}

// Complete CSR names.
func csrComplete(line *cmdLine) []string {
	names := make([]string, 0, len(op.CSRNames))
	for _, name := range op.CSRNames {
		names = append(names, name)
	}
	return line.completeLast(names)
}

// Read and clear sticky flags: flags core.
func flags(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Flags")
	n, err := line.getCore(ctl)
	if err != nil {
		return false, err
	}
	value, err := ctl.Machine.ReadStickyFlags(n)
	if err != nil {
		return false, err
	}
	names := []string{}
	for _, f := range flagNames {
		if (value & f.flag) != 0 {
			names = append(names, f.name)
		}
	}
	pages, _ := ctl.Machine.DirtyPages(n)
	fmt.Fprintf(ctl.Out, "flags=%02x %s dirty=%d\n", value, strings.Join(names, ","), len(pages))
	return false, nil
}

// Translate address: translate core va [load|store|exec].
func translate(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Translate")
	n, err := line.getCore(ctl)
	if err != nil {
		return false, err
	}
	va, err := line.getHex()
	if err != nil {
		return false, errors.New("virtual address must be hex number")
	}
	access := mmu.Load
	if !line.atEnd() {
		switch line.getWord() {
		case "load":
		case "store":
			access = mmu.Store
		case "exec":
			access = mmu.Exec
		default:
			return false, errors.New("access must be load, store or exec")
		}
	}
	pa, fault, err := ctl.Machine.Translate(n, va, access)
	if err != nil {
		return false, err
	}
	if fault != mmu.None {
		fmt.Fprintf(ctl.Out, "%08x %s fault %s\n", va, access, fault)
		return false, nil
	}
	fmt.Fprintf(ctl.Out, "%08x %s -> %08x\n", va, access, pa)
	return false, nil
}

// Post interrupt: irq core number [delay]. Number and delay are decimal.
func irq(line *cmdLine, ctl *Control) (bool, error) {
	slog.Debug("Command Irq")
	n, err := line.getCore(ctl)
	if err != nil {
		return false, err
	}
	num, err := line.getNumber()
	if err != nil {
		return false, errors.New("interrupt number must be decimal")
	}
	if line.atEnd() {
		if num != cpu.IrqSoftware && num != cpu.IrqTimer && num != cpu.IrqExternal {
			return false, fmt.Errorf("interrupt %d not valid", num)
		}
		if ctl.Core == nil {
			return false, ctl.Machine.PostInterrupt(n, num)
		}
		ctl.Core.SendInterrupt(n, num)
		return false, nil
	}
	delay, err := line.getNumber()
	if err != nil || !line.atEnd() {
		return false, errors.New("interrupt delay must be decimal")
	}
	return false, ctl.Machine.ScheduleInterrupt(n, num, int(delay))
}
