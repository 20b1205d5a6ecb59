/*
 * RVLanes - Host control interface.
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

package host

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rcornwell/rvlanes/emu/cpu"
	"github.com/rcornwell/rvlanes/emu/event"
	"github.com/rcornwell/rvlanes/emu/memory"
	"github.com/rcornwell/rvlanes/emu/mmu"
	"github.com/rcornwell/rvlanes/emu/spatial"
	"github.com/rcornwell/rvlanes/util/debug"
	"github.com/rcornwell/rvlanes/util/metrics"
)

var (
	ErrNoCore    = errors.New("no such core")
	ErrAlignment = errors.New("address not word aligned")
	ErrRange     = errors.New("value out of range")
	ErrHalted    = errors.New("core is halted")
)

// Steps a core runs before checking for cancel.
const sliceSteps = 1024

// Config describes a machine.
type Config struct {
	MemorySize uint32         // Bytes of guest memory.
	Layout     spatial.Layout // Placement of words in backing store.
	Cores      int            // Number of lanes.
	Workers    int            // Cores run at once, 0 for one per core.
	Metrics    *metrics.Metrics
}

// Result of one core in a batch.
type CoreResult struct {
	Core  int
	Steps int
	State cpu.State
}

// Batch reports what a Dispatch did.
type Batch struct {
	Cores  []CoreResult
	Steps  int // Largest step count of any core.
	Halted int // Cores halted after batch, whole machine.
}

// Machine is a set of cores over one shared memory.
type Machine struct {
	mu      sync.Mutex
	mem     *memory.Memory
	cores   []*cpu.Core
	events  *event.List
	workers int
	metrics *metrics.Metrics
}

const (
	debugBatch = 1 << iota
	debugIrq
)

var debugOption = map[string]int{
	"BATCH": debugBatch,
	"IRQ":   debugIrq,
}

var debugMsk int

// Enable debug options.
func Debug(opt string) error {
	flag, ok := debugOption[opt]
	if !ok {
		return errors.New("host debug option invalid: " + opt)
	}
	debugMsk |= flag
	return nil
}

// Create machine from configuration.
func New(cfg Config) (*Machine, error) {
	if cfg.Cores <= 0 {
		return nil, fmt.Errorf("cores %d: %w", cfg.Cores, ErrRange)
	}
	if cfg.MemorySize == 0 || cfg.MemorySize > memory.MaxSize {
		return nil, fmt.Errorf("memory size %d: %w", cfg.MemorySize, ErrRange)
	}
	if (cfg.MemorySize & 3) != 0 {
		return nil, fmt.Errorf("memory size %d: %w", cfg.MemorySize, ErrAlignment)
	}
	workers := cfg.Workers
	if workers <= 0 || workers > cfg.Cores {
		workers = cfg.Cores
	}
	m := &Machine{
		mem:     memory.New(cfg.MemorySize, cfg.Layout),
		events:  event.NewList(),
		workers: workers,
		metrics: cfg.Metrics,
	}
	m.cores = make([]*cpu.Core, cfg.Cores)
	for i := range m.cores {
		m.cores[i] = cpu.New(i, m.mem)
	}
	slog.Info("Machine created", "cores", cfg.Cores, "memory", cfg.MemorySize,
		"layout", cfg.Layout.String(), "workers", workers)
	return m, nil
}

// Return core or ErrNoCore, caller holds lock.
func (m *Machine) core(n int) (*cpu.Core, error) {
	if n < 0 || n >= len(m.cores) {
		return nil, fmt.Errorf("core %d: %w", n, ErrNoCore)
	}
	return m.cores[n], nil
}

// Return number of cores.
func (m *Machine) Cores() int {
	return len(m.cores)
}

// Return shared memory.
func (m *Machine) Memory() *memory.Memory {
	return m.mem
}

// Set guest isolation window of core.
func (m *Machine) SetWindow(n int, base, size uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return err
	}
	if ((base | size) & 3) != 0 {
		return fmt.Errorf("window %08x+%08x: %w", base, size, ErrAlignment)
	}
	if !c.SetWindow(base, size) {
		return fmt.Errorf("window %08x+%08x: %w", base, size, ErrRange)
	}
	return nil
}

// Set satp of core, flushing its TLB.
func (m *Machine) SetPageTableBase(n int, satp uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return err
	}
	if (satp & mmu.SatpMode) != 0 {
		root := uint64(satp&mmu.SatpPPN) << memory.PageShift
		if root >= uint64(m.mem.GetSize()) {
			return fmt.Errorf("page table %09x: %w", root, ErrRange)
		}
	}
	c.SetSatp(satp)
	return nil
}

// Copy image into memory at offset.
func (m *Machine) LoadImage(offset uint32, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.mem.Load(offset, data); err != nil {
		return fmt.Errorf("image at %08x length %d: %w", offset, len(data), ErrRange)
	}
	return nil
}

// Read file into memory at offset.
func (m *Machine) LoadFile(offset uint32, name string) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	if err := m.LoadImage(offset, data); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	slog.Info("Loaded image", "file", name, "offset", fmt.Sprintf("%08x", offset), "bytes", len(data))
	return nil
}

// Set registers and PC of core.
func (m *Machine) LoadRegisters(n int, regs []uint32, pc uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return err
	}
	if len(regs) > 32 {
		return fmt.Errorf("%d registers: %w", len(regs), ErrRange)
	}
	if (pc & 3) != 0 {
		return fmt.Errorf("pc %08x: %w", pc, ErrAlignment)
	}
	c.LoadRegisters(regs, pc)
	return nil
}

// Run cores first through last for up to steps instructions each.
func (m *Machine) Dispatch(ctx context.Context, first, last, steps int) (Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var batch Batch
	if first < 0 || last >= len(m.cores) || first > last {
		return batch, fmt.Errorf("cores %d-%d: %w", first, last, ErrNoCore)
	}
	if steps < 0 {
		return batch, fmt.Errorf("steps %d: %w", steps, ErrRange)
	}

	batch.Cores = make([]CoreResult, last-first+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i := range batch.Cores {
		c := m.cores[first+i]
		res := &batch.Cores[i]
		res.Core = first + i
		res.State = c.State()
		if res.State == cpu.Halted {
			continue
		}
		g.Go(func() error {
			remaining := steps
			for remaining > 0 {
				if err := gctx.Err(); err != nil {
					return err
				}
				done, state := c.Run(min(remaining, sliceSteps))
				res.Steps += done
				res.State = state
				remaining -= done
				if state == cpu.Halted {
					break
				}
			}
			return nil
		})
	}
	err := g.Wait()

	for _, res := range batch.Cores {
		batch.Steps = max(batch.Steps, res.Steps)
	}
	m.events.Advance(batch.Steps)
	for _, c := range m.cores {
		if c.State() == cpu.Halted {
			batch.Halted++
		}
		if m.metrics != nil {
			s := c.TakeStats()
			m.metrics.Record(c.ID, s.Instructions, s.Traps[:], s.Interrupts)
		}
	}
	m.metrics.Batch(batch.Halted)
	if (debugMsk & debugBatch) != 0 {
		debug.Debugf("HOST", debugMsk, debugBatch, "batch cores %d-%d steps %d ran %d halted %d",
			first, last, steps, batch.Steps, batch.Halted)
	}
	return batch, err
}

// Run one core for up to steps instructions.
func (m *Machine) Step(ctx context.Context, n int, steps int) (int, error) {
	m.mu.Lock()
	c, err := m.core(n)
	if err == nil && c.State() == cpu.Halted {
		err = fmt.Errorf("core %d: %w", n, ErrHalted)
	}
	m.mu.Unlock()
	if err != nil {
		return 0, err
	}
	batch, err := m.Dispatch(ctx, n, n, steps)
	if len(batch.Cores) == 0 {
		return 0, err
	}
	return batch.Cores[0].Steps, err
}

// Read CSR of core.
func (m *Machine) ReadCSR(n int, addr uint32) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return 0, err
	}
	v, ok := c.ReadCSR(addr)
	if !ok {
		return 0, fmt.Errorf("csr %03x: %w", addr, ErrRange)
	}
	return v, nil
}

// Write CSR of core.
func (m *Machine) WriteCSR(n int, addr uint32, value uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return err
	}
	if !c.WriteCSR(addr, value) {
		return fmt.Errorf("csr %03x value %08x: %w", addr, value, ErrRange)
	}
	return nil
}

// Return and clear sticky flags of core.
func (m *Machine) ReadStickyFlags(n int) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return 0, err
	}
	return c.TakeSticky(), nil
}

// Return and clear pages written by core.
func (m *Machine) DirtyPages(n int) ([]uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return nil, err
	}
	return c.TakeDirtyPages(), nil
}

// Return and clear pages changed by anyone, host loads included.
func (m *Machine) ChangedPages() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mem.TakeChangedPages()
}

// Return state of core.
func (m *Machine) State(n int) (cpu.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return cpu.Halted, err
	}
	return c.State(), nil
}

// Return exit code core gave to HALT.
func (m *Machine) ExitCode(n int) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return 0, err
	}
	return c.ExitCode(), nil
}

// Return register file of core.
func (m *Machine) Registers(n int) ([32]uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return [32]uint32{}, err
	}
	return c.Registers(), nil
}

// Return program counter of core.
func (m *Machine) PC(n int) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return 0, err
	}
	return c.PC, nil
}

// Reset core and drop its scheduled events.
func (m *Machine) Reset(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return err
	}
	m.events.CancelKey(n)
	c.Reset()
	return nil
}

// Translate address as core would, without trapping.
func (m *Machine) Translate(n int, va uint32, access mmu.Access) (uint32, mmu.Fault, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return 0, mmu.None, err
	}
	pa, fault := c.Translate(va, access)
	return pa, fault, nil
}

// Set interrupt pending on core.
func (m *Machine) PostInterrupt(n int, irq uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return err
	}
	if !c.PostInterrupt(irq) {
		return fmt.Errorf("interrupt %d: %w", irq, ErrRange)
	}
	return nil
}

// Post interrupt on core after delay steps of dispatch.
func (m *Machine) ScheduleInterrupt(n int, irq uint32, delay int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.core(n)
	if err != nil {
		return err
	}
	if irq != cpu.IrqSoftware && irq != cpu.IrqTimer && irq != cpu.IrqExternal {
		return fmt.Errorf("interrupt %d: %w", irq, ErrRange)
	}
	m.events.AddEvent(n, func(iarg int) {
		if (debugMsk & debugIrq) != 0 {
			debug.Debugf("HOST", debugMsk, debugIrq, "core %d interrupt %d at %d", n, iarg,
				m.events.Now())
		}
		c.PostInterrupt(uint32(iarg))
	}, delay, int(irq))
	return nil
}

// Read words of physical memory starting at addr, page bits untouched.
func (m *Machine) ReadMemory(addr uint32, words int) ([]uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if (addr & 3) != 0 {
		return nil, fmt.Errorf("address %08x: %w", addr, ErrAlignment)
	}
	raw, err := m.mem.Dump(addr, 4*words)
	if err != nil {
		return nil, fmt.Errorf("address %08x length %d: %w", addr, words, ErrRange)
	}
	data := make([]uint32, words)
	for i := range data {
		data[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return data, nil
}

// Write word of physical memory.
func (m *Machine) WriteMemory(addr uint32, value uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if (addr & 3) != 0 {
		return fmt.Errorf("address %08x: %w", addr, ErrAlignment)
	}
	if m.mem.PutWord(addr, value) {
		return fmt.Errorf("address %08x: %w", addr, ErrRange)
	}
	return nil
}

// Write PNG of backing store.
func (m *Machine) Snapshot(w io.Writer) error {
	m.mu.Lock()
	img := m.mem.Image()
	m.mu.Unlock()
	return png.Encode(w, img)
}
