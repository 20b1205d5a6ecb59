/*
 * RVLanes - Machine run loop.
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

package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rcornwell/rvlanes/emu/host"
	"github.com/rcornwell/rvlanes/emu/master"
)

// Default instructions per core per batch.
const DefaultBatch = 10000

type Core struct {
	wg      sync.WaitGroup
	done    chan struct{} // Signal to shutdown simulator.
	running bool          // Indicate when simulator should run or not.
	Master  chan master.Packet
	machine *host.Machine
	batch   int
	ctx     context.Context
	cancel  context.CancelFunc
}

// Create run loop for machine.
func New(machine *host.Machine, master chan master.Packet, batch int) *Core {
	if batch <= 0 {
		batch = DefaultBatch
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Core{
		Master:  master,
		done:    make(chan struct{}),
		machine: machine,
		batch:   batch,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Run loop, dispatch batches while running.
func (core *Core) Start() {
	core.wg.Add(1)
	defer core.wg.Done()
	for {
		if core.running {
			core.dispatch(0, core.machine.Cores()-1, core.batch)
			select {
			case <-core.done:
				return
			case packet := <-core.Master:
				core.processPacket(packet)
			default:
			}
			continue
		}
		select {
		case <-core.done:
			return
		case packet := <-core.Master:
			core.processPacket(packet)
		}
	}
}

// Stop a running loop.
func (core *Core) Stop() {
	slog.Info("Shutting down cores")
	core.cancel()
	close(core.done)
	done := make(chan struct{})
	go func() {
		core.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(time.Second):
		slog.Warn("Timed out waiting for cores to finish.")
		return
	}
}

// Run one batch, stop when every core has halted.
func (core *Core) dispatch(first, last, steps int) {
	batch, err := core.machine.Dispatch(core.ctx, first, last, steps)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error(err.Error())
		}
		core.running = false
		return
	}
	if core.running && batch.Halted == core.machine.Cores() {
		slog.Info("All cores halted")
		core.running = false
	}
}

// Start dispatching.
func (core *Core) SendStart() {
	core.Master <- master.Packet{Msg: master.Start}
}

// Stop dispatching.
func (core *Core) SendStop() {
	core.Master <- master.Packet{Msg: master.Stop}
}

// Run steps on core, -1 for all.
func (core *Core) SendStep(n int, steps int) {
	core.Master <- master.Packet{Msg: master.Step, Core: n, Steps: steps}
}

// Reset core, -1 for all.
func (core *Core) SendReset(n int) {
	core.Master <- master.Packet{Msg: master.Reset, Core: n}
}

// Post interrupt on core, -1 for all.
func (core *Core) SendInterrupt(n int, irq uint32) {
	core.Master <- master.Packet{Msg: master.Interrupt, Core: n, Value: irq}
}

// Process a packet sent to run loop.
func (core *Core) processPacket(packet master.Packet) {
	first, last := packet.Core, packet.Core
	if packet.Core < 0 {
		first, last = 0, core.machine.Cores()-1
	}
	switch packet.Msg {
	case master.Start:
		core.running = true
	case master.Stop:
		core.running = false
	case master.Step:
		core.dispatch(first, last, packet.Steps)
	case master.Reset:
		for n := first; n <= last; n++ {
			if err := core.machine.Reset(n); err != nil {
				slog.Error(err.Error())
				return
			}
		}
	case master.Interrupt:
		for n := first; n <= last; n++ {
			if err := core.machine.PostInterrupt(n, packet.Value); err != nil {
				slog.Error(err.Error())
				return
			}
		}
	default:
		slog.Warn("Unknown packet", "msg", packet.Msg.String())
	}
}
