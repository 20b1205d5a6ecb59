/*
 * RVLanes - Wall clock timer interrupt source.
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

package timer

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rcornwell/rvlanes/emu/cpu"
	"github.com/rcornwell/rvlanes/emu/master"
)

// Timer posts a timer interrupt to every core each period.
type Timer struct {
	wg      sync.WaitGroup
	running bool // Ticks are delivered.
	master  chan master.Packet
	enable  chan bool          // Enable or disable timer.
	period  chan time.Duration // New tick interval.
	done    chan struct{}      // Stop timer task.
	ticks   atomic.Uint64      // Interrupts delivered.
}

// Create instance of interval timer, stopped.
func NewTimer(masterChannel chan master.Packet, period time.Duration) *Timer {
	timer := &Timer{
		master: masterChannel,
		enable: make(chan bool, 1),
		period: make(chan time.Duration, 1),
		done:   make(chan struct{}),
	}
	timer.wg.Add(1)
	go timer.run(period)
	return timer
}

// Start delivering ticks.
func (timer *Timer) Start() {
	timer.enable <- true
}

// Stop delivering ticks, timer keeps running.
func (timer *Timer) Stop() {
	timer.enable <- false
}

// Change tick interval, takes effect at the next tick.
func (timer *Timer) SetPeriod(period time.Duration) {
	timer.period <- period
}

// Number of interrupts delivered so far.
func (timer *Timer) Ticks() uint64 {
	return timer.ticks.Load()
}

// Shutdown a running timer.
func (timer *Timer) Shutdown() {
	close(timer.done)
	done := make(chan struct{})
	go func() {
		timer.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("Timed out waiting for timer to finish.")
	}
}

// Interval timer routine to send interrupts on master channel.
func (timer *Timer) run(period time.Duration) {
	defer timer.wg.Done()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	tick := master.Packet{Msg: master.Interrupt, Core: -1, Value: cpu.IrqTimer}
	for {
		select {
		case <-ticker.C:
			if !timer.running {
				continue
			}
			// Run loop may be busy, don't hold up shutdown waiting on it.
			select {
			case timer.master <- tick:
				timer.ticks.Add(1)
			case <-timer.done:
				return
			}
		case timer.running = <-timer.enable:
			if timer.running {
				ticker.Reset(period)
			}
		case period = <-timer.period:
			ticker.Reset(period)
			slog.Debug("Timer period", "period", period.String())
		case <-timer.done:
			return
		}
	}
}
