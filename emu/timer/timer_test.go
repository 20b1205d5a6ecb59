/*
 * RVLanes - Timer test.
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
	"testing"
	"time"

	"github.com/rcornwell/rvlanes/emu/cpu"
	"github.com/rcornwell/rvlanes/emu/master"
)

// Count ticks received over a period.
func collect(t *testing.T, ch chan master.Packet, d time.Duration) int {
	t.Helper()
	count := 0
	end := time.After(d)
	for {
		select {
		case v := <-ch:
			if v.Msg != master.Interrupt || v.Core != -1 || v.Value != cpu.IrqTimer {
				t.Errorf("Did not receive timer interrupt got: %+v", v)
			}
			count++
		case <-end:
			return count
		}
	}
}

func TestTimer(t *testing.T) {
	masterChannel := make(chan master.Packet)
	timer := NewTimer(masterChannel, 10*time.Millisecond)
	defer timer.Shutdown()

	if n := collect(t, masterChannel, 50*time.Millisecond); n != 0 {
		t.Errorf("Ticks before start got: %d", n)
	}

	timer.Start()
	n := collect(t, masterChannel, 500*time.Millisecond)
	if n < 35 || n > 55 {
		t.Errorf("Expected about 50 ticks in 1/2 second got: %d", n)
	}

	// Count is bumped just after the receive completes.
	if got := timer.Ticks(); got > uint64(n) || got+1 < uint64(n) {
		t.Errorf("Ticks delivered got: %d received: %d", timer.Ticks(), n)
	}

	timer.SetPeriod(50 * time.Millisecond)
	n = collect(t, masterChannel, 500*time.Millisecond)
	if n < 6 || n > 12 {
		t.Errorf("Expected about 10 ticks after period change got: %d", n)
	}

	timer.Stop()
	// Allow a tick already in flight.
	if n := collect(t, masterChannel, 100*time.Millisecond); n > 1 {
		t.Errorf("Ticks after stop got: %d", n)
	}
}

// Shutdown must not hang on a run loop that never reads.
func TestShutdownBlocked(t *testing.T) {
	timer := NewTimer(make(chan master.Packet), time.Millisecond)
	timer.Start()
	time.Sleep(20 * time.Millisecond)
	start := time.Now()
	timer.Shutdown()
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Shutdown waited on blocked send")
	}
}
