/*
 * RVLanes - Timed event list tests.
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

package event

import (
	"testing"
)

var stepCount uint64

var list *List

type lane struct {
	key  int
	iarg int
	time uint64
}

var (
	laneA = &lane{key: 0}
	laneB = &lane{key: 1}
	laneC = &lane{key: 2}
	laneD = &lane{key: 3}
)

// Callbacks, save step count in routine time and set argument to iarg.
func (l *lane) callback(iarg int) {
	l.iarg = iarg
	l.time = stepCount
}

// Callback that schedules another event for lane A.
func (l *lane) chainCallback(iarg int) {
	l.iarg = iarg
	l.time = stepCount
	list.AddEvent(laneA.key, laneA.callback, iarg, iarg)
}

// Initialize for each test.
func initTest() {
	stepCount = 0
	list = NewList()
	for _, l := range []*lane{laneA, laneB, laneC, laneD} {
		l.time = 0
		l.iarg = 0
	}
}

func run(steps int, each func()) {
	for range steps {
		stepCount++
		list.Advance(1)
		if each != nil {
			each()
		}
	}
}

func TestAddEvent1(t *testing.T) {
	initTest()
	list.AddEvent(laneA.key, laneA.callback, 10, 1)
	run(20, nil)
	if laneA.time != 10 {
		t.Errorf("Event did not fire at correct time %d got %d", 10, laneA.time)
	}
	if laneA.iarg != 1 {
		t.Errorf("Event did not set data correct %d got %d", 1, laneA.iarg)
	}
	if list.Len() != 0 {
		t.Errorf("List not empty got %d", list.Len())
	}
}

// Add two events.
func TestAddEvent2(t *testing.T) {
	initTest()
	list.AddEvent(laneA.key, laneA.callback, 10, 1)
	list.AddEvent(laneB.key, laneB.callback, 5, 2)
	run(20, nil)
	if laneA.time != 10 {
		t.Errorf("Event A did not fire at correct time %d got %d", 10, laneA.time)
	}
	if laneA.iarg != 1 {
		t.Errorf("Event A did not set data correct %d got %d", 1, laneA.iarg)
	}
	if laneB.time != 5 {
		t.Errorf("Event B did not fire at correct time %d got %d", 5, laneB.time)
	}
	if laneB.iarg != 2 {
		t.Errorf("Event B did not set data correct %d got %d", 2, laneB.iarg)
	}
}

// Add event With same time.
func TestAddEvent3(t *testing.T) {
	initTest()
	list.AddEvent(laneA.key, laneA.callback, 10, 1)
	list.AddEvent(laneB.key, laneB.callback, 10, 2)
	run(20, nil)
	if laneA.time != 10 {
		t.Errorf("Event A did not fire at correct time %d got %d", 10, laneA.time)
	}
	if laneB.time != 10 {
		t.Errorf("Event B did not fire at correct time %d got %d", 10, laneB.time)
	}
	if laneA.iarg != 1 || laneB.iarg != 2 {
		t.Errorf("Events did not set data correct got %d %d", laneA.iarg, laneB.iarg)
	}
}

// Add event during event.
func TestAddEvent4(t *testing.T) {
	initTest()
	list.AddEvent(laneA.key, laneA.callback, 20, 5)
	list.AddEvent(laneC.key, laneC.chainCallback, 10, 2)
	fired := uint64(0)
	run(30, func() {
		if laneA.iarg == 2 && fired == 0 {
			fired = laneA.time
		}
	})
	if fired != 12 {
		t.Errorf("Chained event did not fire at correct time %d got %d", 12, fired)
	}
	if laneA.time != 20 {
		t.Errorf("Event A did not fire at correct time %d got %d", 20, laneA.time)
	}
	if laneA.iarg != 5 {
		t.Errorf("Event A did not set data correct %d got %d", 5, laneA.iarg)
	}
	if laneC.time != 10 {
		t.Errorf("Event C did not fire at correct time %d got %d", 10, laneC.time)
	}
}

// Schedule 3 events, last one before first, make sure all are correct.
func TestAddEvent5(t *testing.T) {
	initTest()
	list.AddEvent(laneA.key, laneA.callback, 20, 1)
	list.AddEvent(laneB.key, laneB.callback, 20, 2)
	list.AddEvent(laneD.key, laneD.callback, 25, 3)
	run(30, nil)
	if laneA.time != 20 {
		t.Errorf("Event A did not fire at correct time %d got %d", 20, laneA.time)
	}
	if laneB.time != 20 {
		t.Errorf("Event B did not fire at correct time %d got %d", 20, laneB.time)
	}
	if laneD.time != 25 {
		t.Errorf("Event D did not fire at correct time %d got %d", 25, laneD.time)
	}
	if laneD.iarg != 3 {
		t.Errorf("Event D did not set data correct %d got %d", 3, laneD.iarg)
	}
}

// Schedule 4 events, cancel two while events in queue.
func TestCancelEvent(t *testing.T) {
	initTest()
	list.AddEvent(laneA.key, laneA.callback, 10, 5)
	list.AddEvent(laneB.key, laneB.callback, 40, 2)
	list.AddEvent(laneD.key, laneD.callback, 30, 3)
	list.AddEvent(laneD.key, laneD.callback, 50, 4)
	run(60, func() {
		if laneA.iarg == 5 {
			list.CancelEvent(laneB.key, 2)
			list.CancelEvent(laneD.key, 4)
		}
	})
	if laneA.time != 10 {
		t.Errorf("Event A did not fire at correct time %d got %d", 10, laneA.time)
	}
	if laneB.time != 0 || laneB.iarg != 0 {
		t.Errorf("Event B was not canceled got %d %d", laneB.time, laneB.iarg)
	}
	if laneD.time != 30 {
		t.Errorf("Event D did not fire at correct time %d got %d", 30, laneD.time)
	}
	if laneD.iarg != 3 {
		t.Errorf("Event D did not set data correct %d got %d", 3, laneD.iarg)
	}
	if list.CancelEvent(laneB.key, 2) {
		t.Error("Cancel of missing event returned true")
	}
}

// Cancel every event of one key.
func TestCancelKey(t *testing.T) {
	initTest()
	list.AddEvent(laneA.key, laneA.callback, 10, 1)
	list.AddEvent(laneB.key, laneB.callback, 20, 2)
	list.AddEvent(laneA.key, laneA.callback, 30, 3)
	list.CancelKey(laneA.key)
	if list.Len() != 1 {
		t.Errorf("Events left got %d wanted %d", list.Len(), 1)
	}
	run(40, nil)
	if laneA.time != 0 {
		t.Errorf("Event A was not canceled got %d", laneA.time)
	}
	if laneB.time != 20 {
		t.Errorf("Event B did not fire at correct time %d got %d", 20, laneB.time)
	}
}

// Advance by more than one step fires everything due.
func TestAdvanceBatch(t *testing.T) {
	initTest()
	list.AddEvent(laneA.key, laneA.callback, 10, 1)
	list.AddEvent(laneB.key, laneB.callback, 1500, 2)
	list.AddEvent(laneC.key, laneC.callback, 2100, 3)
	list.Advance(1024)
	if laneA.iarg != 1 || laneB.iarg != 0 {
		t.Errorf("After first batch got A=%d B=%d wanted A=%d B=%d", laneA.iarg, laneB.iarg, 1, 0)
	}
	list.Advance(1024)
	if laneB.iarg != 2 || laneC.iarg != 0 {
		t.Errorf("After second batch got B=%d C=%d wanted B=%d C=%d", laneB.iarg, laneC.iarg, 2, 0)
	}
	list.Advance(100)
	if laneC.iarg != 3 {
		t.Errorf("After third batch got C=%d wanted C=%d", laneC.iarg, 3)
	}
	if list.Now() != 2148 {
		t.Errorf("Now got %d wanted %d", list.Now(), 2148)
	}
}

// Test event at zero units.
func TestAddEventZero(t *testing.T) {
	initTest()
	list.AddEvent(laneA.key, laneA.callback, 0, 5)
	if laneA.iarg != 5 {
		t.Errorf("Event A did not set data correct %d got %d", 5, laneA.iarg)
	}
	if list.Len() != 0 {
		t.Errorf("Zero time event queued got %d", list.Len())
	}
}
