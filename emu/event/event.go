/*
 * RVLanes - Timed event list.
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

// Events are kept in a delta list. Each event holds the number of steps
// after the event before it, so Advance only touches the head.

type Callback = func(iarg int)

type Event struct {
	time int      // Steps after previous event
	key  int      // Owner of event, core number
	cb   Callback // Function to callback
	iarg int      // Integer argument
	prev *Event
	next *Event
}

// List of pending events for one machine.
type List struct {
	head *Event
	tail *Event
	now  uint64 // Steps advanced since creation.
}

// Create empty event list.
func NewList() *List {
	return &List{}
}

// Add an event time steps from now.
func (el *List) AddEvent(key int, cb Callback, time int, iarg int) {
	// If time is 0 process event immediately
	if time <= 0 {
		cb(iarg)
		return
	}

	ev := &Event{key: key, cb: cb, time: time, iarg: iarg}

	evptr := el.head
	// If empty put on head
	if evptr == nil {
		el.head = ev
		el.tail = ev
		return
	}

	// Scan for place to install it
	for evptr != nil {
		// Event before next event
		if ev.time < evptr.time {
			// Remove current time from next time
			evptr.time -= ev.time
			ev.prev = evptr.prev
			ev.next = evptr
			evptr.prev = ev
			if ev.prev != nil {
				ev.prev.next = ev
			} else {
				el.head = ev
			}
			return
		}
		// Make new event relative to previous event
		ev.time -= evptr.time
		evptr = evptr.next
	}

	// Get here, put it on tail of list
	ev.prev = el.tail
	el.tail.next = ev
	el.tail = ev
}

// Remove first event matching key and iarg.
func (el *List) CancelEvent(key int, iarg int) bool {
	for evptr := el.head; evptr != nil; evptr = evptr.next {
		if evptr.key != key || evptr.iarg != iarg {
			continue
		}
		el.remove(evptr)
		return true
	}
	return false
}

// Remove every event belonging to key.
func (el *List) CancelKey(key int) {
	evptr := el.head
	for evptr != nil {
		nxt := evptr.next
		if evptr.key == key {
			el.remove(evptr)
		}
		evptr = nxt
	}
}

// Unlink event, give its time to the next one.
func (el *List) remove(evptr *Event) {
	nxt := evptr.next
	if nxt != nil {
		nxt.time += evptr.time
		nxt.prev = evptr.prev
	} else {
		el.tail = evptr.prev
	}

	if evptr.prev != nil {
		evptr.prev.next = nxt
	} else {
		el.head = nxt
	}
	evptr.prev = nil
	evptr.next = nil
}

// Advance time by t steps, fire everything that came due.
func (el *List) Advance(t int) {
	el.now += uint64(t)
	evptr := el.head
	if evptr == nil {
		return
	}
	evptr.time -= t
	for evptr != nil && evptr.time <= 0 {
		over := -evptr.time
		el.head = evptr.next
		if el.head != nil {
			el.head.prev = nil
			el.head.time -= over
		} else {
			el.tail = nil
		}
		evptr.next = nil
		evptr.cb(evptr.iarg)
		evptr = el.head
	}
}

// Return number of pending events.
func (el *List) Len() int {
	n := 0
	for evptr := el.head; evptr != nil; evptr = evptr.next {
		n++
	}
	return n
}

// Return steps advanced so far.
func (el *List) Now() uint64 {
	return el.now
}
