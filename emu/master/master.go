/*
 * RVLanes - Run loop messages.
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

package master

// Msg is a request sent to the run loop.
type Msg int

const (
	Start     Msg = iota // Dispatch batches until stopped.
	Stop                 // Stop dispatching.
	Step                 // Dispatch one batch of Steps.
	Reset                // Reset core.
	Interrupt            // Post interrupt Value on core.
)

// Packet sent to run loop.
type Packet struct {
	Msg   Msg
	Core  int    // Core number, -1 for all.
	Value uint32 // Message argument.
	Steps int    // Steps for Step.
}

func (m Msg) String() string {
	switch m {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case Step:
		return "step"
	case Reset:
		return "reset"
	case Interrupt:
		return "interrupt"
	}
	return "unknown"
}
