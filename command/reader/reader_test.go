/*
 * RVLanes - Console reader test.
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

package reader

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rcornwell/rvlanes/command/parser"
	"github.com/rcornwell/rvlanes/emu/host"
	"github.com/rcornwell/rvlanes/emu/spatial"
)

type script struct {
	lines   []string
	history []string
}

func (s *script) Prompt(_ string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

func (s *script) AppendHistory(item string) {
	s.history = append(s.history, item)
}

func newControl(t *testing.T) (*parser.Control, *bytes.Buffer) {
	t.Helper()
	m, err := host.New(host.Config{MemorySize: 4096, Layout: spatial.Linear, Cores: 1})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return &parser.Control{Machine: m, Out: &out}, &out
}

func TestRunQuit(t *testing.T) {
	ctl, out := newControl(t)
	s := &script{lines: []string{"deposit 0 1234", "bogus", "quit", "examine 0"}}
	run(s, ctl)

	want := []string{"deposit 0 1234", "bogus", "quit"}
	if diff := cmp.Diff(want, s.history); diff != "" {
		t.Errorf("History mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out.String(), "Error: command not found: bogus") {
		t.Errorf("Error not reported got: %q", out.String())
	}
	words, _ := ctl.Machine.ReadMemory(0, 1)
	if words[0] != 0x1234 {
		t.Errorf("Deposit not done got: %08x", words[0])
	}
}

func TestRunEOF(t *testing.T) {
	ctl, _ := newControl(t)
	s := &script{lines: []string{"step"}}
	run(s, ctl)
	if len(s.lines) != 0 {
		t.Error("Lines left after end of input")
	}
}
