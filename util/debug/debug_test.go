/*
 * RVLanes - Debug output test.
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

package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	config "github.com/rcornwell/rvlanes/config/configparser"
)

func TestDebugfMask(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Debugf("CPU", 0x5, 0x2, "not shown %d", 1)
	if buf.Len() != 0 {
		t.Errorf("Debug message written when level not in mask: %q", buf.String())
	}
	Debugf("CPU", 0x5, 0x4, "core %d pc %08x", 3, 0x400)
	if buf.String() != "CPU: core 3 pc 00000400\n" {
		t.Errorf("Debug message wrong got: %q", buf.String())
	}
}

func TestDebugfNoOutput(_ *testing.T) {
	SetOutput(nil)
	Debugf("HOST", 1, 1, "dropped")
}

func TestDebugFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "trace.log")
	err := config.ParseLine("debugfile \"" + name + "\"")
	if err != nil {
		t.Fatalf("Unable to open debug file: %v", err)
	}
	err = config.ParseLine("debugfile \"" + name + "\"")
	if err == nil {
		t.Error("Second debug file did not return error")
	}
	Debugf("MMU", 1, 1, "walk %08x", 0x1000)
	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("Unable to read debug file: %v", err)
	}
	if !strings.Contains(string(data), "MMU: walk 00001000") {
		t.Errorf("Debug file missing message got: %q", string(data))
	}
}
