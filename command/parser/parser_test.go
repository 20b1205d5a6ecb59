/*
 * RVLanes - Console command test.
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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rcornwell/rvlanes/emu/core"
	"github.com/rcornwell/rvlanes/emu/cpu"
	"github.com/rcornwell/rvlanes/emu/host"
	"github.com/rcornwell/rvlanes/emu/master"
	"github.com/rcornwell/rvlanes/emu/mmu"
	"github.com/rcornwell/rvlanes/emu/spatial"
)

func setup(t *testing.T) (*Control, *bytes.Buffer) {
	t.Helper()
	m, err := host.New(host.Config{MemorySize: 64 * 1024, Layout: spatial.Morton, Cores: 2})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return &Control{Machine: m, Out: &out}, &out
}

func run(t *testing.T, ctl *Control, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if _, err := ProcessCommand(line, ctl); err != nil {
			t.Fatalf("Command %q: %v", line, err)
		}
	}
}

func TestMatchCommand(t *testing.T) {
	for _, test := range []struct {
		cmd  string
		want string
	}{
		{"q", ""},
		{"quit", "quit"},
		{"sta", "start"},
		{"ste", "step"},
		{"sh", "show"},
		{"s", ""},
		{"e", "examine"},
		{"stepper", ""},
	} {
		match := matchList(test.cmd)
		got := ""
		if len(match) == 1 {
			got = match[0].Name
		}
		if got != test.want {
			t.Errorf("Match %q got: %q expected: %q", test.cmd, got, test.want)
		}
	}
}

func TestQuit(t *testing.T) {
	ctl, _ := setup(t)
	quit, err := ProcessCommand("quit", ctl)
	if !quit || err != nil {
		t.Errorf("Quit got: %v %v", quit, err)
	}
	quit, err = ProcessCommand("   # comment", ctl)
	if quit || err != nil {
		t.Errorf("Empty line got: %v %v", quit, err)
	}
}

func TestDepositExamine(t *testing.T) {
	ctl, out := setup(t)
	run(t, ctl,
		"deposit 400 64636261 a41",
		"deposit -a 408 ADDI a0,zero,5",
		"examine 400 3",
	)
	want := "00000400 | 64636261 00000A41 00500513 " + strings.Repeat(" ", 9) + "|abcdA.....P.|\n"
	if out.String() != want {
		t.Errorf("Examine got: %q want: %q", out.String(), want)
	}
	out.Reset()
	run(t, ctl, "examine -i 408")
	if out.String() != "00000408 00500513 ADDI    a0,zero,5\n" {
		t.Errorf("Examine -i got: %q", out.String())
	}
}

func TestStepShow(t *testing.T) {
	ctl, out := setup(t)
	run(t, ctl,
		"deposit -a 0 ADDI a0,zero,9",
		"deposit -a 4 HALT",
		"step 1 2",
	)
	if out.String() != "core 1 HALTED pc=00000004 HALT\n" {
		t.Errorf("Step got: %q", out.String())
	}
	out.Reset()
	run(t, ctl, "show 1")
	lines := strings.Split(out.String(), "\n")
	if len(lines) < 4 || !strings.HasPrefix(lines[1], "window=00000000+00000000 satp=00000000 exit=00000009") {
		t.Errorf("Show got: %q", out.String())
	}
	if !strings.Contains(out.String(), "  a0=00000009") {
		t.Errorf("Show registers got: %q", out.String())
	}
	out.Reset()
	run(t, ctl, "show all")
	want := "core 0 RUNNING pc=00000000 ADDI    a0,zero,9\ncore 1 HALTED pc=00000004 HALT\n"
	if out.String() != want {
		t.Errorf("Show all got: %q", out.String())
	}
	out.Reset()
	run(t, ctl, "flags 1")
	if out.String() != "flags=20 halt dirty=0\n" {
		t.Errorf("Flags got: %q", out.String())
	}
}

func TestWindowTranslate(t *testing.T) {
	ctl, out := setup(t)
	run(t, ctl,
		"window 0 1000 100",
		"translate 0 1050",
		"translate 0 2000 store",
	)
	want := "00001050 load -> 00001050\n00002000 store fault isolation\n"
	if out.String() != want {
		t.Errorf("Translate got: %q want: %q", out.String(), want)
	}
}

func TestSatp(t *testing.T) {
	ctl, out := setup(t)
	// Root at 0x2000 maps virtual 0x4000 to 0x5000 through leaf table at 0x3000.
	run(t, ctl,
		fmt.Sprintf("deposit 2000 %x", mmu.MakePTE(3, 0)),
		fmt.Sprintf("deposit 3010 %x", mmu.MakePTE(5, mmu.PteRead)),
		fmt.Sprintf("satp 0 %x", mmu.MakeSatp(0x2000)),
		"translate 0 4010",
		"translate 0 4010 exec",
		"csr 0 satp",
	)
	want := "00004010 load -> 00005010\n00004010 exec fault permission\nsatp=80000002\n"
	if out.String() != want {
		t.Errorf("Satp got: %q want: %q", out.String(), want)
	}
}

func TestCSR(t *testing.T) {
	ctl, out := setup(t)
	run(t, ctl,
		"csr 1 mtvec 200",
		"csr 1 mtvec",
		"csr 1 305",
		"csr 1 mhartid",
	)
	want := "mtvec=00000200\n305=00000200\nmhartid=00000001\n"
	if out.String() != want {
		t.Errorf("CSR got: %q want: %q", out.String(), want)
	}
}

func TestIrq(t *testing.T) {
	ctl, _ := setup(t)
	run(t, ctl, "irq 0 7", "irq 1 11 0")
	mip, _ := ctl.Machine.ReadCSR(0, 0x344)
	if mip != cpu.MTIP {
		t.Errorf("Core 0 mip got: %08x", mip)
	}
	mip, _ = ctl.Machine.ReadCSR(1, 0x344)
	if mip != cpu.MEIP {
		t.Errorf("Core 1 mip got: %08x", mip)
	}
}

func TestRunLoopCommands(t *testing.T) {
	ctl, _ := setup(t)
	if _, err := ProcessCommand("start", ctl); err == nil {
		t.Error("Start without run loop did not fail")
	}
	ctl.Core = core.New(ctl.Machine, make(chan master.Packet), 100)
	go ctl.Core.Start()
	run(t, ctl, "deposit -a 0 HALT", "start", "stop", "irq 0 3", "reset all")
	ctl.Core.Stop()
	for n := range 2 {
		state, _ := ctl.Machine.State(n)
		if state != cpu.Running {
			t.Errorf("Core %d not reset got: %v", n, state)
		}
	}
}

func TestLoadSnapshot(t *testing.T) {
	ctl, _ := setup(t)
	dir := t.TempDir()
	name := filepath.Join(dir, "image.bin")
	if err := os.WriteFile(name, []byte{1, 2, 3, 4}, 0o600); err != nil {
		t.Fatal(err)
	}
	png := filepath.Join(dir, "mem.png")
	run(t, ctl, "load 100 \""+name+"\"", "snapshot \""+png+"\"")
	words, _ := ctl.Machine.ReadMemory(0x100, 1)
	if words[0] != 0x04030201 {
		t.Errorf("Load got: %08x", words[0])
	}
	if info, err := os.Stat(png); err != nil || info.Size() == 0 {
		t.Errorf("Snapshot not written: %v", err)
	}
}

func TestCommandErrors(t *testing.T) {
	ctl, _ := setup(t)
	for _, line := range []string{
		"bogus",
		"s",
		"step 5",
		"step 0 x",
		"window 0 1000",
		"window 0 2 100",
		"satp 0",
		"csr 0 nosuch",
		"csr 0 misa 5",
		"translate 0 1000 write",
		"irq 0 5",
		"examine",
		"examine 400 0",
		"examine -z 400",
		"deposit 400",
		"deposit 400 xyz",
		"deposit -a 400 NOPE",
		"load 0",
		"load 0 \"/nonexistent/file\"",
		"snapshot",
		"flags",
	} {
		if _, err := ProcessCommand(line, ctl); err == nil {
			t.Errorf("Command %q did not return error", line)
		}
	}
}

func TestComplete(t *testing.T) {
	for _, test := range []struct {
		line string
		want []string
	}{
		{"st", []string{"start", "step", "stop"}},
		{"show a", []string{"show all"}},
		{"translate 0 400 e", []string{"translate 0 400 exec"}},
		{"csr 0 mtv", []string{"csr 0 mtvec"}},
		{"deposit -a 400 JAL", []string{"deposit -a 400 JAL", "deposit -a 400 JALR"}},
		{"quit ", nil},
	} {
		got := CompleteCmd(test.line)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Complete %q mismatch (-want +got):\n%s", test.line, diff)
		}
	}
}
