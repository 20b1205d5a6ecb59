/*
 * RVLanes - Machine configuration test.
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

package machineconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	config "github.com/rcornwell/rvlanes/config/configparser"
	"github.com/rcornwell/rvlanes/emu/spatial"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigLines(t *testing.T) {
	Clear()
	image := writeFile(t, "prog.bin", []byte{0x13, 0x05, 0x50, 0x00})
	text := strings.Join([]string{
		"# two lanes",
		"MEMORY 64K LAYOUT=MORTON",
		"CORES 2",
		"WORKERS 1",
		"BATCH 400",
		"TIMER 10",
		"MONITOR 3270",
		"CORE 0 BASE=0 SIZE=1000 PC=100 VECTOR=200",
		"CORE 1 BASE=1000 SIZE=1000 PC=1100",
		"IMAGE 100 FILE=\"" + image + "\"",
	}, "\n")
	if err := config.LoadConfig(strings.NewReader(text)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := Settings{
		Memory:  64 * 1024,
		Layout:  "MORTON",
		Cores:   2,
		Workers: 1,
		Batch:   0x400,
		Timer:   10,
		Monitor: 3270,
		Core: []CoreSettings{
			{Number: 0, Base: 0, Size: 0x1000, PC: 0x100, Vector: 0x200},
			{Number: 1, Base: 0x1000, Size: 0x1000, PC: 0x1100},
		},
		Image: []ImageSettings{{Offset: 0x100, File: image}},
	}
	if diff := cmp.Diff(want, *Current()); diff != "" {
		t.Fatalf("Settings mismatch (-want +got):\n%s", diff)
	}

	m, err := Current().Build(nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.Cores() != 2 || m.Memory().Layout() != spatial.Morton || m.Memory().GetSize() != 0x10000 {
		t.Errorf("Machine got cores %d layout %v size %x", m.Cores(), m.Memory().Layout(), m.Memory().GetSize())
	}
	pc, _ := m.PC(1)
	if pc != 0x1100 {
		t.Errorf("Core 1 PC got: %08x", pc)
	}
	vec, _ := m.ReadCSR(0, 0x305)
	if vec != 0x200 {
		t.Errorf("Core 0 mtvec got: %08x", vec)
	}
	size, _ := m.ReadCSR(1, 0xfc1)
	if size != 0x1000 {
		t.Errorf("Core 1 window size got: %08x", size)
	}
	word, _ := m.Memory().GetWord(0x100)
	if word != 0x00500513 {
		t.Errorf("Image word got: %08x", word)
	}
}

func TestConfigErrors(t *testing.T) {
	for _, line := range []string{
		"MEMORY",
		"MEMORY 64K LAYOUT=SPIRAL",
		"MEMORY 64K SPEED=1",
		"CORES",
		"CORES 0",
		"TIMER 0",
		"TIMER fast",
		"MONITOR 70000",
		"MONITOR telnet",
		"CORE 0 COLOR=1",
		"CORE 0 BASE=xyz",
		"IMAGE 0",
		"IMAGE 0 NAME=\"a\"",
	} {
		Clear()
		if err := config.ParseLine(line); err == nil {
			t.Errorf("Line %q did not return error", line)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	s := Settings{Cores: 1, Core: []CoreSettings{{Number: 3}}}
	if _, err := s.Build(nil); err == nil {
		t.Error("Build with missing core did not fail")
	}
	s = Settings{Cores: 1, Image: []ImageSettings{{File: filepath.Join(t.TempDir(), "none")}}}
	if _, err := s.Build(nil); err == nil {
		t.Error("Build with missing image did not fail")
	}
	s = Settings{Memory: 0x1000, Cores: 1, Core: []CoreSettings{{Base: 2}}}
	if _, err := s.Build(nil); err == nil {
		t.Error("Build with unaligned window did not fail")
	}
}

func TestLoadTOML(t *testing.T) {
	Clear()
	text := `
memory = "32K"
layout = "HILBERT"
cores = 2
batch = 500

[[core]]
number = 1
base = 0x4000
size = "1000"
pc = 0x4000
regs = [0, 0, 0x4800]

[debug]
host = ["batch"]
`
	name := writeFile(t, "machine.toml", []byte(text))
	if err := Load(name); err != nil {
		t.Fatalf("Load toml: %v", err)
	}
	s := Current()
	if s.Memory != 0x8000 || s.Layout != "HILBERT" || s.Cores != 2 || s.Batch != 500 {
		t.Errorf("Settings got: %+v", *s)
	}
	m, err := s.Build(nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	regs, _ := m.Registers(1)
	if regs[2] != 0x4800 {
		t.Errorf("Core 1 sp got: %08x", regs[2])
	}
	base, _ := m.ReadCSR(1, 0xfc0)
	if base != 0x4000 {
		t.Errorf("Core 1 window base got: %08x", base)
	}
}

func TestLoadTOMLErrors(t *testing.T) {
	for _, text := range []string{
		"memry = 5",
		"memory = true",
		"layout = \"SPIRAL\"",
		"[debug]\ncpu = [\"bogus\"]",
		"memory = -1",
	} {
		Clear()
		name := writeFile(t, "bad.toml", []byte(text))
		if err := Load(name); err == nil {
			t.Errorf("TOML %q did not return error", text)
		}
	}
}
