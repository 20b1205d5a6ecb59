/*
 * RVLanes - Machine configuration.
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
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	config "github.com/rcornwell/rvlanes/config/configparser"
	_ "github.com/rcornwell/rvlanes/config/debugconfig"
	"github.com/rcornwell/rvlanes/emu/host"
	"github.com/rcornwell/rvlanes/emu/opcodemap"
	"github.com/rcornwell/rvlanes/emu/spatial"
	"github.com/rcornwell/rvlanes/util/metrics"
)

/* Configuration lines:
 *
 *   MEMORY <size> [LAYOUT=LINEAR|MORTON|HILBERT]
 *   CORES <n>
 *   WORKERS <n>
 *   BATCH <n>
 *   TIMER <milliseconds>
 *   MONITOR <port>
 *   CORE <n> [BASE=<addr>] [SIZE=<size>] [SATP=<value>] [PC=<addr>] [VECTOR=<addr>]
 *   IMAGE <addr> FILE=<name>
 *
 * Numbers are hex unless followed by K or M, timer period and monitor
 * port are decimal. The same settings may be given
 * in a .toml file.
 */

// Number accepts hex strings with K/M suffix or plain integers.
type Number uint32

func (n *Number) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		num, err := config.ParseNumber(v)
		if err != nil {
			return err
		}
		*n = Number(num)
	case int64:
		if v < 0 || v > 0xffffffff {
			return fmt.Errorf("number out of range: %d", v)
		}
		*n = Number(v)
	default:
		return fmt.Errorf("number expected got: %v", value)
	}
	return nil
}

// Settings of one core.
type CoreSettings struct {
	Number int      `toml:"number"`
	Base   Number   `toml:"base"`
	Size   Number   `toml:"size"`
	Satp   Number   `toml:"satp"`
	PC     Number   `toml:"pc"`
	Vector Number   `toml:"vector"`
	Regs   []Number `toml:"regs"`
}

// Image loaded at offset.
type ImageSettings struct {
	Offset Number `toml:"offset"`
	File   string `toml:"file"`
}

// Settings collects a machine description.
type Settings struct {
	Memory    Number              `toml:"memory"`
	Layout    string              `toml:"layout"`
	Cores     int                 `toml:"cores"`
	Workers   int                 `toml:"workers"`
	Batch     int                 `toml:"batch"`
	Timer     int                 `toml:"timer"` // Milliseconds between timer interrupts.
	Monitor   int                 `toml:"monitor"`
	Core      []CoreSettings      `toml:"core"`
	Image     []ImageSettings     `toml:"image"`
	Debug     map[string][]string `toml:"debug"`
	DebugFile string              `toml:"debugfile"`
}

var current Settings

// Return settings gathered so far.
func Current() *Settings {
	return &current
}

// Forget all settings.
func Clear() {
	current = Settings{}
}

// register configuration lines on initialize.
func init() {
	config.RegisterModel("MEMORY", config.TypeModel, setMemory)
	config.RegisterOption("CORES", setCores)
	config.RegisterOption("WORKERS", setWorkers)
	config.RegisterOption("BATCH", setBatch)
	config.RegisterOption("TIMER", setTimer)
	config.RegisterOption("MONITOR", setMonitor)
	config.RegisterModel("CORE", config.TypeModel, setCore)
	config.RegisterModel("IMAGE", config.TypeModel, setImage)
}

func setMemory(size uint32, _ string, options []config.Option) error {
	current.Memory = Number(size)
	for _, opt := range options {
		switch strings.ToUpper(opt.Name) {
		case "LAYOUT":
			if _, err := spatial.ParseLayout(opt.EqualOpt); err != nil {
				return err
			}
			current.Layout = opt.EqualOpt
		default:
			return errors.New("memory option invalid: " + opt.Name)
		}
	}
	return nil
}

func count(name string, number uint32) (int, error) {
	if number == config.NoNum || number == 0 || number > 4096 {
		return 0, errors.New(name + " requires a count")
	}
	return int(number), nil
}

func setCores(number uint32, _ string, _ []config.Option) error {
	n, err := count("cores", number)
	current.Cores = n
	return err
}

func setWorkers(number uint32, _ string, _ []config.Option) error {
	n, err := count("workers", number)
	current.Workers = n
	return err
}

func setBatch(number uint32, _ string, _ []config.Option) error {
	if number == config.NoNum || number == 0 {
		return errors.New("batch requires a count")
	}
	current.Batch = int(number)
	return nil
}

func setTimer(_ uint32, value string, _ []config.Option) error {
	ms, err := strconv.Atoi(value)
	if err != nil || ms <= 0 {
		return errors.New("timer requires milliseconds: " + value)
	}
	current.Timer = ms
	return nil
}

func setMonitor(_ uint32, value string, _ []config.Option) error {
	port, err := strconv.Atoi(value)
	if err != nil || port <= 0 || port > 65535 {
		return errors.New("monitor requires port number: " + value)
	}
	current.Monitor = port
	return nil
}

// Find or add core settings.
func coreSettings(n int) *CoreSettings {
	for i := range current.Core {
		if current.Core[i].Number == n {
			return &current.Core[i]
		}
	}
	current.Core = append(current.Core, CoreSettings{Number: n})
	return &current.Core[len(current.Core)-1]
}

func setCore(number uint32, _ string, options []config.Option) error {
	c := coreSettings(int(number))
	for _, opt := range options {
		value, err := config.ParseNumber(opt.EqualOpt)
		if err != nil {
			return fmt.Errorf("core %x option %s: %w", number, opt.Name, err)
		}
		switch strings.ToUpper(opt.Name) {
		case "BASE":
			c.Base = Number(value)
		case "SIZE":
			c.Size = Number(value)
		case "SATP":
			c.Satp = Number(value)
		case "PC":
			c.PC = Number(value)
		case "VECTOR":
			c.Vector = Number(value)
		default:
			return errors.New("core option invalid: " + opt.Name)
		}
	}
	return nil
}

func setImage(offset uint32, _ string, options []config.Option) error {
	img := ImageSettings{Offset: Number(offset)}
	for _, opt := range options {
		switch strings.ToUpper(opt.Name) {
		case "FILE":
			img.File = opt.EqualOpt
		default:
			return errors.New("image option invalid: " + opt.Name)
		}
	}
	if img.File == "" {
		return errors.New("image requires FILE=")
	}
	current.Image = append(current.Image, img)
	return nil
}

// Load a configuration file, line form or toml by extension.
func Load(name string) error {
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		return LoadTOML(name)
	}
	return config.LoadConfigFile(name)
}

// Load settings from toml file, debug entries go through the line handlers.
func LoadTOML(name string) error {
	var s Settings
	md, err := toml.DecodeFile(name, &s)
	if err != nil {
		return err
	}
	if keys := md.Undecoded(); len(keys) != 0 {
		return fmt.Errorf("%s: unknown setting %s", name, keys[0].String())
	}
	if s.Layout != "" {
		if _, err := spatial.ParseLayout(s.Layout); err != nil {
			return err
		}
	}
	if s.DebugFile != "" {
		if err := config.ParseLine("DEBUGFILE \"" + s.DebugFile + "\""); err != nil {
			return err
		}
	}
	modules := make([]string, 0, len(s.Debug))
	for mod := range s.Debug {
		modules = append(modules, mod)
	}
	sort.Strings(modules)
	for _, mod := range modules {
		line := "DEBUG " + mod + " " + strings.Join(s.Debug[mod], " ")
		if err := config.ParseLine(line); err != nil {
			return err
		}
	}
	s.Debug = nil
	s.DebugFile = ""
	current = s
	return nil
}

// Create machine from settings.
func (s *Settings) Build(m *metrics.Metrics) (*host.Machine, error) {
	layout := spatial.Linear
	if s.Layout != "" {
		var err error
		layout, err = spatial.ParseLayout(s.Layout)
		if err != nil {
			return nil, err
		}
	}
	size := uint32(s.Memory)
	if size == 0 {
		size = 64 * 1024
	}
	cores := s.Cores
	if cores == 0 {
		cores = 1
	}
	machine, err := host.New(host.Config{
		MemorySize: size,
		Layout:     layout,
		Cores:      cores,
		Workers:    s.Workers,
		Metrics:    m,
	})
	if err != nil {
		return nil, err
	}

	for _, img := range s.Image {
		if err := machine.LoadFile(uint32(img.Offset), img.File); err != nil {
			return nil, err
		}
	}

	for _, c := range s.Core {
		if err := c.apply(machine); err != nil {
			return nil, fmt.Errorf("core %d: %w", c.Number, err)
		}
	}
	return machine, nil
}

// Set window, registers and page table of core.
func (c *CoreSettings) apply(machine *host.Machine) error {
	if err := machine.SetWindow(c.Number, uint32(c.Base), uint32(c.Size)); err != nil {
		return err
	}
	regs := make([]uint32, len(c.Regs))
	for i, r := range c.Regs {
		regs[i] = uint32(r)
	}
	if err := machine.LoadRegisters(c.Number, regs, uint32(c.PC)); err != nil {
		return err
	}
	if err := machine.WriteCSR(c.Number, opcodemap.CSRMtvec, uint32(c.Vector)); err != nil {
		return err
	}
	return machine.SetPageTableBase(c.Number, uint32(c.Satp))
}
