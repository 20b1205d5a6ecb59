/*
 * RVLanes - Guest physical memory.
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

package memory

import (
	"errors"
	"image"
	"sync/atomic"

	"github.com/rcornwell/rvlanes/emu/spatial"
)

const (
	PageShift = 12
	PageSize  = 1 << PageShift

	RefBit    uint32 = 0x4 // Page has been read.
	ChangeBit uint32 = 0x2 // Page has been written.

	MaxSize uint32 = 0xfffffffc
)

var ErrRange = errors.New("memory range outside of storage")

// Memory is word addressed guest storage placed on a 2D store.
type Memory struct {
	mem   []uint32        // Backing texels, row major.
	pages []atomic.Uint32 // Reference and change bits per page.
	size  uint32          // Size in bytes.
	geom  spatial.Geometry
}

// Create memory of size bytes, rounded up to a word.
func New(size uint32, layout spatial.Layout) *Memory {
	if size > MaxSize {
		size = MaxSize
	}
	size = (size + 3) &^ 3
	geom := spatial.NewGeometry(layout, size>>2)
	return &Memory{
		mem:   make([]uint32, geom.Cells()),
		pages: make([]atomic.Uint32, (uint64(size)+PageSize-1)>>PageShift),
		size:  size,
		geom:  geom,
	}
}

// Return size of memory in bytes.
func (m *Memory) GetSize() uint32 {
	return m.size
}

// Return layout of backing store.
func (m *Memory) Layout() spatial.Layout {
	return m.geom.Layout
}

// Return geometry of backing store.
func (m *Memory) Geometry() spatial.Geometry {
	return m.geom
}

// Return number of pages tracked.
func (m *Memory) Pages() int {
	return len(m.pages)
}

// Check if address outside of memory.
func (m *Memory) CheckAddr(addr uint32) bool {
	return addr < m.size
}

// Location of word containing address on backing store.
func (m *Memory) Texel(addr uint32) (uint32, uint32) {
	return m.geom.XY(addr >> 2)
}

func (m *Memory) index(addr uint32) int {
	return m.geom.Index(addr >> 2)
}

func (m *Memory) mark(addr uint32, bits uint32) {
	page := &m.pages[addr>>PageShift]
	if (page.Load() & bits) != bits {
		page.Or(bits)
	}
}

// Get a word from memory, return true if address out of range.
func (m *Memory) GetWord(addr uint32) (uint32, bool) {
	if addr >= m.size {
		return 0, true
	}
	m.mark(addr, RefBit)
	return m.mem[m.index(addr)], false
}

// Put a word into memory, return true if address out of range.
func (m *Memory) PutWord(addr uint32, data uint32) bool {
	if addr >= m.size {
		return true
	}
	m.mark(addr, RefBit|ChangeBit)
	m.mem[m.index(addr)] = data
	return false
}

// Put masked bits of data into memory, return true if out of range.
func (m *Memory) PutWordMask(addr uint32, data uint32, mask uint32) bool {
	if addr >= m.size {
		return true
	}
	m.mark(addr, RefBit|ChangeBit)
	i := m.index(addr)
	m.mem[i] = (m.mem[i] &^ mask) | (data & mask)
	return false
}

// Check that length bytes starting at offset are inside memory.
func (m *Memory) checkRange(offset uint32, length int) error {
	if length < 0 || uint64(offset)+uint64(length) > uint64(m.size) {
		return ErrRange
	}
	return nil
}

// Copy bytes into memory at offset, little endian within each word.
func (m *Memory) Load(offset uint32, data []byte) error {
	if err := m.checkRange(offset, len(data)); err != nil {
		return err
	}
	for i, by := range data {
		addr := offset + uint32(i)
		shift := 8 * (addr & 3)
		m.PutWordMask(addr, uint32(by)<<shift, 0xff<<shift)
	}
	return nil
}

// Copy bytes out of memory without touching page bits.
func (m *Memory) Dump(offset uint32, length int) ([]byte, error) {
	if err := m.checkRange(offset, length); err != nil {
		return nil, err
	}
	data := make([]byte, length)
	for i := range data {
		addr := offset + uint32(i)
		data[i] = byte(m.mem[m.index(addr)] >> (8 * (addr & 3)))
	}
	return data, nil
}

// Return reference and change bits for page holding address.
func (m *Memory) GetKey(addr uint32) uint32 {
	if addr >= m.size {
		return 0
	}
	return m.pages[addr>>PageShift].Load()
}

// Clear reference and change bits for page holding address.
func (m *Memory) ClearKey(addr uint32) {
	if addr >= m.size {
		return
	}
	m.pages[addr>>PageShift].Store(0)
}

// Return numbers of changed pages and clear their change bits.
func (m *Memory) TakeChangedPages() []uint32 {
	var changed []uint32
	for i := range m.pages {
		if (m.pages[i].And(^ChangeBit) & ChangeBit) != 0 {
			changed = append(changed, uint32(i))
		}
	}
	return changed
}

// Snapshot the backing store, one texel per word.
func (m *Memory) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(m.geom.Width), int(m.geom.Height)))
	for i, w := range m.mem {
		p := img.Pix[i*4 : i*4+4]
		p[0] = byte(w)
		p[1] = byte(w >> 8)
		p[2] = byte(w >> 16)
		p[3] = byte(w >> 24)
	}
	return img
}
