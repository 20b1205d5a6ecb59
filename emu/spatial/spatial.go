/*
 * RVLanes - Spatial locality remapping.
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

package spatial

import (
	"errors"
	"math/bits"
	"strings"
)

// Layout selects how linear word numbers are placed on the 2D store.
type Layout int

const (
	Linear  Layout = iota // Row major.
	Morton                // Z-order, x takes the even bits.
	Hilbert               // Hilbert curve on a square.
)

var layoutNames = []string{"LINEAR", "MORTON", "HILBERT"}

func (l Layout) String() string {
	if l < Linear || l > Hilbert {
		return "UNKNOWN"
	}
	return layoutNames[l]
}

// Convert layout name to layout.
func ParseLayout(name string) (Layout, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range layoutNames {
		if n == name {
			return Layout(i), nil
		}
	}
	return Linear, errors.New("unknown memory layout: " + name)
}

// Spread lower 16 bits of value to even bit positions.
func part1by1(v uint32) uint32 {
	v &= 0x0000ffff
	v = (v | (v << 8)) & 0x00ff00ff
	v = (v | (v << 4)) & 0x0f0f0f0f
	v = (v | (v << 2)) & 0x33333333
	v = (v | (v << 1)) & 0x55555555
	return v
}

// Gather even bits of value into lower 16 bits.
func compact1by1(v uint32) uint32 {
	v &= 0x55555555
	v = (v ^ (v >> 1)) & 0x33333333
	v = (v ^ (v >> 2)) & 0x0f0f0f0f
	v = (v ^ (v >> 4)) & 0x00ff00ff
	v = (v ^ (v >> 8)) & 0x0000ffff
	return v
}

// Split a 32 bit index into Morton coordinates.
func MortonEncode(index uint32) (uint16, uint16) {
	return uint16(compact1by1(index)), uint16(compact1by1(index >> 1))
}

// Interleave coordinates back into a 32 bit index.
func MortonDecode(x, y uint16) uint32 {
	return part1by1(uint32(x)) | (part1by1(uint32(y)) << 1)
}

// Rotate quadrant.
func rotate(n, x, y, rx, ry uint32) (uint32, uint32) {
	if ry == 0 {
		if rx == 1 {
			x = n - 1 - x
			y = n - 1 - y
		}
		x, y = y, x
	}
	return x, y
}

// Convert distance along a Hilbert curve of side 1<<order to coordinates.
// Order may be up to 16.
func HilbertEncode(order uint, d uint32) (uint32, uint32) {
	n := uint32(1) << order
	var x, y uint32
	t := d
	for s := uint32(1); s < n && s != 0; s <<= 1 {
		rx := 1 & (t >> 1)
		ry := 1 & (t ^ rx)
		x, y = rotate(s, x, y, rx, ry)
		x += s * rx
		y += s * ry
		t >>= 2
	}
	return x, y
}

// Convert coordinates on a Hilbert curve of side 1<<order to distance.
func HilbertDecode(order uint, x, y uint32) uint32 {
	n := uint32(1) << order
	d := uint32(0)
	for s := n >> 1; s > 0; s >>= 1 {
		var rx, ry uint32
		if (x & s) != 0 {
			rx = 1
		}
		if (y & s) != 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		x, y = rotate(n, x, y, rx, ry)
	}
	return d
}

// Geometry is the 2D extent of a store holding a number of words.
type Geometry struct {
	Layout Layout
	Bits   uint   // Bits needed to number every word.
	Width  uint32 // Texels per row.
	Height uint32 // Rows.
}

// Compute geometry for words of storage.
func NewGeometry(layout Layout, words uint32) Geometry {
	b := uint(0)
	if words > 1 {
		b = uint(bits.Len32(words - 1))
	}
	g := Geometry{Layout: layout, Bits: b}
	g.Width = uint32(1) << ((b + 1) / 2)
	switch layout {
	case Hilbert:
		g.Height = g.Width
	default:
		g.Height = uint32(1) << (b / 2)
	}
	return g
}

// Number of texels backing the store.
func (g Geometry) Cells() int {
	return int(g.Width) * int(g.Height)
}

// Location of word on the store.
func (g Geometry) XY(word uint32) (uint32, uint32) {
	switch g.Layout {
	case Morton:
		x, y := MortonEncode(word)
		return uint32(x), uint32(y)
	case Hilbert:
		return HilbertEncode((g.Bits+1)/2, word)
	default:
		return word & (g.Width - 1), word >> ((g.Bits + 1) / 2)
	}
}

// Word stored at a location.
func (g Geometry) Word(x, y uint32) uint32 {
	switch g.Layout {
	case Morton:
		return MortonDecode(uint16(x), uint16(y))
	case Hilbert:
		return HilbertDecode((g.Bits+1)/2, x, y)
	default:
		return (y << ((g.Bits + 1) / 2)) | x
	}
}

// Index of word in row major backing store.
func (g Geometry) Index(word uint32) int {
	x, y := g.XY(word)
	return int(y)*int(g.Width) + int(x)
}
