/*
 * RVLanes - Hex formatting for console output.
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

package hex

import "strings"

var hexMap = "0123456789ABCDEF"

// Words per dump line.
const DumpWords = 4

func FormatWord(str *strings.Builder, word []uint32) {
	for _, full := range word {
		shift := 28
		for range 8 {
			str.WriteByte(hexMap[(full>>shift)&0xf])

			shift -= 4
		}
		str.WriteByte(' ')
	}
}

func FormatBytes(str *strings.Builder, space bool, data []uint8) {
	for _, by := range data {
		str.WriteByte(hexMap[(by>>4)&0xf])
		str.WriteByte(hexMap[by&0xf])
		if space {
			str.WriteByte(' ')
		}
	}
}

func FormatByte(str *strings.Builder, data byte) {
	str.WriteByte(hexMap[(data>>4)&0xf])
	str.WriteByte(hexMap[data&0xf])
}

func FormatDecimal(str *strings.Builder, num uint32) {
	var buf [10]byte
	i := len(buf)
	for {
		i--
		buf[i] = hexMap[num%10]
		num /= 10
		if num == 0 {
			break
		}
	}
	str.Write(buf[i:])
}

// Format one examine line: address, words, then bytes as text in
// little endian order.
func FormatDump(str *strings.Builder, addr uint32, words []uint32) {
	FormatWord(str, []uint32{addr})
	str.WriteString("| ")
	FormatWord(str, words)
	for range DumpWords - len(words) {
		str.WriteString("         ")
	}
	str.WriteByte('|')
	for _, w := range words {
		for range 4 {
			by := byte(w)
			if by < 0x20 || by > 0x7e {
				by = '.'
			}
			str.WriteByte(by)
			w >>= 8
		}
	}
	str.WriteByte('|')
}
