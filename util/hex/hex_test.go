/*
 * RVLanes - Hex formatting test.
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

import (
	"strings"
	"testing"
)

func TestFormatWord(t *testing.T) {
	var str strings.Builder
	FormatWord(&str, []uint32{0x00500513, 0xdeadbeef})
	if str.String() != "00500513 DEADBEEF " {
		t.Errorf("FormatWord got: %q", str.String())
	}
}

func TestFormatBytes(t *testing.T) {
	var str strings.Builder
	FormatBytes(&str, true, []byte{0x01, 0xab})
	FormatBytes(&str, false, []byte{0x7f})
	FormatByte(&str, 0x3c)
	if str.String() != "01 AB 7F3C" {
		t.Errorf("FormatBytes got: %q", str.String())
	}
}

func TestFormatDecimal(t *testing.T) {
	for _, test := range []struct {
		num  uint32
		want string
	}{
		{0, "0"},
		{7, "7"},
		{1024, "1024"},
		{0xffffffff, "4294967295"},
	} {
		var str strings.Builder
		FormatDecimal(&str, test.num)
		if str.String() != test.want {
			t.Errorf("FormatDecimal %d got: %q want: %q", test.num, str.String(), test.want)
		}
	}
}

func TestFormatDump(t *testing.T) {
	var str strings.Builder
	FormatDump(&str, 0x400, []uint32{0x64636261, 0x00000a41})
	want := "00000400 | 64636261 00000A41                   |abcdA...|"
	if str.String() != want {
		t.Errorf("FormatDump got: %q want: %q", str.String(), want)
	}
}
