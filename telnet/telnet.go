/*
 * RVLanes - Remote monitor telnet line filter.
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

package telnet

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/rcornwell/rvlanes/command/parser"
)

// Telnet protocol constants.
const (
	tnIAC  byte = 255 // protocol delim
	tnDONT byte = 254 // dont
	tnDO   byte = 253 // do
	tnWONT byte = 252 // wont
	tnWILL byte = 251 // will
	tnSB   byte = 250 // Sub negotiations begin
	tnSE   byte = 240 // Sub negotiations end

	// Telnet line states.
	tnStateData int = 1 + iota // normal
	tnStateIAC                 // IAC seen
	tnStateOpt                 // WILL/WONT/DO/DONT seen, skip option
	tnStateSB                  // In sub negotiation
	tnStateSBIAC               // IAC seen in sub negotiation

	tnOptionEcho byte = 1 // Echo
	tnOptionSGA  byte = 3 // Send Go Ahead
)

const prompt = "RV> "

// Tell client we won't echo, it keeps its own line editing.
var initString = []byte{
	tnIAC, tnWONT, tnOptionEcho,
	tnIAC, tnWILL, tnOptionSGA,
}

type tnState struct {
	state int
	line  []byte
}

// Strip telnet commands from input, return completed lines.
func (state *tnState) receive(data []byte) []string {
	lines := []string{}
	for _, input := range data {
		switch state.state {
		case tnStateData:
			switch input {
			case tnIAC:
				state.state = tnStateIAC
			case '\n':
				lines = append(lines, strings.TrimRight(string(state.line), "\r\x00"))
				state.line = state.line[:0]
			default:
				state.line = append(state.line, input)
			}
		case tnStateIAC:
			switch input {
			case tnIAC:
				state.line = append(state.line, input)
				state.state = tnStateData
			case tnWILL, tnWONT, tnDO, tnDONT:
				state.state = tnStateOpt
			case tnSB:
				state.state = tnStateSB
			default:
				state.state = tnStateData
			}
		case tnStateOpt:
			state.state = tnStateData
		case tnStateSB:
			if input == tnIAC {
				state.state = tnStateSBIAC
			}
		case tnStateSBIAC:
			if input == tnSE {
				state.state = tnStateData
			} else {
				state.state = tnStateSB
			}
		}
	}
	return lines
}

// Telnet terminals expect CR LF line ends.
type crlfWriter struct {
	conn net.Conn
}

func (w crlfWriter) Write(data []byte) (int, error) {
	out := bytes.ReplaceAll(data, []byte{'\n'}, []byte{'\r', '\n'})
	if _, err := w.conn.Write(out); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Run console commands for one connection until quit or close.
func handleClient(conn net.Conn, ctl parser.Control) {
	defer conn.Close()
	ctl.Out = crlfWriter{conn: conn}
	state := tnState{state: tnStateData}
	_, _ = conn.Write(initString)
	fmt.Fprint(conn, "RVLanes monitor\r\n"+prompt)

	rd := bufio.NewReader(conn)
	buffer := make([]byte, 1024)
	for {
		num, err := rd.Read(buffer)
		if err != nil {
			slog.Debug("Monitor connection closed", "remote", conn.RemoteAddr().String())
			return
		}
		for _, line := range state.receive(buffer[:num]) {
			quit, err := parser.ProcessCommand(line, &ctl)
			if err != nil {
				fmt.Fprint(conn, "Error: "+err.Error()+"\r\n")
			}
			if quit {
				return
			}
			fmt.Fprint(conn, prompt)
		}
	}
}
