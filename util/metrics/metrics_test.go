/*
 * RVLanes - Prometheus metrics tests.
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

package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecord(t *testing.T) {
	m := New()
	traps := make([]uint64, 16)
	traps[11] = 2
	m.Record(0, 100, traps, 1)
	m.Record(0, 50, nil, 0)
	m.Record(1, 7, nil, 0)
	if v := testutil.ToFloat64(m.instructions.WithLabelValues("0")); v != 150 {
		t.Errorf("Instructions core 0 got: %v wanted: %v", v, 150)
	}
	if v := testutil.ToFloat64(m.instructions.WithLabelValues("1")); v != 7 {
		t.Errorf("Instructions core 1 got: %v wanted: %v", v, 7)
	}
	if v := testutil.ToFloat64(m.traps.WithLabelValues("0", "11")); v != 2 {
		t.Errorf("Traps got: %v wanted: %v", v, 2)
	}
	if v := testutil.ToFloat64(m.interrupts.WithLabelValues("0")); v != 1 {
		t.Errorf("Interrupts got: %v wanted: %v", v, 1)
	}
	m.Batch(3)
	m.Batch(1)
	if v := testutil.ToFloat64(m.batches); v != 2 {
		t.Errorf("Batches got: %v wanted: %v", v, 2)
	}
	if v := testutil.ToFloat64(m.halted); v != 1 {
		t.Errorf("Halted got: %v wanted: %v", v, 1)
	}
}

func TestNil(t *testing.T) {
	var m *Metrics
	m.Record(0, 1, nil, 1)
	m.Batch(1)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("Nil handler got: %d wanted: %d", rec.Code, 404)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.Record(2, 5, nil, 0)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `rvlanes_instructions_total{core="2"} 5`) {
		t.Errorf("Handler output missing counter:\n%s", rec.Body.String())
	}
}
