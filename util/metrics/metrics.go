/*
 * RVLanes - Prometheus metrics.
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
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics for one machine. A nil *Metrics records nothing.
type Metrics struct {
	Registry     *prometheus.Registry
	instructions *prometheus.CounterVec
	traps        *prometheus.CounterVec
	interrupts   *prometheus.CounterVec
	halted       prometheus.Gauge
	batches      prometheus.Counter
}

// Create metrics in their own registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rvlanes",
			Name:      "instructions_total",
			Help:      "Instructions retired by core.",
		}, []string{"core"}),
		traps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rvlanes",
			Name:      "traps_total",
			Help:      "Synchronous traps by core and cause.",
		}, []string{"core", "cause"}),
		interrupts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rvlanes",
			Name:      "interrupts_total",
			Help:      "Interrupts taken by core.",
		}, []string{"core"}),
		halted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rvlanes",
			Name:      "halted_cores",
			Help:      "Cores currently halted.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rvlanes",
			Name:      "batches_total",
			Help:      "Dispatch batches run.",
		}),
	}
	m.Registry.MustRegister(m.instructions, m.traps, m.interrupts, m.halted, m.batches)
	return m
}

// Add counts collected from a core.
func (m *Metrics) Record(core int, instructions uint64, traps []uint64, interrupts uint64) {
	if m == nil {
		return
	}
	id := strconv.Itoa(core)
	if instructions != 0 {
		m.instructions.WithLabelValues(id).Add(float64(instructions))
	}
	if interrupts != 0 {
		m.interrupts.WithLabelValues(id).Add(float64(interrupts))
	}
	for cause, n := range traps {
		if n != 0 {
			m.traps.WithLabelValues(id, strconv.Itoa(cause)).Add(float64(n))
		}
	}
}

// Count finished batch and number of halted cores.
func (m *Metrics) Batch(halted int) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.halted.Set(float64(halted))
}

// Return handler serving registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
