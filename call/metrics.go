// Copyright 2022 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package call

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values of the direction label.
const (
	dirIn  = "in"
	dirOut = "out"
)

type metrics struct {
	stanzas  *prometheus.CounterVec
	rejected *prometheus.CounterVec
	sessions prometheus.Gauge
}

// newMetrics creates the collectors and registers them with r.
// If r is nil the collectors are not registered.
func newMetrics(r prometheus.Registerer) *metrics {
	factory := promauto.With(r)
	return &metrics{
		stanzas: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jingle_stanzas_total",
				Help: "Total number of Jingle stanzas applied to a session",
			},
			[]string{"direction", "action"},
		),
		rejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jingle_rejected_total",
				Help: "Total number of Jingle stanzas rejected",
			},
			[]string{"reason"},
		),
		sessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "jingle_sessions",
				Help: "Number of sessions that are not terminated",
			},
		),
	}
}
