// Package metrics holds the Prometheus collectors for the credential core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultOK          = "ok"
	ResultRejected    = "rejected"
	ResultUnavailable = "unavailable"
)

type Metrics struct {
	SignUps        *prometheus.CounterVec
	LogIns         *prometheus.CounterVec
	Authorizations *prometheus.CounterVec
	HashDuration   prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SignUps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authcore_signups_total",
				Help: "Total number of sign-up attempts by result",
			},
			[]string{"result"},
		),
		LogIns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authcore_logins_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		Authorizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authcore_authorizations_total",
				Help: "Total number of bearer token checks by result",
			},
			[]string{"result"},
		),
		HashDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "authcore_password_hash_seconds",
				Help:    "Time spent hashing or verifying a password, including queueing for a worker",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
			},
		),
	}

	reg.MustRegister(m.SignUps, m.LogIns, m.Authorizations, m.HashDuration)

	return m
}

// ObserveHash records the time elapsed since start.
func (m *Metrics) ObserveHash(start time.Time) {
	m.HashDuration.Observe(time.Since(start).Seconds())
}
