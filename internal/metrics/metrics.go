// SPDX-License-Identifier: MPL-2.0

// Package metrics exposes registry observations as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weakres/weakres/pkg/conflict"
	"github.com/weakres/weakres/pkg/hook"
)

// Metrics implements hook.Metrics and conflict.Subscriber.
type Metrics struct {
	// Resolutions counts handled resolution requests by outcome.
	Resolutions *prometheus.CounterVec

	// InstallCount tracks the registry's active install scopes.
	InstallCount prometheus.Gauge

	// RegistrationFailures counts runtime registrations that failed and were rolled back.
	RegistrationFailures prometheus.Counter

	// Records counts conflict records delivered to this subscriber, by success.
	Records *prometheus.CounterVec
}

var _ hook.Metrics = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weakres_resolutions_total",
			Help: "Resolution requests handled by the weak resolver, by outcome",
		}, []string{"outcome"}), // outcome: "exact", "weak", "failed", "error"

		InstallCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "weakres_install_count",
			Help: "Number of active install scopes",
		}),

		RegistrationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "weakres_registration_failures_total",
			Help: "Handler registrations rejected by the host runtime",
		}),

		Records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "weakres_conflict_records_total",
			Help: "Conflict records published, by whether the request was satisfied",
		}, []string{"success"}),
	}
}

// ObserveResolution implements hook.Metrics.
func (m *Metrics) ObserveResolution(outcome hook.Outcome) {
	if m != nil {
		m.Resolutions.WithLabelValues(string(outcome)).Inc()
	}
}

// SetInstallCount implements hook.Metrics.
func (m *Metrics) SetInstallCount(n int) {
	if m != nil {
		m.InstallCount.Set(float64(n))
	}
}

// ObserveRegistrationFailure implements hook.Metrics.
func (m *Metrics) ObserveRegistrationFailure() {
	if m != nil {
		m.RegistrationFailures.Inc()
	}
}

// OnConflict implements conflict.Subscriber.
func (m *Metrics) OnConflict(r *conflict.Record) error {
	if m == nil {
		return nil
	}
	label := "false"
	if r.Succeeded() {
		label = "true"
	}
	m.Records.WithLabelValues(label).Inc()
	return nil
}

// Handler serves the collectors registered with g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
