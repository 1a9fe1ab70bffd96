// Package metrics collects and exposes Prometheus metrics for the account
// lifecycle workflows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the metrics interface consumed by the application services.
type Collector interface {
	RecoverySuccess()
	RecoveryFailure(reason string)

	SettingsUpdateSuccess()
	SettingsUpdateFailure(stage string)

	DeletionStageOK(stage string)
	DeletionStageFailed(stage string)
	DeletionCompleted()
}

// PromCollector implements Collector on top of a Prometheus registry.
type PromCollector struct {
	recoverySuccess prometheus.Counter
	recoveryFailure *prometheus.CounterVec

	settingsSuccess prometheus.Counter
	settingsFailure *prometheus.CounterVec

	deletionStageOK     *prometheus.CounterVec
	deletionStageFailed *prometheus.CounterVec
	deletionCompleted   prometheus.Counter
}

// NewCollector registers the lifecycle metrics with reg and returns the
// collector.
func NewCollector(reg prometheus.Registerer) *PromCollector {
	c := &PromCollector{
		recoverySuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "account_recovery_success_total",
			Help: "Sessions successfully recovered from one-time tokens.",
		}),
		recoveryFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_recovery_failure_total",
			Help: "Failed session recovery attempts by reason.",
		}, []string{"reason"}),
		settingsSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "account_settings_update_success_total",
			Help: "Settings updates that ran to completion.",
		}),
		settingsFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_settings_update_failure_total",
			Help: "Settings updates that aborted, by stage.",
		}, []string{"stage"}),
		deletionStageOK: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_deletion_stage_success_total",
			Help: "Account deletion stages that succeeded.",
		}, []string{"stage"}),
		deletionStageFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "account_deletion_stage_failure_total",
			Help: "Account deletion stages that failed and aborted the sequence.",
		}, []string{"stage"}),
		deletionCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "account_deletion_completed_total",
			Help: "Account deletions that ran all stages to completion.",
		}),
	}
	reg.MustRegister(
		c.recoverySuccess,
		c.recoveryFailure,
		c.settingsSuccess,
		c.settingsFailure,
		c.deletionStageOK,
		c.deletionStageFailed,
		c.deletionCompleted,
	)
	return c
}

func (c *PromCollector) RecoverySuccess()              { c.recoverySuccess.Inc() }
func (c *PromCollector) RecoveryFailure(reason string) { c.recoveryFailure.WithLabelValues(reason).Inc() }

func (c *PromCollector) SettingsUpdateSuccess() { c.settingsSuccess.Inc() }
func (c *PromCollector) SettingsUpdateFailure(stage string) {
	c.settingsFailure.WithLabelValues(stage).Inc()
}

func (c *PromCollector) DeletionStageOK(stage string) {
	c.deletionStageOK.WithLabelValues(stage).Inc()
}
func (c *PromCollector) DeletionStageFailed(stage string) {
	c.deletionStageFailed.WithLabelValues(stage).Inc()
}
func (c *PromCollector) DeletionCompleted() { c.deletionCompleted.Inc() }

// Handler returns the HTTP handler serving the metrics endpoint for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

type nopCollector struct{}

func (nopCollector) RecoverySuccess()             {}
func (nopCollector) RecoveryFailure(string)       {}
func (nopCollector) SettingsUpdateSuccess()       {}
func (nopCollector) SettingsUpdateFailure(string) {}
func (nopCollector) DeletionStageOK(string)       {}
func (nopCollector) DeletionStageFailed(string)   {}
func (nopCollector) DeletionCompleted()           {}

// Nop returns a Collector that discards everything. Useful in tests and
// when metrics are disabled.
func Nop() Collector { return nopCollector{} }
