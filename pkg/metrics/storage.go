package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storage operation names.
const (
	OpProvisionWorkspace = "provision_workspace"
	OpProvisionTarget    = "provision_target"
	OpSchemaMutation     = "schema_mutation"
	OpMemberSync         = "member_sync"
	OpRepairMembers      = "repair_members"
)

// StorageMetrics records physical-store operations. A nil *StorageMetrics is
// a valid no-op recorder.
type StorageMetrics struct {
	duration    *prometheus.HistogramVec
	outcomes    *prometheus.CounterVec
	repairFails prometheus.Gauge
}

// NewStorageMetrics registers the storage metrics on the provided registerer.
func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	if reg == nil {
		return &StorageMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "portal",
		Name:      "storage_op_duration_seconds",
		Help:      "Duration of physical store operations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Name:      "storage_op_total",
		Help:      "Physical store operations by outcome.",
	}, []string{"op", "outcome"})
	repairFails := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "portal",
		Name:      "repair_members_failed_workspaces",
		Help:      "Workspaces that failed during the last membership repair run.",
	})
	reg.MustRegister(duration, outcomes, repairFails)
	return &StorageMetrics{duration: duration, outcomes: outcomes, repairFails: repairFails}
}

// Track starts timing op; call the returned func with the operation's error.
func (m *StorageMetrics) Track(op string) func(error) {
	start := time.Now()
	return func(err error) {
		m.ObserveDuration(op, time.Since(start))
		if err != nil {
			m.inc(op, "failure")
			return
		}
		m.inc(op, "success")
	}
}

// ObserveDuration records the duration for the named operation.
func (m *StorageMetrics) ObserveDuration(op string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(d.Seconds())
}

// SetRepairFailures publishes the failure count of the last repair run.
func (m *StorageMetrics) SetRepairFailures(n int) {
	if m == nil || m.repairFails == nil {
		return
	}
	m.repairFails.Set(float64(n))
}

func (m *StorageMetrics) inc(op, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(op), outcome).Inc()
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
