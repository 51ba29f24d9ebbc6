package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MigrationMetrics tracks settlement activity for the migration engine.
type MigrationMetrics struct {
	executed  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	snapshots prometheus.Counter
}

var (
	migrationMetricsOnce sync.Once
	migrationRegistry    *MigrationMetrics

	adminMetricsOnce sync.Once
	adminRegistry    *AdminMetrics
)

// Migrations returns the lazily-initialised registry recording executed and
// failed migrations.
func Migrations() *MigrationMetrics {
	migrationMetricsOnce.Do(func() {
		migrationRegistry = &MigrationMetrics{
			executed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "migrator",
				Subsystem: "engine",
				Name:      "migrations_total",
				Help:      "Count of completed migrations segmented by adapter and destination market.",
			}, []string{"adapter", "comet"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "migrator",
				Subsystem: "engine",
				Name:      "migration_failures_total",
				Help:      "Count of reverted migrations segmented by adapter and failure reason.",
			}, []string{"adapter", "reason"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "migrator",
				Subsystem: "engine",
				Name:      "migration_duration_seconds",
				Help:      "Latency distribution of whole migration round-trips.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"adapter"}),
			snapshots: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "migrator",
				Subsystem: "engine",
				Name:      "snapshot_reverts_total",
				Help:      "Count of ledger snapshot reverts taken after failed migrations.",
			}),
		}
		prometheus.MustRegister(
			migrationRegistry.executed,
			migrationRegistry.failures,
			migrationRegistry.duration,
			migrationRegistry.snapshots,
		)
	})
	return migrationRegistry
}

// RecordExecuted increments the completed-migration counter.
func (m *MigrationMetrics) RecordExecuted(adapter, comet string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.executed.WithLabelValues(normalizeLabel(adapter), normalizeLabel(comet)).Inc()
	m.duration.WithLabelValues(normalizeLabel(adapter)).Observe(elapsed.Seconds())
}

// RecordFailure increments the failure counter and the snapshot-revert
// counter; every failed migration reverts the working snapshot.
func (m *MigrationMetrics) RecordFailure(adapter, reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(adapter), normalizeLabel(reason)).Inc()
	m.snapshots.Inc()
}

// AdminMetrics tracks configuration churn on the admin surface.
type AdminMetrics struct {
	changes *prometheus.CounterVec
}

// Admin returns the registry recording adapter and flash-config changes.
func Admin() *AdminMetrics {
	adminMetricsOnce.Do(func() {
		adminRegistry = &AdminMetrics{
			changes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "migrator",
				Subsystem: "admin",
				Name:      "config_changes_total",
				Help:      "Count of registry mutations segmented by operation.",
			}, []string{"operation"}),
		}
		prometheus.MustRegister(adminRegistry.changes)
	})
	return adminRegistry
}

// RecordChange increments the mutation counter for the supplied operation.
func (m *AdminMetrics) RecordChange(operation string) {
	if m == nil {
		return
	}
	m.changes.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(value string) string {
	normalized := strings.TrimSpace(strings.ToLower(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
