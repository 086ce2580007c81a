// Package metrics registra os coletores Prometheus da sincronização.
//
// Uso:
//
//	metrics.SyncRunsTotal.WithLabelValues("full", "success").Inc()
//	metrics.UpsertOperationsTotal.WithLabelValues("insights", "inserted").Add(3)
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "insight_sync"

var (
	// SyncRunsTotal conta execuções por tipo (full, historical) e status final.
	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Execuções de sincronização por tipo e status.",
	}, []string{"type", "status"})

	// SyncDuration mede a duração de cada execução.
	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duração das execuções de sincronização.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"type"})

	AccountsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_total",
		Help:      "Contas processadas por resultado (done, up_to_date, failed).",
	}, []string{"outcome"})

	UpsertOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upsert_operations_total",
		Help:      "Registros escritos por tabela e tipo de operação.",
	}, []string{"table", "operation"})

	MetaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "meta_requests_total",
		Help:      "Requisições à API Meta por resultado.",
	}, []string{"outcome"})

	RetentionDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retention_deleted_total",
		Help:      "Snapshots operacionais removidos pela retenção.",
	})

	RecoveredEntitiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recovered_entities_total",
		Help:      "Entidades recriadas a partir de insights órfãos.",
	}, []string{"level"})
)

// Handler expõe o registro padrão no formato de exposição do Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}
