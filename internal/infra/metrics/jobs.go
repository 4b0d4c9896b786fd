package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		bulkJobsTotal,
		bulkNamesCheckedTotal,
		historyRecordsPurgedTotal,
	)
}

var (
	bulkJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_jobs_total",
			Help: "Total number of bulk check jobs processed, labeled by status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	bulkNamesCheckedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bulk_names_checked_total",
			Help: "Total number of usernames processed by bulk jobs.",
		},
	)

	historyRecordsPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "history_records_purged_total",
			Help: "Total number of expired check records removed by retention sweeps.",
		},
	)
)

func IncBulkJob(status string) {
	bulkJobsTotal.WithLabelValues(norm(status)).Inc()
}

func AddBulkNamesChecked(n int) {
	bulkNamesCheckedTotal.Add(float64(n))
}

func AddHistoryPurged(n int64) {
	historyRecordsPurgedTotal.Add(float64(n))
}
