package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(adminRequestsTotal) }

var adminRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admin_requests_total",
		Help: "Admin API requests by route and outcome.",
	},
	[]string{"route", "status"}, // status: 'ok', 'unauthorized', 'error'
)

func IncAdminRequest(route, status string) {
	adminRequestsTotal.WithLabelValues(norm(route), norm(status)).Inc()
}
