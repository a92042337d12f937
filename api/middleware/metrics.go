package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vidmore_http_requests_total",
		Help: "Total number of HTTP requests handled by the API service.",
	},
	[]string{"path", "method", "code"},
)
