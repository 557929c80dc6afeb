package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "grader",
		Subsystem: "llm",
		Name:      "request_duration_seconds",
		Help:      "Duration of LLM provider requests",
	}, []string{"provider", "model"})

	requestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grader",
		Subsystem: "llm",
		Name:      "request_failures_total",
		Help:      "Number of failed LLM provider requests",
	}, []string{"provider", "model"})
)

func observeRequest(provider, model string, resp Response) {
	requestDuration.WithLabelValues(provider, model).Observe(resp.Elapsed.Seconds())
	if !resp.Success {
		requestFailures.WithLabelValues(provider, model).Inc()
	}
}
