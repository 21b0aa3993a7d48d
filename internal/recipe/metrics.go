package recipe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "culinai_recipe_resolutions_total",
			Help: "Total number of recipe resolutions by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	resolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "culinai_recipe_resolution_duration_seconds",
			Help:    "Duration of recipe resolutions in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"},
	)
)

// observe records the outcome of a resolution. Successful resolutions are
// labelled "ok", failures by their error code.
func observe(mode Mode, res Result, start time.Time) {
	outcome := "ok"
	if res.Err != nil {
		outcome = string(res.Err.Code)
	}
	resolutionsTotal.WithLabelValues(mode.String(), outcome).Inc()
	resolutionDuration.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
}
