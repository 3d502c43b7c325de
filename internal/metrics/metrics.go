// Package metrics exposes Prometheus collectors for the lifecycle driver.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all lifecycle collectors
type Metrics struct {
	FramesTotal      prometheus.Counter
	DeferredTasks    prometheus.Counter
	ResizesTotal     prometheus.Counter
	VisibilityTotal  *prometheus.CounterVec
	PreloadAssets    *prometheus.CounterVec
	State            prometheus.Gauge
	FatalErrorsTotal prometheus.Counter
}

// New registers the collectors with reg. A nil reg uses a private registry so
// that several drivers in one process do not collide.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		FramesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "boot_frames_total",
			Help: "Number of frame callbacks that completed",
		}),
		DeferredTasks: factory.NewCounter(prometheus.CounterOpts{
			Name: "boot_deferred_tasks_total",
			Help: "Number of deferred tasks executed at frame boundaries",
		}),
		ResizesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "boot_resize_notifications_total",
			Help: "Number of resize notifications delivered to the application",
		}),
		VisibilityTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "boot_visibility_changes_total",
			Help: "Visibility changes by direction",
		}, []string{"visible"}),
		PreloadAssets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "boot_preload_assets_total",
			Help: "Preloaded assets by outcome",
		}, []string{"result"}),
		State: factory.NewGauge(prometheus.GaugeOpts{
			Name: "boot_lifecycle_state",
			Help: "Current lifecycle state (0 booting, 1 preloading, 2 setting up, 3 running, 4 failed)",
		}),
		FatalErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "boot_fatal_errors_total",
			Help: "Fatal application errors",
		}),
	}
}

// RecordVisibility counts a pause or resume.
func (m *Metrics) RecordVisibility(visible bool) {
	label := "false"
	if visible {
		label = "true"
	}
	m.VisibilityTotal.WithLabelValues(label).Inc()
}

// RecordAsset counts a settled preload entry.
func (m *Metrics) RecordAsset(ok bool) {
	result := "failed"
	if ok {
		result = "loaded"
	}
	m.PreloadAssets.WithLabelValues(result).Inc()
}
