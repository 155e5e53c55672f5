// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ArticleSaves counts editor save attempts that reached the API.
	ArticleSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "editor",
		Name:      "article_saves_total",
		Help:      "Article create/update calls issued by the editor, by mode and result.",
	}, []string{"mode", "result"})

	// ImageUploads counts individual image upload outcomes.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "editor",
		Name:      "image_uploads_total",
		Help:      "Image uploads by result (success, failure, rejected).",
	}, []string{"result"})

	// EditorSessions is the number of open editor sessions.
	EditorSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "portal",
		Subsystem: "editor",
		Name:      "open_sessions",
		Help:      "Editor sessions currently held in memory.",
	})

	// Unauthorized counts API answers that ended an admin session.
	Unauthorized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "api",
		Name:      "unauthorized_total",
		Help:      "API 401 answers that cleared an admin session.",
	})
)
