// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoflow_jobs_submitted_total",
		Help: "Jobs accepted for execution, by process.",
	}, []string{"process"})

	jobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoflow_jobs_completed_total",
		Help: "Jobs reaching a terminal state, by status.",
	}, []string{"status"})

	jobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "geoflow_jobs_running",
		Help: "Jobs currently executing.",
	})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geoflow_job_duration_seconds",
		Help:    "Wall-clock job duration.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"process"})
)
