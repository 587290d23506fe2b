package scheduler

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "whisperd",
			Subsystem: "scheduler",
			Name:      "jobs_total",
			Help:      "Jobs finished, by terminal status",
		},
		[]string{"status"},
	)

	queueDepthGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "whisperd",
			Subsystem: "scheduler",
			Name:      "queue_depth",
			Help:      "Jobs currently queued",
		},
	)

	runningGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "whisperd",
			Subsystem: "scheduler",
			Name:      "running_jobs",
			Help:      "Jobs currently processing",
		},
	)

	admissionRejects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "whisperd",
			Subsystem: "scheduler",
			Name:      "admission_rejects_total",
			Help:      "Admission checks that rejected a job",
		},
	)

	modelLoads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "whisperd",
			Subsystem: "scheduler",
			Name:      "model_loads_total",
			Help:      "Model loads performed by the cache",
		},
	)

	modelUnloads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "whisperd",
			Subsystem: "scheduler",
			Name:      "model_unloads_total",
			Help:      "Model unloads performed by the cache",
		},
	)

	jobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "whisperd",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of finished jobs",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	deviceFreeMB = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "whisperd",
			Subsystem: "scheduler",
			Name:      "device_free_mb",
			Help:      "Free device memory as last sampled, in MiB",
		},
		[]string{"device"},
	)
)

func init() {
	prometheus.MustRegister(jobsTotal, queueDepthGauge, runningGauge,
		admissionRejects, modelLoads, modelUnloads, jobDuration, deviceFreeMB)
}

func deviceLabel(id int) string { return strconv.Itoa(id) }
