package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics contains all Prometheus metrics for the transcription pipeline.
// Collectors live on a private registry so repeated construction, as in
// tests, never collides with the default global one.
type Metrics struct {
	registry *prometheus.Registry

	// Recording metrics
	RecordingsSaved prometheus.Counter

	// Run metrics
	RunsStarted   prometheus.Counter
	RunsSucceeded prometheus.Counter
	RunsFailed    prometheus.Counter

	// Chunk metrics
	ChunksPlanned     prometheus.Counter
	ChunksTranscribed prometheus.Counter
	ChunksFailed      prometheus.Counter
	ChunkDuration     prometheus.Histogram

	// Inference metrics
	InferenceRequests  prometheus.Counter
	InferenceSuccesses prometheus.Counter
	InferenceFailures  prometheus.Counter
	RequestDuration    prometheus.Histogram
	BytesUploaded      prometheus.Counter
}

// Snapshot is a plain view of the collectors, gathered for end-of-run
// logging.
type Snapshot struct {
	RecordingsSaved    float64
	RunsStarted        float64
	RunsSucceeded      float64
	RunsFailed         float64
	ChunksPlanned      float64
	ChunksTranscribed  float64
	ChunksFailed       float64
	InferenceRequests  float64
	InferenceSuccesses float64
	InferenceFailures  float64
	BytesUploaded      float64
	RequestCount       uint64
	RequestSeconds     float64
}

// NewMetrics creates all collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		// Recording metrics
		RecordingsSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisnote_recordings_saved_total",
			Help: "Total number of recordings captured and saved to disk",
		}),

		// Run metrics
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisnote_runs_started_total",
			Help: "Total number of transcription runs started",
		}),
		RunsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisnote_runs_succeeded_total",
			Help: "Total number of transcription runs that produced a transcript",
		}),
		RunsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisnote_runs_failed_total",
			Help: "Total number of transcription runs that failed",
		}),

		// Chunk metrics
		ChunksPlanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisnote_chunks_planned_total",
			Help: "Total number of audio chunks produced by splitting",
		}),
		ChunksTranscribed: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisnote_chunks_transcribed_total",
			Help: "Total number of chunks that produced text",
		}),
		ChunksFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisnote_chunks_failed_total",
			Help: "Total number of chunks skipped after a failed upload",
		}),
		ChunkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "whisnote_chunk_duration_seconds",
			Help:    "Audio duration of planned chunks",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17 minutes
		}),

		// Inference metrics
		InferenceRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisnote_inference_requests_total",
			Help: "Total number of audio units submitted for inference",
		}),
		InferenceSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisnote_inference_successes_total",
			Help: "Total number of inference submissions that returned a result",
		}),
		InferenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisnote_inference_failures_total",
			Help: "Total number of inference submissions that failed",
		}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "whisnote_request_duration_seconds",
			Help:    "Duration of inference submissions",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
		BytesUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "whisnote_upload_bytes_total",
			Help: "Total audio payload bytes uploaded for inference",
		}),
	}
}

// RecordRecordingSaved increments the recordings saved counter
func (m *Metrics) RecordRecordingSaved() {
	m.RecordingsSaved.Inc()
}

// RecordRunStarted increments the runs started counter
func (m *Metrics) RecordRunStarted() {
	m.RunsStarted.Inc()
}

// RecordRunSucceeded increments the runs succeeded counter
func (m *Metrics) RecordRunSucceeded() {
	m.RunsSucceeded.Inc()
}

// RecordRunFailed increments the runs failed counter
func (m *Metrics) RecordRunFailed() {
	m.RunsFailed.Inc()
}

// RecordChunkPlanned records one chunk produced by splitting
func (m *Metrics) RecordChunkPlanned(durationSeconds float64) {
	m.ChunksPlanned.Inc()
	if durationSeconds > 0 {
		m.ChunkDuration.Observe(durationSeconds)
	}
}

// RecordChunkTranscribed increments the chunks transcribed counter
func (m *Metrics) RecordChunkTranscribed() {
	m.ChunksTranscribed.Inc()
}

// RecordChunkFailed increments the chunks failed counter
func (m *Metrics) RecordChunkFailed() {
	m.ChunksFailed.Inc()
}

// RecordInferenceRequest records a submitted audio unit and its payload size
func (m *Metrics) RecordInferenceRequest(sizeBytes int64) {
	m.InferenceRequests.Inc()
	if sizeBytes > 0 {
		m.BytesUploaded.Add(float64(sizeBytes))
	}
}

// RecordInferenceSuccess records a successful submission
func (m *Metrics) RecordInferenceSuccess(durationSeconds float64) {
	m.InferenceSuccesses.Inc()
	m.RequestDuration.Observe(durationSeconds)
}

// RecordInferenceFailure records a failed submission
func (m *Metrics) RecordInferenceFailure(durationSeconds float64) {
	m.InferenceFailures.Inc()
	m.RequestDuration.Observe(durationSeconds)
}

// GetSnapshot gathers the registry into a plain struct.
func (m *Metrics) GetSnapshot() (*Snapshot, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	s := &Snapshot{}
	for _, family := range families {
		switch family.GetName() {
		case "whisnote_recordings_saved_total":
			s.RecordingsSaved = counterValue(family)
		case "whisnote_runs_started_total":
			s.RunsStarted = counterValue(family)
		case "whisnote_runs_succeeded_total":
			s.RunsSucceeded = counterValue(family)
		case "whisnote_runs_failed_total":
			s.RunsFailed = counterValue(family)
		case "whisnote_chunks_planned_total":
			s.ChunksPlanned = counterValue(family)
		case "whisnote_chunks_transcribed_total":
			s.ChunksTranscribed = counterValue(family)
		case "whisnote_chunks_failed_total":
			s.ChunksFailed = counterValue(family)
		case "whisnote_inference_requests_total":
			s.InferenceRequests = counterValue(family)
		case "whisnote_inference_successes_total":
			s.InferenceSuccesses = counterValue(family)
		case "whisnote_inference_failures_total":
			s.InferenceFailures = counterValue(family)
		case "whisnote_upload_bytes_total":
			s.BytesUploaded = counterValue(family)
		case "whisnote_request_duration_seconds":
			s.RequestCount, s.RequestSeconds = histogramValue(family)
		}
	}
	return s, nil
}

func counterValue(family *dto.MetricFamily) float64 {
	if len(family.Metric) == 0 {
		return 0
	}
	return family.Metric[0].GetCounter().GetValue()
}

func histogramValue(family *dto.MetricFamily) (uint64, float64) {
	if len(family.Metric) == 0 {
		return 0, 0
	}
	h := family.Metric[0].GetHistogram()
	return h.GetSampleCount(), h.GetSampleSum()
}
