package record

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/williamswang23/Whisnote/internal/audio"
)

// Config holds the capture stream parameters.
type Config struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

// Result describes a finished recording.
type Result struct {
	Path            string  `json:"path"`
	DurationSeconds float64 `json:"duration_seconds"`
	Samples         int     `json:"samples"`
	SizeBytes       int64   `json:"size_bytes"`
}

// Recorder captures microphone audio from the default input device.
type Recorder struct {
	cfg    Config
	logger *slog.Logger
}

// NewRecorder creates a recorder. Zero config fields fall back to
// 44.1kHz mono with 1024 frames per read.
func NewRecorder(cfg Config, logger *slog.Logger) *Recorder {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{cfg: cfg, logger: logger}
}

// Record captures audio until ctx is canceled or limit elapses, then
// writes the take to a timestamped WAV file under outputDir/audio.
// Whatever was captured before the limit hit is always saved.
func (r *Recorder) Record(ctx context.Context, limit time.Duration, outputDir string) (*Result, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("recording limit must be positive, got %v", limit)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize audio backend: %w", err)
	}
	defer portaudio.Terminate()

	in := make([]int16, r.cfg.FramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(r.cfg.Channels, 0, float64(r.cfg.SampleRate), len(in), in)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}
	defer stream.Stop()

	r.logger.Info("Recording started",
		slog.Int("sample_rate", r.cfg.SampleRate),
		slog.Int("channels", r.cfg.Channels),
		slog.Float64("limit_seconds", limit.Seconds()),
	)

	buf := NewCaptureBuffer(r.cfg.SampleRate)
	start := time.Now()
	var lastWarning time.Duration

loop:
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Recording stopped", slog.String("reason", "requested"))
			break loop
		default:
		}

		if err := stream.Read(); err != nil {
			r.logger.Warn("Input stream read failed", slog.String("error", err.Error()))
			continue
		}
		buf.AppendBlock(in)

		elapsed := time.Since(start)
		if elapsed >= limit {
			r.logger.Warn("Maximum recording duration reached, saving captured audio",
				slog.Float64("limit_seconds", limit.Seconds()))
			break
		}
		// Warnings begin one minute before the limit and repeat every 30s.
		if elapsed >= limit-time.Minute && elapsed >= lastWarning+30*time.Second {
			r.logger.Warn("Recording will stop automatically",
				slog.Int("remaining_seconds", int((limit-elapsed).Seconds())))
			lastWarning = elapsed
		}
	}

	if buf.Len() == 0 {
		return nil, fmt.Errorf("no audio captured")
	}

	path, err := r.save(buf, outputDir)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Path:            path,
		DurationSeconds: buf.Duration().Seconds(),
		Samples:         buf.Len(),
		SizeBytes:       buf.SizeBytes(),
	}
	r.logger.Info("Recording saved",
		slog.String("path", result.Path),
		slog.Float64("duration_seconds", result.DurationSeconds),
		slog.Int64("size_bytes", result.SizeBytes),
	)
	return result, nil
}

func (r *Recorder) save(buf *CaptureBuffer, outputDir string) (string, error) {
	dir := filepath.Join(outputDir, "audio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create recording directory: %w", err)
	}

	name := fmt.Sprintf("recorded_%s.wav", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := audio.WriteSamples(path, buf.Samples(), buf.SampleRate()); err != nil {
		return "", fmt.Errorf("failed to save recording: %w", err)
	}
	return path, nil
}
