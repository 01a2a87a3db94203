package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/williamswang23/Whisnote/internal/audio"
	"github.com/williamswang23/Whisnote/internal/metrics"
	"github.com/williamswang23/Whisnote/internal/transcript"
	"github.com/williamswang23/Whisnote/internal/transcription"
)

// Config assembles the settings for one pipeline instance.
type Config struct {
	Planner       audio.PlannerConfig
	Transcription transcription.Config
	Repair        transcription.RepairConfig
	Combiner      transcript.Config

	// TempDir is the root under which per-run chunk directories are created.
	TempDir string
	// ChunkPause is the fixed pause between chunk uploads.
	ChunkPause time.Duration
}

// Pipeline turns one audio file into one transcript.
type Pipeline struct {
	config   Config
	planner  *audio.Planner
	splitter *audio.Splitter
	client   *transcription.Client
	combiner *transcript.Combiner
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Result is the outcome of a successful run.
type Result struct {
	Transcript string
	Source     string
	Language   string
	Info       *audio.Info
	Method     string // "direct" or "chunked(N)"
	Stats      RunStats
}

// RunStats counts what one run did.
type RunStats struct {
	RunID             string
	ChunksPlanned     int
	ChunksTranscribed int
	ChunksFailed      int
	BytesUploaded     int64
	Elapsed           time.Duration
}

// chunkResult is the tagged per-chunk outcome: either text or a cause.
// Failed chunks stay in the list so ordering and diagnostics survive until
// the combine step filters them out.
type chunkResult struct {
	index  int
	source string
	text   string
	err    error
}

// New creates a pipeline from the given configuration.
func New(config Config, m *metrics.Metrics, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewMetrics()
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}

	repairer := transcription.NewRepairer(config.Repair)
	client, err := transcription.NewClient(config.Transcription, repairer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription client: %w", err)
	}

	return &Pipeline{
		config:   config,
		planner:  audio.NewPlanner(config.Planner),
		splitter: audio.NewSplitter(logger),
		client:   client,
		combiner: transcript.NewCombiner(config.Combiner),
		metrics:  m,
		logger:   logger,
	}, nil
}

// GetClientStats exposes the inference client's request counters.
func (p *Pipeline) GetClientStats() transcription.ClientStats {
	return p.client.GetStats()
}

// Run transcribes one source file. The context is honored between chunk
// uploads; an upload already in flight runs to its own timeout.
func (p *Pipeline) Run(ctx context.Context, sourcePath, language string) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With(slog.String("run_id", runID))
	started := time.Now()

	p.metrics.RecordRunStarted()

	if err := audio.ValidateFile(sourcePath); err != nil {
		p.metrics.RecordRunFailed()
		return nil, err
	}

	info, err := audio.Probe(sourcePath)
	if err != nil {
		// A metadata problem must not block the run: splitting still works
		// from the byte size alone, with the fallback chunk duration.
		logger.Warn("Failed to probe source audio, planning with fallback duration",
			slog.String("source", sourcePath),
			slog.String("error", err.Error()),
		)
		stat, statErr := os.Stat(sourcePath)
		if statErr != nil {
			p.metrics.RecordRunFailed()
			return nil, fmt.Errorf("failed to stat audio file %s: %w", sourcePath, statErr)
		}
		info = &audio.Info{SizeBytes: stat.Size()}
	}

	plan := p.planner.Plan(info.SizeBytes, info.Duration)

	logger.Info("Transcription run started",
		slog.String("source", filepath.Base(sourcePath)),
		slog.String("language", language),
		slog.Int64("size_bytes", info.SizeBytes),
		slog.Float64("duration_seconds", info.Duration),
		slog.Bool("needs_split", plan.NeedsSplit),
	)

	var result *Result
	if plan.NeedsSplit {
		result, err = p.runChunked(ctx, logger, sourcePath, language, info, plan)
	} else {
		result, err = p.runDirect(ctx, logger, sourcePath, language, info)
	}
	if err != nil {
		p.metrics.RecordRunFailed()
		return nil, err
	}

	result.Stats.RunID = runID
	result.Stats.Elapsed = time.Since(started)
	p.metrics.RecordRunSucceeded()

	logger.Info("Transcription run completed",
		slog.String("method", result.Method),
		slog.Int("chunks_transcribed", result.Stats.ChunksTranscribed),
		slog.Int("chunks_failed", result.Stats.ChunksFailed),
		slog.Int64("bytes_uploaded", result.Stats.BytesUploaded),
		slog.Int("transcript_runes", utf8.RuneCountInString(result.Transcript)),
		slog.Duration("elapsed", result.Stats.Elapsed),
	)

	return result, nil
}

// runDirect uploads the source as a single unit.
func (p *Pipeline) runDirect(ctx context.Context, logger *slog.Logger, sourcePath, language string, info *audio.Info) (*Result, error) {
	logger.Debug("Uploading source as a single unit",
		slog.String("file", filepath.Base(sourcePath)))

	text, uploaded, err := p.transcribeUnit(ctx, sourcePath, language)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	if text == "" {
		return nil, fmt.Errorf("transcription produced no text for %s", filepath.Base(sourcePath))
	}

	return &Result{
		Transcript: strings.TrimSpace(text),
		Source:     sourcePath,
		Language:   language,
		Info:       info,
		Method:     "direct",
		Stats: RunStats{
			ChunksPlanned:     1,
			ChunksTranscribed: 1,
			BytesUploaded:     uploaded,
		},
	}, nil
}

// runChunked splits the source and uploads the chunks one at a time,
// pausing between uploads. Failed chunks are skipped; the run fails only
// when nothing survived. Chunk files and their directory are removed on
// every path out.
func (p *Pipeline) runChunked(ctx context.Context, logger *slog.Logger, sourcePath, language string, info *audio.Info, plan audio.ChunkPlan) (*Result, error) {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	workDir := filepath.Join(p.config.TempDir, "chunks_"+stem)

	logger.Info("File exceeds upload ceiling, splitting",
		slog.Float64("size_mb", float64(info.SizeBytes)/(1024*1024)),
		slog.Float64("chunk_duration", plan.ChunkDuration),
		slog.Float64("overlap_seconds", plan.OverlapSeconds),
		slog.String("work_dir", workDir),
	)

	chunks := p.splitter.Split(sourcePath, workDir, plan)
	if len(chunks) == 1 {
		// Degraded split: the single element is the source itself and must
		// not be cleaned up.
		p.removeWorkDir(logger, workDir)
		logger.Warn("Splitting unavailable, transcribing the source unsplit",
			slog.String("source", filepath.Base(sourcePath)))
		return p.runDirect(ctx, logger, sourcePath, language, info)
	}

	defer func() {
		p.splitter.Cleanup(chunks)
		p.removeWorkDir(logger, workDir)
	}()

	for _, chunk := range chunks {
		p.metrics.RecordChunkPlanned(chunkSeconds(chunk, info.SampleRate))
	}

	var bytesUploaded int64
	results := make([]chunkResult, 0, len(chunks))

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			logger.Warn("Run canceled, skipping remaining chunks",
				slog.Int("completed", i),
				slog.Int("remaining", len(chunks)-i),
			)
			break
		}

		logger.Info("Transcribing chunk",
			slog.Int("chunk", i+1),
			slog.Int("total", len(chunks)),
			slog.String("file", filepath.Base(chunk.Path)),
		)

		text, uploaded, err := p.transcribeUnit(ctx, chunk.Path, language)
		bytesUploaded += uploaded

		switch {
		case err != nil:
			logger.Warn("Chunk failed, continuing with remaining chunks",
				slog.Int("chunk_index", chunk.Index),
				slog.String("error", err.Error()),
			)
			p.metrics.RecordChunkFailed()
			results = append(results, chunkResult{index: chunk.Index, source: filepath.Base(chunk.Path), err: err})
		case text == "":
			logger.Warn("Chunk produced no text, continuing with remaining chunks",
				slog.Int("chunk_index", chunk.Index),
			)
			p.metrics.RecordChunkFailed()
			results = append(results, chunkResult{index: chunk.Index, source: filepath.Base(chunk.Path), err: fmt.Errorf("empty transcription result")})
		default:
			p.metrics.RecordChunkTranscribed()
			results = append(results, chunkResult{index: chunk.Index, source: filepath.Base(chunk.Path), text: strings.TrimSpace(text)})
		}

		// Fixed pause between uploads so sequential chunks do not hammer
		// the service. Skipped after the last chunk.
		if i < len(chunks)-1 && p.config.ChunkPause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(p.config.ChunkPause):
			}
		}
	}

	segments := make([]transcript.Segment, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			continue
		}
		segments = append(segments, transcript.Segment{Index: r.index, Text: r.text, Source: r.source})
	}
	failed := len(chunks) - len(segments)

	if len(segments) == 0 {
		return nil, fmt.Errorf("no chunks produced a transcript (%d of %d failed)", failed, len(chunks))
	}

	if failed > 0 {
		logger.Warn("Transcript assembled with gaps",
			slog.Int("chunks_failed", failed),
			slog.Int("chunks_total", len(chunks)),
		)
	}

	combined := p.combiner.Combine(segments)

	return &Result{
		Transcript: combined,
		Source:     sourcePath,
		Language:   language,
		Info:       info,
		Method:     fmt.Sprintf("chunked(%d)", len(chunks)),
		Stats: RunStats{
			ChunksPlanned:     len(chunks),
			ChunksTranscribed: len(segments),
			ChunksFailed:      failed,
			BytesUploaded:     bytesUploaded,
		},
	}, nil
}

// transcribeUnit uploads one audio file and reports its text, the payload
// size, and the failure cause, recording request metrics either way.
func (p *Pipeline) transcribeUnit(ctx context.Context, path, language string) (string, int64, error) {
	var uploaded int64
	if stat, err := os.Stat(path); err == nil {
		uploaded = stat.Size()
	}

	p.metrics.RecordInferenceRequest(uploaded)
	started := time.Now()

	text, err := p.client.Transcribe(ctx, path, language)
	elapsed := time.Since(started)
	if err != nil {
		p.metrics.RecordInferenceFailure(elapsed.Seconds())
		return "", uploaded, err
	}

	p.metrics.RecordInferenceSuccess(elapsed.Seconds())
	return text, uploaded, nil
}

// removeWorkDir removes the per-run chunk directory. Failures are logged
// and never affect the run outcome.
func (p *Pipeline) removeWorkDir(logger *slog.Logger, workDir string) {
	if err := os.Remove(workDir); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove chunk directory",
			slog.String("dir", workDir),
			slog.String("error", err.Error()),
		)
	}
}

// chunkSeconds derives a chunk's audio duration from its sample bounds.
func chunkSeconds(chunk audio.Chunk, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(chunk.EndSample-chunk.StartSample) / float64(sampleRate)
}
