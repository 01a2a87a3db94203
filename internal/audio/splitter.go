package audio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Chunk is one time-bounded slice of a source file written to disk
type Chunk struct {
	Path        string
	Index       int
	StartSample int
	EndSample   int
}

// Splitter cuts a source WAV file into ordered, overlapping chunk files
type Splitter struct {
	logger *slog.Logger
}

// NewSplitter creates a splitter that logs through the given logger
func NewSplitter(logger *slog.Logger) *Splitter {
	return &Splitter{logger: logger}
}

// Split cuts the source into chunk files in outputDir according to the plan.
// Consecutive chunks share plan.OverlapSeconds of audio so their transcripts
// can be stitched back together.
//
// Any failure degrades to a single-element result holding the unmodified
// source: callers must treat length one as "proceed without splitting" and
// must not clean that element up.
func (s *Splitter) Split(sourcePath, outputDir string, plan ChunkPlan) []Chunk {
	sourceOnly := []Chunk{{Path: sourcePath, Index: 0}}

	samples, sampleRate, err := ReadSamples(sourcePath)
	if err != nil {
		s.logger.Warn("Failed to read source audio, proceeding unsplit",
			slog.String("source", sourcePath),
			slog.String("error", err.Error()),
		)
		return sourceOnly
	}

	chunkSamples := int(plan.ChunkDuration * float64(sampleRate))
	overlapSamples := int(plan.OverlapSeconds * float64(sampleRate))
	total := len(samples)

	if chunkSamples <= 0 || overlapSamples >= chunkSamples {
		s.logger.Warn("Unusable chunk plan, proceeding unsplit",
			slog.String("source", sourcePath),
			slog.Float64("chunk_duration", plan.ChunkDuration),
			slog.Float64("overlap_seconds", plan.OverlapSeconds),
		)
		return sourceOnly
	}

	// A plan whose chunk covers the whole file means there is nothing to cut.
	if total <= chunkSamples {
		return sourceOnly
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		s.logger.Warn("Failed to create chunk directory, proceeding unsplit",
			slog.String("dir", outputDir),
			slog.String("error", err.Error()),
		)
		return sourceOnly
	}

	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))

	var chunks []Chunk
	start := 0
	index := 0

	for {
		end := start + chunkSamples
		if end > total {
			end = total
		}

		path := filepath.Join(outputDir, fmt.Sprintf("%s_chunk_%03d.wav", stem, index))
		if err := WriteSamples(path, samples[start:end], sampleRate); err != nil {
			s.logger.Warn("Failed to write chunk, proceeding unsplit",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			s.Cleanup(chunks)
			return sourceOnly
		}

		chunks = append(chunks, Chunk{
			Path:        path,
			Index:       index,
			StartSample: start,
			EndSample:   end,
		})

		s.logger.Debug("Chunk written",
			slog.String("path", path),
			slog.Int("index", index),
			slog.Int("start_sample", start),
			slog.Int("end_sample", end),
		)

		if end == total {
			break
		}

		start = end - overlapSamples
		index++
	}

	s.logger.Info("Source split into chunks",
		slog.String("source", sourcePath),
		slog.Int("chunks", len(chunks)),
		slog.Float64("chunk_duration", plan.ChunkDuration),
		slog.Float64("overlap_seconds", plan.OverlapSeconds),
	)

	return chunks
}

// Cleanup deletes chunk files. Individual failures are logged and do not
// stop the remaining deletions.
func (s *Splitter) Cleanup(chunks []Chunk) {
	for _, chunk := range chunks {
		if err := os.Remove(chunk.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove chunk file",
				slog.String("path", chunk.Path),
				slog.String("error", err.Error()),
			)
		}
	}
}
