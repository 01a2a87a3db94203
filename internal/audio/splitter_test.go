package audio

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTestWAV(t *testing.T, path string, sampleRate int, seconds float64) []int {
	t.Helper()
	samples := sineSamples(sampleRate, seconds)
	if err := WriteSamples(path, samples, sampleRate); err != nil {
		t.Fatalf("WriteSamples failed: %v", err)
	}
	return samples
}

func TestSplitCoverageAndStep(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "meeting.wav")
	outDir := filepath.Join(dir, "chunks")

	sampleRate := 8000
	samples := writeTestWAV(t, source, sampleRate, 2.5) // 20000 samples

	s := NewSplitter(testLogger())
	plan := ChunkPlan{NeedsSplit: true, ChunkDuration: 1.0, OverlapSeconds: 0.25}
	chunks := s.Split(source, outDir, plan)

	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}

	chunkSamples := int(plan.ChunkDuration * float64(sampleRate))
	overlapSamples := int(plan.OverlapSeconds * float64(sampleRate))
	total := len(samples)

	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("Chunk %d has index %d, want contiguous from 0", i, chunk.Index)
		}

		if i == 0 && chunk.StartSample != 0 {
			t.Errorf("First chunk starts at %d, want 0", chunk.StartSample)
		}

		if i > 0 {
			wantStart := chunks[i-1].EndSample - overlapSamples
			if chunk.StartSample != wantStart {
				t.Errorf("Chunk %d starts at %d, want %d (prev end %d - overlap %d)",
					i, chunk.StartSample, wantStart, chunks[i-1].EndSample, overlapSamples)
			}
		}

		wantEnd := chunk.StartSample + chunkSamples
		if wantEnd > total {
			wantEnd = total
		}
		if chunk.EndSample != wantEnd {
			t.Errorf("Chunk %d ends at %d, want %d", i, chunk.EndSample, wantEnd)
		}

		name := fmt.Sprintf("meeting_chunk_%03d.wav", i)
		if filepath.Base(chunk.Path) != name {
			t.Errorf("Chunk %d named %s, want %s", i, filepath.Base(chunk.Path), name)
		}
	}

	last := chunks[len(chunks)-1]
	if last.EndSample != total {
		t.Errorf("Last chunk ends at %d, want total %d", last.EndSample, total)
	}

	// Every chunk file must decode back to the exact slice it covers.
	for _, chunk := range chunks {
		got, gotRate, err := ReadSamples(chunk.Path)
		if err != nil {
			t.Fatalf("ReadSamples(%s) failed: %v", chunk.Path, err)
		}
		if gotRate != sampleRate {
			t.Errorf("Chunk %d sample rate %d, want %d", chunk.Index, gotRate, sampleRate)
		}
		if len(got) != chunk.EndSample-chunk.StartSample {
			t.Errorf("Chunk %d has %d samples, want %d",
				chunk.Index, len(got), chunk.EndSample-chunk.StartSample)
		}
		for j, v := range got {
			if v != samples[chunk.StartSample+j] {
				t.Fatalf("Chunk %d sample %d differs from source", chunk.Index, j)
			}
		}
	}
}

func TestSplitSingleChunkPlanProceedsUnsplit(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "short.wav")
	writeTestWAV(t, source, 8000, 0.5)

	s := NewSplitter(testLogger())
	// 2 s chunks cover the whole 0.5 s source.
	chunks := s.Split(source, filepath.Join(dir, "chunks"), ChunkPlan{ChunkDuration: 2.0, OverlapSeconds: 0.25})

	if len(chunks) != 1 {
		t.Fatalf("Expected single-element result, got %d", len(chunks))
	}
	if chunks[0].Path != source {
		t.Errorf("Expected degraded result to hold the source path, got %s", chunks[0].Path)
	}

	// Nothing may have been written.
	if _, err := os.Stat(filepath.Join(dir, "chunks")); !os.IsNotExist(err) {
		t.Error("Expected no chunk directory for an unsplit source")
	}
}

func TestSplitUnreadableSourceProceedsUnsplit(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "missing.wav")

	s := NewSplitter(testLogger())
	chunks := s.Split(source, filepath.Join(dir, "chunks"), ChunkPlan{ChunkDuration: 60, OverlapSeconds: 3})

	if len(chunks) != 1 || chunks[0].Path != source {
		t.Fatalf("Expected single-element degraded result, got %+v", chunks)
	}
}

func TestSplitBadOverlapProceedsUnsplit(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "tone.wav")
	writeTestWAV(t, source, 8000, 2.0)

	s := NewSplitter(testLogger())
	// Overlap not shorter than the chunk would never advance.
	chunks := s.Split(source, filepath.Join(dir, "chunks"), ChunkPlan{ChunkDuration: 0.5, OverlapSeconds: 0.5})

	if len(chunks) != 1 || chunks[0].Path != source {
		t.Fatalf("Expected single-element degraded result, got %+v", chunks)
	}
}

func TestSplitUnwritableDirProceedsUnsplit(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "tone.wav")
	writeTestWAV(t, source, 8000, 2.5)

	// A regular file where the chunk directory should go.
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	s := NewSplitter(testLogger())
	chunks := s.Split(source, blocked, ChunkPlan{ChunkDuration: 1.0, OverlapSeconds: 0.25})

	if len(chunks) != 1 || chunks[0].Path != source {
		t.Fatalf("Expected single-element degraded result, got %+v", chunks)
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "tone.wav")
	outDir := filepath.Join(dir, "chunks")
	writeTestWAV(t, source, 8000, 2.5)

	s := NewSplitter(testLogger())
	chunks := s.Split(source, outDir, ChunkPlan{ChunkDuration: 1.0, OverlapSeconds: 0.25})
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}

	s.Cleanup(chunks)

	for _, chunk := range chunks {
		if _, err := os.Stat(chunk.Path); !os.IsNotExist(err) {
			t.Errorf("Chunk file %s still exists after cleanup", chunk.Path)
		}
	}

	// The source must be untouched, and a second cleanup must not panic.
	if _, err := os.Stat(source); err != nil {
		t.Errorf("Source file missing after cleanup: %v", err)
	}
	s.Cleanup(chunks)
}
