package metrics

import "testing"

func TestSnapshotReflectsRecordedValues(t *testing.T) {
	m := NewMetrics()

	m.RecordRecordingSaved()
	m.RecordRunStarted()
	m.RecordRunSucceeded()
	m.RecordChunkPlanned(120)
	m.RecordChunkPlanned(90)
	m.RecordChunkTranscribed()
	m.RecordChunkFailed()
	m.RecordInferenceRequest(1024)
	m.RecordInferenceRequest(2048)
	m.RecordInferenceSuccess(0.5)
	m.RecordInferenceFailure(1.5)

	s, err := m.GetSnapshot()
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}

	if s.RecordingsSaved != 1 {
		t.Errorf("RecordingsSaved = %v, want 1", s.RecordingsSaved)
	}
	if s.RunsStarted != 1 || s.RunsSucceeded != 1 || s.RunsFailed != 0 {
		t.Errorf("run counters = %v/%v/%v, want 1/1/0", s.RunsStarted, s.RunsSucceeded, s.RunsFailed)
	}
	if s.ChunksPlanned != 2 || s.ChunksTranscribed != 1 || s.ChunksFailed != 1 {
		t.Errorf("chunk counters = %v/%v/%v, want 2/1/1", s.ChunksPlanned, s.ChunksTranscribed, s.ChunksFailed)
	}
	if s.InferenceRequests != 2 || s.InferenceSuccesses != 1 || s.InferenceFailures != 1 {
		t.Errorf("inference counters = %v/%v/%v, want 2/1/1", s.InferenceRequests, s.InferenceSuccesses, s.InferenceFailures)
	}
	if s.BytesUploaded != 3072 {
		t.Errorf("BytesUploaded = %v, want 3072", s.BytesUploaded)
	}
	if s.RequestCount != 2 {
		t.Errorf("RequestCount = %v, want 2", s.RequestCount)
	}
	if s.RequestSeconds != 2.0 {
		t.Errorf("RequestSeconds = %v, want 2.0", s.RequestSeconds)
	}
}

func TestIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordRunStarted()

	sb, err := b.GetSnapshot()
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}
	if sb.RunsStarted != 0 {
		t.Errorf("registries are shared: RunsStarted = %v, want 0", sb.RunsStarted)
	}
}
