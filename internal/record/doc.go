// Package record captures microphone audio through PortAudio and turns
// it into WAV takes the transcription pipeline can consume. Captures
// stop on request, on context cancellation, or when the configured
// maximum duration is reached, and the audio gathered so far is always
// written out.
package record
