// Package transcript assembles per-chunk transcription results into one
// text. Adjacent chunks share a few seconds of audio, so their texts usually
// repeat a handful of words at the seam; the combiner finds the widest
// matching word window and drops the duplicate before joining.
package transcript
