// Package pipeline drives a transcription run end to end: validate and
// probe the source, plan the split, cut oversized audio into overlapping
// chunks, upload them one at a time, and stitch the surviving texts back
// together. One failed chunk costs its stretch of audio, never the run;
// a run fails only when no chunk produced text. Chunk files are temporary
// and removed whatever the outcome, while the source file is never touched.
package pipeline
