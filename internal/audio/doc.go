// Package audio handles WAV file I/O, chunk planning, and splitting.
// It reads and writes mono 16-bit PCM files, decides when a file exceeds the
// upload size ceiling, and cuts oversized files into overlapping chunks for
// independent transcription.
package audio
