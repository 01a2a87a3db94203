// Package transcription implements the client for the remote Whisper
// inference API. It uploads audio files as multipart requests, inspects the
// returned text for structural adequacy, and falls back to a timestamped
// model to synthesize punctuation from segment timing when the primary
// result comes back as an unbroken run of characters.
package transcription
