// Package output persists transcripts as Markdown: one standalone document
// per transcription with a metadata header, plus an optional shared daily
// log that collects the day's notes in order.
package output
