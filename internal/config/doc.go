// Package config provides configuration loading and validation for the
// voice transcription tool. It handles YAML-based configuration with struct
// validation; every field has a default so the tool runs without a file.
package config
