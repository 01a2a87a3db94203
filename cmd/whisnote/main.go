package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/williamswang23/Whisnote/internal/audio"
	"github.com/williamswang23/Whisnote/internal/config"
	"github.com/williamswang23/Whisnote/internal/keychain"
	"github.com/williamswang23/Whisnote/internal/metrics"
	"github.com/williamswang23/Whisnote/internal/output"
	"github.com/williamswang23/Whisnote/internal/pipeline"
	"github.com/williamswang23/Whisnote/internal/record"
	"github.com/williamswang23/Whisnote/internal/transcription"
)

const (
	serviceName    = "whisnote"
	serviceVersion = "1.0.0"
)

func main() {
	// A .env file is optional and never overrides the real environment.
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:]))
}

// run dispatches the subcommand. With no command named, record is assumed
// so plain `whisnote` starts a recording immediately.
func run(args []string) int {
	cmd := "record"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "record", "r":
		return runRecord(args)
	case "transcribe", "t":
		return runTranscribe(args)
	case "status":
		return runStatus(args)
	case "config":
		return runConfig(args)
	case "version":
		fmt.Printf("%s %s\n", serviceName, serviceVersion)
		return 0
	case "help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printUsage()
		return 1
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

// newFlagSet creates a subcommand flag set carrying the flags every
// command accepts.
func newFlagSet(name string) (*flag.FlagSet, *globalFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	g := &globalFlags{}
	fs.StringVar(&g.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&g.logLevel, "log-level", "", "Override configured log level (debug, info, warn, error)")
	return fs, g
}

// setup loads the configuration and builds the logger. Without -config the
// default path is used when present, otherwise built-in defaults apply so
// the tool runs with zero setup.
func setup(g *globalFlags) (*config.Config, *slog.Logger, error) {
	path := g.configPath
	if path == "" && fileExists(config.DefaultConfigPath) {
		path = config.DefaultConfigPath
	}

	var cfg *config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
		if err := cfg.Logging.Validate(); err != nil {
			return nil, nil, err
		}
	}

	logger := initLogger(cfg.Logging)
	if path == "" {
		path = "(defaults)"
	}
	logger.Debug("Configuration ready",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config", path),
	)
	return cfg, logger, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// runRecord captures a take from the microphone, asks for confirmation,
// then transcribes and saves the result.
func runRecord(args []string) int {
	fs, g := newFlagSet("record")
	maxDuration := fs.Int("max-duration", 0, "Recording limit in seconds (0 uses the configured default)")
	language := fs.String("language", "", "Expected audio language (overrides config)")
	noDailyLog := fs.Bool("no-daily-log", false, "Skip the shared daily log")
	if err := fs.Parse(args); err != nil {
		return flagExitCode(err)
	}

	cfg, logger, err := setup(g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	lang, ok := resolveLanguage(cfg, *language)
	if !ok {
		return 1
	}

	limit := cfg.Recording.GetDefaultDuration()
	if *maxDuration > 0 {
		limit = time.Duration(*maxDuration) * time.Second
		if hardStop := cfg.Recording.GetMaxDuration(); limit > hardStop {
			logger.Warn("Requested duration exceeds the configured maximum, clamping",
				slog.Int("requested_seconds", *maxDuration),
				slog.Int("max_seconds", cfg.Recording.MaxDuration),
			)
			limit = hardStop
		}
	}

	// Resolve the token before touching the microphone so a missing key
	// fails before a long recording, not after.
	cred, err := keychain.NewProvider(logger).Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	appMetrics := metrics.NewMetrics()
	pipe, err := buildPipeline(cfg, cred.Token, appMetrics, logger)
	if err != nil {
		logger.Error("Failed to initialize transcription pipeline", slog.String("error", err.Error()))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lines := consoleLines()

	recorder := record.NewRecorder(record.Config{
		SampleRate:      cfg.Audio.SampleRate,
		Channels:        cfg.Audio.Channels,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
	}, logger)

	fmt.Printf("Recording (up to %s). Press 'q' + Enter to stop, Ctrl+C to abort.\n", limit)

	recCtx, stopRecording := context.WithCancel(ctx)
	stopDone := make(chan struct{})
	go func() {
		defer close(stopDone)
		for {
			select {
			case <-recCtx.Done():
				return
			case line, ok := <-lines:
				// Closed stdin stops the take like "q" does; any other
				// input is ignored while recording.
				if !ok || strings.ToLower(strings.TrimSpace(line)) == "q" {
					stopRecording()
					return
				}
			}
		}
	}()

	rec, err := recorder.Record(recCtx, limit, cfg.Recording.OutputDir)
	stopRecording()
	<-stopDone
	if err != nil {
		logger.Error("Recording failed", slog.String("error", err.Error()))
		return 1
	}
	appMetrics.RecordRecordingSaved()

	fmt.Printf("Recording saved: %s (%.1fs, %.2f MB)\n",
		rec.Path, rec.DurationSeconds, float64(rec.SizeBytes)/(1024*1024))

	if ctx.Err() != nil {
		// The file stays on disk for a later `transcribe` run.
		fmt.Println("Interrupted, keeping the recording without transcribing.")
		return 1
	}

	if !confirm(lines, "Upload and transcribe this recording?") {
		if err := os.Remove(rec.Path); err != nil {
			logger.Warn("Failed to remove discarded recording", slog.String("error", err.Error()))
		}
		fmt.Println("Recording discarded.")
		return 1
	}

	res, err := pipe.Run(ctx, rec.Path, lang)
	if err != nil {
		logger.Error("Transcription failed", slog.String("error", err.Error()))
		return 1
	}

	return saveResult(cfg, logger, appMetrics, res, !*noDailyLog)
}

// runTranscribe sends an existing WAV file through the pipeline.
func runTranscribe(args []string) int {
	fs, g := newFlagSet("transcribe")
	language := fs.String("language", "", "Expected audio language (overrides config)")
	noDailyLog := fs.Bool("no-daily-log", false, "Skip the shared daily log")
	if err := fs.Parse(args); err != nil {
		return flagExitCode(err)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s transcribe [flags] <audio.wav>\n", serviceName)
		return 1
	}
	sourcePath := fs.Arg(0)

	cfg, logger, err := setup(g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	lang, ok := resolveLanguage(cfg, *language)
	if !ok {
		return 1
	}

	cred, err := keychain.NewProvider(logger).Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	appMetrics := metrics.NewMetrics()
	pipe, err := buildPipeline(cfg, cred.Token, appMetrics, logger)
	if err != nil {
		logger.Error("Failed to initialize transcription pipeline", slog.String("error", err.Error()))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipe.Run(ctx, sourcePath, lang)
	if err != nil {
		logger.Error("Transcription failed", slog.String("error", err.Error()))
		return 1
	}

	return saveResult(cfg, logger, appMetrics, res, !*noDailyLog)
}

// runStatus reports credential, output directory, and device state.
func runStatus(args []string) int {
	fs, g := newFlagSet("status")
	if err := fs.Parse(args); err != nil {
		return flagExitCode(err)
	}

	cfg, logger, err := setup(g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	fmt.Printf("%s %s\n\n", serviceName, serviceVersion)

	if cred, err := keychain.NewProvider(logger).Resolve(); err != nil {
		fmt.Println("API token:  not configured")
		fmt.Printf("            %v\n", err)
	} else {
		fmt.Printf("API token:  configured via %s\n", cred.Source)
	}
	fmt.Printf("Endpoint:   %s\n", cfg.Transcription.BaseURL)
	fmt.Printf("Model:      %s\n\n", cfg.Transcription.Model)

	writer := output.NewWriter(cfg.Recording.OutputDir, logger)
	if stats, err := writer.GetStats(); err != nil {
		fmt.Printf("Output:     unavailable (%v)\n", err)
	} else {
		fmt.Printf("Output:     %s (%d files, %.2f MB)\n", stats.OutputDir, stats.TotalFiles, stats.TotalSizeMB)
		for _, name := range stats.RecentFiles {
			fmt.Printf("  - %s\n", name)
		}
	}
	fmt.Println()

	if devices, err := record.ListInputDevices(); err != nil {
		fmt.Printf("Input devices: unavailable (%v)\n", err)
	} else if len(devices) == 0 {
		fmt.Println("Input devices: none found")
	} else {
		fmt.Println("Input devices:")
		for _, d := range devices {
			marker := " "
			if d.Default {
				marker = "*"
			}
			fmt.Printf("  %s [%d] %s (%d ch, %.0f Hz)\n", marker, d.Index, d.Name, d.Channels, d.SampleRate)
		}
	}
	fmt.Println()

	fmt.Println("Supported languages:")
	for _, l := range transcription.SupportedLanguages() {
		fmt.Printf("  %-5s %s\n", l.Code, l.Name)
	}

	return 0
}

// runConfig prints the effective configuration. The API token is not part
// of the configuration, so it never appears here.
func runConfig(args []string) int {
	fs, g := newFlagSet("config")
	if err := fs.Parse(args); err != nil {
		return flagExitCode(err)
	}

	cfg, _, err := setup(g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render configuration: %v\n", err)
		return 1
	}
	os.Stdout.Write(data)
	return 0
}

// resolveLanguage applies the flag override and validates the result before
// any audio is captured or uploaded.
func resolveLanguage(cfg *config.Config, override string) (string, bool) {
	lang := cfg.Transcription.Language
	if override != "" {
		lang = override
	}
	if !transcription.IsSupportedLanguage(lang) {
		fmt.Fprintf(os.Stderr, "Unsupported language %q, run '%s status' for the list\n", lang, serviceName)
		return "", false
	}
	return lang, true
}

// buildPipeline assembles the transcription pipeline from the configuration.
func buildPipeline(cfg *config.Config, token string, m *metrics.Metrics, logger *slog.Logger) (*pipeline.Pipeline, error) {
	return pipeline.New(pipeline.Config{
		Planner: audio.PlannerConfig{
			MaxFileSizeBytes:      cfg.Splitter.GetMaxFileSizeBytes(),
			OverlapSeconds:        cfg.Splitter.OverlapSeconds,
			MinChunkDuration:      cfg.Splitter.MinChunkDuration,
			MaxChunkDuration:      cfg.Splitter.MaxChunkDuration,
			FallbackChunkDuration: cfg.Splitter.FallbackChunkDuration,
		},
		Transcription: transcription.Config{
			BaseURL:                cfg.Transcription.BaseURL,
			Model:                  cfg.Transcription.Model,
			TimestampedModel:       cfg.Transcription.TimestampedModel,
			APIKey:                 token,
			Timeout:                cfg.Transcription.GetTimeoutDuration(),
			UseTimestampedFallback: cfg.Transcription.UseTimestampedFallback,
		},
		Repair: transcription.RepairConfig{
			PunctuationDensity: cfg.Repair.PunctuationDensity,
			SpacingDensity:     cfg.Repair.SpacingDensity,
		},
		TempDir:    cfg.Splitter.TempDir,
		ChunkPause: cfg.Transcription.GetChunkPauseDuration(),
	}, m, logger)
}

// saveResult persists the transcript, prints a preview, and logs the run
// counters. A failed save still prints the transcript so the run's work is
// not lost.
func saveResult(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, res *pipeline.Result, dailyLog bool) int {
	meta := output.Metadata{
		Language:         res.Language,
		WordCount:        output.CountWords(res.Transcript),
		CharacterCount:   utf8.RuneCountInString(res.Transcript),
		SourceFile:       res.Source,
		ProcessingMethod: res.Method,
	}
	if res.Info != nil {
		meta.DurationSeconds = res.Info.Duration
		meta.FileSizeMB = float64(res.Info.SizeBytes) / (1024 * 1024)
	}

	writer := output.NewWriter(cfg.Recording.OutputDir, logger)

	path, err := writer.SaveTranscript(res.Transcript, meta)
	if err != nil {
		logger.Error("Failed to save transcript", slog.String("error", err.Error()))
		fmt.Println(res.Transcript)
		return 1
	}

	if dailyLog && cfg.Output.DailyLog {
		if err := writer.AppendDailyLog(res.Transcript, meta); err != nil {
			logger.Warn("Failed to update daily log", slog.String("error", err.Error()))
		}
	}

	fmt.Printf("Transcript saved: %s\n", path)
	printPreview(res.Transcript)
	logRunMetrics(logger, m)
	return 0
}

// printPreview shows the opening of the transcript without flooding the
// console.
func printPreview(text string) {
	const previewRunes = 120
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > previewRunes {
		fmt.Printf("%s...\n", string(runes[:previewRunes]))
		return
	}
	fmt.Println(string(runes))
}

func logRunMetrics(logger *slog.Logger, m *metrics.Metrics) {
	snap, err := m.GetSnapshot()
	if err != nil {
		logger.Warn("Failed to collect metrics snapshot", slog.String("error", err.Error()))
		return
	}
	logger.Info("Run metrics",
		slog.Float64("chunks_planned", snap.ChunksPlanned),
		slog.Float64("chunks_transcribed", snap.ChunksTranscribed),
		slog.Float64("chunks_failed", snap.ChunksFailed),
		slog.Float64("bytes_uploaded", snap.BytesUploaded),
		slog.Uint64("requests", snap.RequestCount),
		slog.Float64("request_seconds", snap.RequestSeconds),
	)
}

// consoleLines exposes stdin lines on a channel so the recording stop
// listener and the upload prompt can share one reader.
func consoleLines() <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// confirm prompts on stdout and reads the reply from the shared console
// reader. Empty input and a closed stdin both count as yes.
func confirm(lines <-chan string, prompt string) bool {
	fmt.Printf("%s [Y/n] ", prompt)
	line, ok := <-lines
	if !ok {
		fmt.Println()
		return true
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

func flagExitCode(err error) int {
	if err == flag.ErrHelp {
		return 0
	}
	return 1
}

// initLogger creates the structured logger from the logging configuration.
// Logs go to stderr by default so stdout stays clean for transcripts.
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	out := os.Stderr
	if cfg.Output == "stdout" {
		out = os.Stdout
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

func printUsage() {
	fmt.Printf(`%s %s - voice notes through a remote Whisper model

Usage:
  %s [command] [flags]

Commands:
  record      Record from the microphone and transcribe (default)
  transcribe  Transcribe an existing WAV file
  status      Show credential, device, and output directory state
  config      Print the effective configuration
  version     Print the version

Flags common to all commands:
  -config string      Path to configuration file (default %q when present)
  -log-level string   Override configured log level (debug, info, warn, error)

record flags:
  -max-duration int   Recording limit in seconds (0 uses the configured default)
  -language string    Expected audio language (overrides config)
  -no-daily-log       Skip the shared daily log

transcribe flags:
  -language string    Expected audio language (overrides config)
  -no-daily-log       Skip the shared daily log

Examples:
  %s                                    record with defaults, confirm upload
  %s record -max-duration 120
  %s transcribe -language en meeting.wav
  %s status
`, serviceName, serviceVersion, serviceName, config.DefaultConfigPath,
		serviceName, serviceName, serviceName, serviceName)
}
