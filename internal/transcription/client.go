package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Client is the HTTP client for the Whisper inference API. Requests are
// submitted one at a time by the pipeline, so the client carries no rate
// limiting of its own and never retries; a failed upload is reported to the
// caller, which decides whether to skip the chunk or fail the run.
type Client struct {
	config     Config
	httpClient *http.Client
	repairer   *Repairer
	logger     *slog.Logger

	// Statistics
	totalRequests   uint64
	successRequests uint64
	failedRequests  uint64
	avgResponseTime time.Duration

	mu sync.RWMutex
}

// Config contains inference client configuration.
type Config struct {
	BaseURL                string
	Model                  string
	TimestampedModel       string
	APIKey                 string
	Timeout                time.Duration
	UseTimestampedFallback bool
}

// InferenceResponse is the subset of the service response the pipeline
// consumes.
type InferenceResponse struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Segment is a time-stamped span of transcribed text, returned by the
// timestamped model and consumed by punctuation repair.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// ClientStats represents client statistics.
type ClientStats struct {
	TotalRequests   uint64        `json:"total_requests"`
	SuccessRequests uint64        `json:"success_requests"`
	FailedRequests  uint64        `json:"failed_requests"`
	SuccessRate     float64       `json:"success_rate"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
}

// NewClient creates a new inference API client.
func NewClient(config Config, repairer *Repairer, logger *slog.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	if config.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	if config.UseTimestampedFallback && config.TimestampedModel == "" {
		return nil, fmt.Errorf("timestamped model cannot be empty when the timestamped fallback is enabled")
	}

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	if repairer == nil {
		repairer = NewRepairer(RepairConfig{})
	}

	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		repairer:   repairer,
		logger:     logger,
	}, nil
}

// Transcribe uploads one audio file to the primary model and returns its
// text. An empty string with a nil error means the service produced no
// text; callers treat both outcomes as a failed unit. When the primary
// result lacks both punctuation and word spacing, and the language is
// Chinese or auto-detected, the timestamped model is tried and its repaired
// output replaces the original only when strictly longer.
func (c *Client) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	resp, err := c.infer(ctx, c.config.Model, audioPath, language)
	if err != nil {
		return "", err
	}

	text := resp.Text
	switch {
	case c.repairer.AdequatePunctuation(text):
		c.logger.Debug("Transcript already punctuated, using as-is",
			slog.String("file", filepath.Base(audioPath)))
	case c.repairer.HasWordSpacing(text):
		c.logger.Debug("Transcript has word spacing, using as-is",
			slog.String("file", filepath.Base(audioPath)))
	case c.config.UseTimestampedFallback && (language == "zh" || language == "auto"):
		text = c.improveWithTimestamps(ctx, audioPath, language, text)
	}

	if text == "" {
		c.logger.Warn("Empty transcription result",
			slog.String("file", filepath.Base(audioPath)),
			slog.String("model", c.config.Model))
		return "", nil
	}

	return text, nil
}

// improveWithTimestamps retries the upload against the timestamped model and
// repairs punctuation from segment timing. Any failure keeps the original
// text; the repaired text wins only when strictly longer.
func (c *Client) improveWithTimestamps(ctx context.Context, audioPath, language, original string) string {
	c.logger.Info("Transcript lacks punctuation and spacing, trying timestamped model",
		slog.String("file", filepath.Base(audioPath)),
		slog.String("model", c.config.TimestampedModel))

	resp, err := c.infer(ctx, c.config.TimestampedModel, audioPath, language)
	if err != nil {
		c.logger.Warn("Timestamped model failed, keeping original transcript",
			slog.String("error", err.Error()))
		return original
	}

	improved := c.repairer.Repair(resp)
	if utf8.RuneCountInString(improved) > utf8.RuneCountInString(original) {
		c.logger.Info("Punctuation repaired from segment timing",
			slog.Int("original_runes", utf8.RuneCountInString(original)),
			slog.Int("repaired_runes", utf8.RuneCountInString(improved)))
		return improved
	}

	c.logger.Debug("Timestamped result no better, keeping original transcript")
	return original
}

// infer performs a single HTTP request against one model.
func (c *Client) infer(ctx context.Context, model, audioPath, language string) (*InferenceResponse, error) {
	c.incrementTotalRequests()
	startTime := time.Now()

	body, contentType, err := createMultipartBody(audioPath, language)
	if err != nil {
		c.incrementFailedRequests()
		return nil, err
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/" + model

	// An upload in flight is bounded only by the client timeout; run
	// cancellation applies between chunks, never mid-request.
	httpReq, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodPost, url, body)
	if err != nil {
		c.incrementFailedRequests()
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug("Uploading audio for inference",
		slog.String("model", model),
		slog.String("file", filepath.Base(audioPath)),
		slog.String("language", language))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.incrementFailedRequests()
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.incrementFailedRequests()
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.incrementFailedRequests()
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var inferenceResp InferenceResponse
	if err := json.Unmarshal(respBody, &inferenceResp); err != nil {
		c.incrementFailedRequests()
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	c.incrementSuccessRequests()
	c.updateAvgResponseTime(time.Since(startTime))

	return &inferenceResp, nil
}

// createMultipartBody builds the payload the inference API expects: the
// audio file under form field "audio" with its original filename, plus a
// "language" field unless the caller asked for auto-detection.
func createMultipartBody(audioPath, language string) (io.Reader, string, error) {
	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read audio file: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="audio"; filename="%s"`, filepath.Base(audioPath)))
	header.Set("Content-Type", "audio/wav")

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create audio form part: %w", err)
	}

	if _, err := part.Write(audioData); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	if language != "" && language != "auto" {
		if err := writer.WriteField("language", language); err != nil {
			return nil, "", fmt.Errorf("failed to write language field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// Statistics methods
func (c *Client) incrementTotalRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
}

func (c *Client) incrementSuccessRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successRequests++
}

func (c *Client) incrementFailedRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedRequests++
}

func (c *Client) updateAvgResponseTime(responseTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Simple moving average
	if c.avgResponseTime == 0 {
		c.avgResponseTime = responseTime
	} else {
		c.avgResponseTime = (c.avgResponseTime + responseTime) / 2
	}
}

// GetStats returns current client statistics.
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	successRate := float64(0)
	if c.totalRequests > 0 {
		successRate = float64(c.successRequests) / float64(c.totalRequests) * 100
	}

	return ClientStats{
		TotalRequests:   c.totalRequests,
		SuccessRequests: c.successRequests,
		FailedRequests:  c.failedRequests,
		SuccessRate:     successRate,
		AvgResponseTime: c.avgResponseTime,
	}
}
