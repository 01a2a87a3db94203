package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

type InferenceSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type InferenceResponse struct {
	Text     string             `json:"text"`
	Language string             `json:"language"`
	Segments []InferenceSegment `json:"segments,omitempty"`
}

func inferenceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	model := strings.TrimPrefix(r.URL.Path, "/v1/inference/")

	// Parse multipart form
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	language := r.FormValue("language")

	// Get audio file
	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	log.Printf("🎤 INFERENCE REQUEST RECEIVED:")
	log.Printf("  Model: %s", model)
	log.Printf("  Filename: %s", header.Filename)
	log.Printf("  Audio Size: %d bytes", len(audioData))
	log.Printf("  Content-Type: %s", header.Header.Get("Content-Type"))
	log.Printf("  Language: %s", language)
	if r.Header.Get("Authorization") == "" {
		log.Printf("  ⚠️  No Authorization header")
	}

	// Simulate processing time
	time.Sleep(200 * time.Millisecond)

	response := buildResponse(model)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)

	log.Printf("✅ INFERENCE RESPONSE SENT: '%s'", response.Text)
	log.Println("---")
}

// buildResponse fakes a Whisper result. Timestamped models return segments
// separated by silence gaps so the punctuation repair path gets real input;
// plain models return unpunctuated text that triggers the fallback.
func buildResponse(model string) InferenceResponse {
	if strings.Contains(model, "timestamped") {
		return InferenceResponse{
			Text:     "这是一个测试转写结果没有任何标点符号用来验证时间戳修复流程",
			Language: "zh",
			Segments: []InferenceSegment{
				{Start: 0.0, End: 2.5, Text: "这是一个测试转写结果"},
				{Start: 4.2, End: 6.0, Text: "没有任何标点符号"},
				{Start: 7.0, End: 9.5, Text: "用来验证时间戳修复流程"},
			},
		}
	}

	return InferenceResponse{
		Text:     "这是一个测试转写结果没有任何标点符号用来验证时间戳修复流程",
		Language: "zh",
	}
}

func main() {
	http.HandleFunc("/v1/inference/", inferenceHandler)

	port := ":9000"
	log.Printf("🚀 Test Inference Server starting on port %s", port)
	log.Printf("📡 Endpoint: http://localhost%s/v1/inference/<model>", port)
	log.Println("💡 Update your config to use: base_url: http://localhost:9000/v1/inference")

	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
