package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

// TestLogger_IncludesCallFields verifies call fields are present in log output.
func TestLogger_IncludesCallFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	meta := CallMeta{
		Provider:  "anthropic",
		Operation: "messages",
		Model:     "m-large",
	}

	callLogger := logger.WithCall(meta)
	callLogger.Info(context.Background(), "test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}

	if v, ok := logEntry["llm.provider"].(string); !ok || v != "anthropic" {
		t.Errorf("expected llm.provider='anthropic', got %v", logEntry["llm.provider"])
	}
	if v, ok := logEntry["llm.operation"].(string); !ok || v != "messages" {
		t.Errorf("expected llm.operation='messages', got %v", logEntry["llm.operation"])
	}
	if v, ok := logEntry["llm.model"].(string); !ok || v != "m-large" {
		t.Errorf("expected llm.model='m-large', got %v", logEntry["llm.model"])
	}
}

// TestLogger_IncludesDuration verifies duration_ms field is present.
func TestLogger_IncludesDuration(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "test message",
		Field{Key: "duration_ms", Value: 50.5},
	)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["duration_ms"].(float64); !ok || v != 50.5 {
		t.Errorf("expected duration_ms=50.5, got %v", logEntry["duration_ms"])
	}
}

// TestLogger_LevelFiltering verifies messages below the configured level are dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Debug(context.Background(), "dropped")
	logger.Info(context.Background(), "dropped too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got: %s", buf.String())
	}

	logger.Warn(context.Background(), "kept")
	if buf.Len() == 0 {
		t.Fatal("expected warn output, got none")
	}
}

// TestLogger_RedactsSensitiveFields verifies prompts and credentials never
// reach the sink in the clear.
func TestLogger_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "call made",
		Field{Key: "prompt", Value: "the secret question"},
		Field{Key: "api_key", Value: "sk-xyz"},
		Field{Key: "status", Value: 200},
	)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if logEntry["prompt"] != "[REDACTED]" {
		t.Errorf("expected prompt redacted, got %v", logEntry["prompt"])
	}
	if logEntry["api_key"] != "[REDACTED]" {
		t.Errorf("expected api_key redacted, got %v", logEntry["api_key"])
	}
	if v, ok := logEntry["status"].(float64); !ok || v != 200 {
		t.Errorf("expected status=200 unredacted, got %v", logEntry["status"])
	}
}

// TestLogger_ErrorLevel verifies error log level and error field.
func TestLogger_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	callLogger := logger.WithCall(CallMeta{Provider: "openai", Operation: "complete"})
	callLogger.Error(context.Background(), "call failed",
		Field{Key: "error", Value: "connection timeout"},
	)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["level"].(string); !ok || v != "error" {
		t.Errorf("expected level='error', got %v", logEntry["level"])
	}
	if v, ok := logEntry["error"].(string); !ok || v != "connection timeout" {
		t.Errorf("expected error field, got %v", logEntry["error"])
	}
}

// TestLogger_WithCallDoesNotMutateParent verifies the parent logger keeps its
// own attribute set after WithCall.
func TestLogger_WithCallDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	_ = logger.WithCall(CallMeta{Provider: "anthropic", Operation: "messages"})
	logger.Info(context.Background(), "plain")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}
	if _, present := logEntry["llm.provider"]; present {
		t.Error("parent logger gained call attributes from a child")
	}
}

// TestParseLogLevel verifies level parsing, including the info default.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
