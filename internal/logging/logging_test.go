package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewWithWriter(Config{Level: "debug", Format: FormatJSON}, &buf), "extractor")

	logger.Debug().Str("video", "clip.mp4").Msg("extraction started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "extractor" {
		t.Errorf("expected component=extractor, got %v", entry["component"])
	}
	if entry["message"] != "extraction started" {
		t.Errorf("unexpected message %v", entry["message"])
	}
}

func TestNewWithWriter_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: "chatty", Format: FormatJSON}, &buf)

	logger.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line should be filtered at info level, got %q", buf.String())
	}

	logger.Info().Msg("shown")
	if buf.Len() == 0 {
		t.Error("expected info line to be written")
	}
}
