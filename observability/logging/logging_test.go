package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWithOptionsRenamesKeys(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger, err := SetupWithOptions("cover-gateway", "test", Options{Level: "debug", Output: &buf})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	logger.Debug("quote requested", slog.Int("productId", 7))

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	for _, key := range []string{"timestamp", "severity", "message", "service", "env"} {
		if _, ok := line[key]; !ok {
			t.Fatalf("missing key %s in %v", key, line)
		}
	}
	if line["severity"] != "DEBUG" || line["message"] != "quote requested" {
		t.Fatalf("unexpected line %v", line)
	}
	if line["service"] != "cover-gateway" || line["env"] != "test" {
		t.Fatalf("unexpected service attrs %v", line)
	}
}

func TestSetupWithOptionsFiltersLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger, err := SetupWithOptions("coverctl", "", Options{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output %s", buf.String())
	}
	if strings.Contains(buf.String(), `"env"`) {
		t.Fatalf("empty env should be omitted: %s", buf.String())
	}
}

func TestSetupWithOptionsWritesFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "gateway.log")
	var buf bytes.Buffer
	logger, err := SetupWithOptions("cover-gateway", "dev", Options{File: path, Output: &buf})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	logger.Info("to file")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Fatalf("file sink missing line: %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
	if lvl, _ := ParseLevel("WARNING"); lvl != slog.LevelWarn {
		t.Fatalf("unexpected level %v", lvl)
	}
	if _, err := SetupWithOptions("svc", "", Options{Level: "loud"}); err == nil {
		t.Fatalf("expected setup to reject unknown level")
	}
}

func TestMasking(t *testing.T) {
	if attr := MaskField("buyer", "0xabc"); attr.Value.String() != RedactedValue {
		t.Fatalf("expected buyer to be redacted")
	}
	if attr := MaskField("state", "FetchingQuote"); attr.Value.String() != "FetchingQuote" {
		t.Fatalf("state should be allowlisted")
	}
	if attr := MaskField("buyer", ""); attr.Value.String() != "" {
		t.Fatalf("empty values pass through")
	}
	attr := MaskAddress("buyer", "0x586b9b2F8010b284A0197f392156f1A7Eb5e86e9")
	if attr.Value.String() != "0x586b…86e9" {
		t.Fatalf("unexpected masked address %s", attr.Value.String())
	}
	if attr := MaskAddress("buyer", "0x12"); attr.Value.String() != RedactedValue {
		t.Fatalf("short values are fully redacted")
	}
	keys := RedactionAllowlist()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("allowlist not sorted: %v", keys)
		}
	}
}
