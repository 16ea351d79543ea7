package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Level = INFO

	logger := New(config)
	compLogger := logger.WithComponent(ComponentApp)

	compLogger.Debug("This should not appear")
	compLogger.Info("This should appear")
	compLogger.Warn("This should appear")
	compLogger.Error("This should appear")

	output := buf.String()
	if strings.Contains(output, "This should not appear") {
		t.Error("DEBUG message should be filtered out")
	}
	if strings.Count(output, "This should appear") != 3 {
		t.Errorf("INFO/WARN/ERROR messages should appear, got %q", output)
	}
}

func TestLogger_Components(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Components[ComponentCipher] = false

	logger := New(config)
	appLogger := logger.WithComponent(ComponentApp)
	cipherLogger := logger.WithComponent(ComponentCipher)

	appLogger.Info("App message")
	cipherLogger.Info("Cipher message")

	output := buf.String()
	if !strings.Contains(output, "App message") {
		t.Error("App message should appear")
	}
	if strings.Contains(output, "Cipher message") {
		t.Error("Cipher message should be filtered out")
	}

	logger.EnableComponent(ComponentCipher)
	cipherLogger.Info("Cipher enabled")
	if !strings.Contains(buf.String(), "Cipher enabled") {
		t.Error("Cipher message should appear once enabled")
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Format = FormatJSON

	logger := New(config)
	logger.WithComponent(ComponentApp).Info("Test message", map[string]interface{}{"key": "value"})

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["component"] != "app" {
		t.Errorf("component = %v, want app", entry["component"])
	}
	if entry["message"] != "Test message" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestLogger_FieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf

	logger := New(config)
	logger.WithComponent(ComponentApp).Info("Test message", map[string]interface{}{
		"url":   "https://example.com",
		"count": 42,
	})

	output := buf.String()
	if !strings.Contains(output, "count=42 url=https://example.com") {
		t.Errorf("fields should be rendered in key order, got %q", output)
	}
}

func TestComponentLogger_With(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf

	base := New(config).WithComponent(ComponentResolver)
	scoped := base.With(map[string]interface{}{"request_id": "r1"})
	scoped.Info("attempt", map[string]interface{}{"attempt": 2})
	base.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "attempt=2 request_id=r1") {
		t.Errorf("scoped line missing fields: %q", lines[0])
	}
	if strings.Contains(lines[1], "request_id") {
		t.Errorf("base logger must not inherit scoped fields: %q", lines[1])
	}
}

func TestLogger_Timestamp(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Timestamp = true

	New(config).WithComponent(ComponentApp).Info("Test message")

	if !regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} `).MatchString(buf.String()) {
		t.Errorf("Timestamp should prefix output, got %q", buf.String())
	}
}

func TestLogger_ColorFormat(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Output = &buf
	config.Format = FormatColor

	New(config).WithComponent(ComponentApp).Warn("careful", map[string]interface{}{"k": "v"})

	output := buf.String()
	if !strings.Contains(output, "\x1b[") {
		t.Errorf("color output should contain ANSI escapes, got %q", output)
	}
	if !strings.Contains(output, "careful") {
		t.Errorf("message missing from %q", output)
	}
}

func TestLogConfig_ToLoggerConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	cfg.Level = "debug"
	cfg.Format = "json"
	cfg.Output = "null"
	cfg.Components = []string{"cipher", "Format"}

	lc, err := cfg.ToLoggerConfig()
	if err != nil {
		t.Fatalf("ToLoggerConfig: %v", err)
	}
	if lc.Level != DEBUG || lc.Format != FormatJSON {
		t.Errorf("unexpected level/format: %v/%v", lc.Level, lc.Format)
	}
	if !lc.Components[ComponentCipher] || !lc.Components[ComponentFormat] {
		t.Errorf("listed components should be enabled: %v", lc.Components)
	}
	if lc.Components[ComponentApp] {
		t.Errorf("unlisted components should be disabled")
	}

	cfg.Components = []string{"all"}
	lc, err = cfg.ToLoggerConfig()
	if err != nil {
		t.Fatalf("ToLoggerConfig: %v", err)
	}
	for _, comp := range AllComponents {
		if !lc.Components[comp] {
			t.Errorf("component %s should be enabled by 'all'", comp)
		}
	}
}

func TestLogConfig_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ytresolve.log")
	cfg := DefaultLogConfig()
	cfg.Output = "file:" + path
	if _, err := CreateLoggerFromConfig(cfg); err != nil {
		t.Fatalf("CreateLoggerFromConfig: %v", err)
	}
}

func TestLogConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LogConfig)
		wantErr bool
	}{
		{name: "default", mutate: func(*LogConfig) {}},
		{name: "bad level", mutate: func(c *LogConfig) { c.Level = "LOUD" }, wantErr: true},
		{name: "bad format", mutate: func(c *LogConfig) { c.Format = "xml" }, wantErr: true},
		{name: "bad output", mutate: func(c *LogConfig) { c.Output = "syslog" }, wantErr: true},
		{name: "file output", mutate: func(c *LogConfig) { c.Output = "file:/tmp/x.log" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLogConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogConfig_ApplyEnvironment(t *testing.T) {
	t.Setenv("YTRESOLVE_LOG_LEVEL", "WARN")
	t.Setenv("YTRESOLVE_LOG_FORMAT", "color")
	t.Setenv("YTRESOLVE_LOG_TIMESTAMP", "1")
	t.Setenv("YTRESOLVE_LOG_COMPONENTS", "cipher, cache")

	cfg := DefaultLogConfig()
	cfg.ApplyEnvironment()

	if cfg.Level != "WARN" || cfg.Format != "color" || !cfg.Timestamp {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if len(cfg.Components) != 2 || cfg.Components[0] != "cipher" || cfg.Components[1] != "cache" {
		t.Errorf("components = %v", cfg.Components)
	}
}
