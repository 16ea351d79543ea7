package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LogConfig represents the logging section of the configuration file
type LogConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Output     string   `toml:"output"`
	Components []string `toml:"components"`
	Timestamp  bool     `toml:"timestamp"`
}

// DefaultLogConfig returns default logging configuration
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:      "INFO",
		Format:     "text",
		Output:     "stderr",
		Components: []string{string(ComponentApp), string(ComponentResolver), string(ComponentTikTok)},
		Timestamp:  false,
	}
}

// ToLoggerConfig converts LogConfig to logger.Config
func (c *LogConfig) ToLoggerConfig() (*Config, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}

	format, err := parseFormat(c.Format)
	if err != nil {
		return nil, fmt.Errorf("parse format: %w", err)
	}

	output, err := parseOutput(c.Output)
	if err != nil {
		return nil, fmt.Errorf("parse output: %w", err)
	}

	components := make(map[Component]bool, len(AllComponents))
	for _, comp := range AllComponents {
		components[comp] = false
	}
	for _, name := range c.Components {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "all" || name == "*" {
			for _, comp := range AllComponents {
				components[comp] = true
			}
			continue
		}
		if name != "" {
			components[Component(name)] = true
		}
	}

	return &Config{
		Level:      level,
		Format:     format,
		Output:     output,
		Components: components,
		Timestamp:  c.Timestamp,
	}, nil
}

// Validate validates the configuration without opening any output file
func (c *LogConfig) Validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	if _, err := parseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	out := strings.ToLower(c.Output)
	switch {
	case out == "stdout", out == "stderr", out == "null", out == "none", out == "":
	case strings.HasPrefix(c.Output, "file:") && strings.TrimPrefix(c.Output, "file:") != "":
	default:
		return fmt.Errorf("invalid output: %s", c.Output)
	}
	return nil
}

func parseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown level: %s", levelStr)
	}
}

func parseFormat(formatStr string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(formatStr)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "color", "colored":
		return FormatColor, nil
	default:
		return FormatText, fmt.Errorf("unknown format: %s", formatStr)
	}
}

func parseOutput(outputStr string) (io.Writer, error) {
	switch strings.ToLower(strings.TrimSpace(outputStr)) {
	case "stderr", "":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	case "null", "none":
		return io.Discard, nil
	}
	if strings.HasPrefix(outputStr, "file:") {
		filePath := strings.TrimPrefix(outputStr, "file:")
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		return file, nil
	}
	return nil, fmt.Errorf("unknown output: %s", outputStr)
}

// CreateLoggerFromConfig creates a logger from LogConfig
func CreateLoggerFromConfig(config *LogConfig) (*Logger, error) {
	loggerConfig, err := config.ToLoggerConfig()
	if err != nil {
		return nil, fmt.Errorf("convert config: %w", err)
	}
	return New(loggerConfig), nil
}

// ApplyEnvironment overrides config fields from YTRESOLVE_LOG_* variables.
func (c *LogConfig) ApplyEnvironment() {
	if level := os.Getenv("YTRESOLVE_LOG_LEVEL"); level != "" {
		c.Level = level
	}
	if format := os.Getenv("YTRESOLVE_LOG_FORMAT"); format != "" {
		c.Format = format
	}
	if output := os.Getenv("YTRESOLVE_LOG_OUTPUT"); output != "" {
		c.Output = output
	}
	if timestamp := os.Getenv("YTRESOLVE_LOG_TIMESTAMP"); timestamp != "" {
		c.Timestamp = timestamp == "true" || timestamp == "1"
	}
	if components := os.Getenv("YTRESOLVE_LOG_COMPONENTS"); components != "" {
		c.Components = nil
		for _, comp := range strings.Split(components, ",") {
			if comp = strings.TrimSpace(comp); comp != "" {
				c.Components = append(c.Components, comp)
			}
		}
	}
}
