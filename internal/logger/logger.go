package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level represents the logging level
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	TRACE: "TRACE",
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// String returns the upper-case level name.
func (l Level) String() string {
	return levelNames[l]
}

// Component represents the logging component
type Component string

const (
	ComponentApp      Component = "app"
	ComponentResolver Component = "resolver"
	ComponentCipher   Component = "cipher"
	ComponentFormat   Component = "format"
	ComponentClient   Component = "client"
	ComponentCache    Component = "cache"
	ComponentEngine   Component = "engine"
	ComponentTikTok   Component = "tiktok"
)

// AllComponents lists every component known to the logger.
var AllComponents = []Component{
	ComponentApp, ComponentResolver, ComponentCipher, ComponentFormat,
	ComponentClient, ComponentCache, ComponentEngine, ComponentTikTok,
}

// Format represents the log output format
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatColor
)

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	Components map[Component]bool
	Timestamp  bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:  INFO,
		Format: FormatText,
		Output: os.Stderr,
		Components: map[Component]bool{
			ComponentApp:      true,
			ComponentResolver: true,
			ComponentCipher:   false,
			ComponentFormat:   false,
			ComponentClient:   false,
			ComponentCache:    false,
			ComponentEngine:   false,
			ComponentTikTok:   true,
		},
		Timestamp: false,
	}
}

// Entry represents a single log entry
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Component Component              `json:"component"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger provides structured logging functionality
type Logger struct {
	config *Config
	mu     sync.RWMutex
}

// New creates a new logger instance
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Components == nil {
		config.Components = make(map[Component]bool)
	}
	if config.Output == nil {
		config.Output = io.Discard
	}
	return &Logger{
		config: config,
	}
}

// WithComponent creates a new logger instance for a specific component
func (l *Logger) WithComponent(component Component) *ComponentLogger {
	return &ComponentLogger{
		logger:    l,
		component: component,
	}
}

// SetLevel changes the logging level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Level = level
}

// SetOutput changes the log output
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Output = w
}

// EnableComponent enables logging for a specific component
func (l *Logger) EnableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = true
}

// DisableComponent disables logging for a specific component
func (l *Logger) DisableComponent(component Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.config.Components[component] = false
}

func (l *Logger) log(level Level, component Component, message string, fields map[string]interface{}) {
	// Write lock: the output writer is shared and not necessarily safe for concurrent use.
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.config.Level {
		return
	}
	if !l.config.Components[component] {
		return
	}

	entry := Entry{
		Timestamp: time.Now(),
		Level:     levelNames[level],
		Component: component,
		Message:   message,
		Fields:    fields,
	}

	var output string
	switch l.config.Format {
	case FormatJSON:
		output = l.formatJSON(entry)
	case FormatColor:
		output = l.formatColor(level, entry)
	default:
		output = l.formatText(entry)
	}

	fmt.Fprintln(l.config.Output, output)
}

// sortedFields renders fields as key=value pairs in key order.
func sortedFields(fields map[string]interface{}, render func(k string, v interface{}) string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, render(k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func (l *Logger) formatText(entry Entry) string {
	var parts []string

	if l.config.Timestamp {
		parts = append(parts, entry.Timestamp.Format("2006-01-02 15:04:05"))
	}

	parts = append(parts, fmt.Sprintf("[%s]", entry.Level))
	parts = append(parts, fmt.Sprintf("[%s]", entry.Component))
	parts = append(parts, entry.Message)

	if len(entry.Fields) > 0 {
		parts = append(parts, sortedFields(entry.Fields, func(k string, v interface{}) string {
			return fmt.Sprintf("%s=%v", k, v)
		}))
	}

	return strings.Join(parts, " ")
}

func (l *Logger) formatJSON(entry Entry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		// Fields holding unmarshalable values (channels, funcs) are dropped rather than losing the line.
		entry.Fields = map[string]interface{}{"marshal_error": err.Error()}
		data, _ = json.Marshal(entry)
	}
	return string(data)
}

var (
	grey      = color.New(color.FgHiBlack)
	cyan      = color.New(color.FgCyan)
	yellow    = color.New(color.FgYellow)
	green     = color.New(color.FgGreen)
	levelTint = map[Level]*color.Color{
		TRACE: color.New(color.FgWhite),
		DEBUG: color.New(color.FgHiBlue),
		INFO:  color.New(color.FgHiGreen),
		WARN:  color.New(color.FgHiYellow),
		ERROR: color.New(color.FgHiRed),
	}
)

func init() {
	// Color output is an explicit choice of the configuration, not of the terminal.
	for _, c := range []*color.Color{grey, cyan, yellow, green} {
		c.EnableColor()
	}
	for _, c := range levelTint {
		c.EnableColor()
	}
}

func (l *Logger) formatColor(level Level, entry Entry) string {
	var parts []string

	if l.config.Timestamp {
		parts = append(parts, grey.Sprint(entry.Timestamp.Format("2006-01-02 15:04:05")))
	}

	tint, ok := levelTint[level]
	if !ok {
		tint = color.New(color.Reset)
	}
	parts = append(parts, tint.Sprintf("[%s]", entry.Level))
	parts = append(parts, cyan.Sprintf("[%s]", entry.Component))
	parts = append(parts, entry.Message)

	if len(entry.Fields) > 0 {
		parts = append(parts, sortedFields(entry.Fields, func(k string, v interface{}) string {
			return yellow.Sprint(k) + "=" + green.Sprint(v)
		}))
	}

	return strings.Join(parts, " ")
}

// ComponentLogger provides component-specific logging
type ComponentLogger struct {
	logger    *Logger
	component Component
	fields    map[string]interface{}
}

// With returns a logger that adds the given fields to every entry.
func (cl *ComponentLogger) With(fields map[string]interface{}) *ComponentLogger {
	merged := make(map[string]interface{}, len(cl.fields)+len(fields))
	for k, v := range cl.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ComponentLogger{logger: cl.logger, component: cl.component, fields: merged}
}

// Trace logs a trace message
func (cl *ComponentLogger) Trace(message string, fields ...map[string]interface{}) {
	cl.log(TRACE, message, fields...)
}

// Debug logs a debug message
func (cl *ComponentLogger) Debug(message string, fields ...map[string]interface{}) {
	cl.log(DEBUG, message, fields...)
}

// Info logs an info message
func (cl *ComponentLogger) Info(message string, fields ...map[string]interface{}) {
	cl.log(INFO, message, fields...)
}

// Warn logs a warning message
func (cl *ComponentLogger) Warn(message string, fields ...map[string]interface{}) {
	cl.log(WARN, message, fields...)
}

// Error logs an error message
func (cl *ComponentLogger) Error(message string, fields ...map[string]interface{}) {
	cl.log(ERROR, message, fields...)
}

func (cl *ComponentLogger) log(level Level, message string, fields ...map[string]interface{}) {
	var merged map[string]interface{}
	if len(cl.fields) > 0 || len(fields) > 0 {
		merged = make(map[string]interface{}, len(cl.fields))
		for k, v := range cl.fields {
			merged[k] = v
		}
		for _, f := range fields {
			for k, v := range f {
				merged[k] = v
			}
		}
	}
	cl.logger.log(level, cl.component, message, merged)
}

var (
	globalMu     sync.RWMutex
	globalLogger = New(DefaultConfig())
)

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// WithComponent returns a component logger from global logger
func WithComponent(component Component) *ComponentLogger {
	return GetGlobalLogger().WithComponent(component)
}
