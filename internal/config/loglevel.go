package config

import (
	"log"
	"strings"
)

// LogLevel gates log.Printf call sites by severity, since the standard
// library's log package has no native leveling.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLogLevel maps FSCT_LOG_LEVEL / -log-level values to a LogLevel,
// defaulting to LevelInfo for anything unrecognized.
func ParseLogLevel(raw string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger wraps the standard logger with a minimum level; calls below the
// threshold are dropped before formatting.
type Logger struct {
	min LogLevel
}

// NewLogger returns a Logger gating at min.
func NewLogger(min LogLevel) *Logger { return &Logger{min: min} }

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) logf(level LogLevel, format string, args ...any) {
	if level < l.min {
		return
	}
	log.Printf(format, args...)
}
