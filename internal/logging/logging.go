// Package logging holds the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

// Options selects the level and output format of the process logger
type Options struct {
	Level string
	JSON  bool
}

var def atomic.Value

func init() {
	cfg := &slog.HandlerOptions{Level: slog.LevelInfo}
	h := slog.NewTextHandler(os.Stderr, cfg)
	def.Store(slog.New(h))
}

// Configure replaces the process logger
func Configure(opts Options) {
	cfg := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(os.Stderr, cfg)
	} else {
		h = slog.NewTextHandler(os.Stderr, cfg)
	}
	def.Store(slog.New(h))
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Set replaces the process logger with l
func Set(l *slog.Logger) {
	def.Store(l)
}

// L returns the process logger
func L() *slog.Logger {
	l, _ := def.Load().(*slog.Logger)
	return l
}

// InitFromEnv configures the logger from MEDAUGMENT_LOG_LEVEL and MEDAUGMENT_LOG_JSON
func InitFromEnv() {
	lvl := os.Getenv("MEDAUGMENT_LOG_LEVEL")
	json := false
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("MEDAUGMENT_LOG_JSON"))); err == nil {
		json = b
	}
	Configure(Options{Level: lvl, JSON: json})
}
