// Package logging configures the diagnostic logger.
//
// User-facing output goes to stdout via fmt; diagnostics go to stderr
// through zerolog so that eval'd command output (pyshell export) stays clean.
package logging

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel = "PYSHELL_LOG_LEVEL"
	EnvDebug    = "PYSHELL_DEBUG"
	EnvNoColor  = "PYSHELL_LOG_NOCOLOR"
)

// Profile selects a logging configuration baseline.
type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

var setupOnce sync.Once

// SetupRuntime configures the global logger for normal CLI runs.
func SetupRuntime() {
	Setup(ProfileRuntime)
}

// SetupTests configures the global logger for test binaries.
func SetupTests() {
	Setup(ProfileTest)
}

// Setup initializes the global zerolog logger once. Later calls are no-ops.
func Setup(profile Profile) {
	setupOnce.Do(func() {
		level := defaultLevel(profile)
		if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
			level = lvl
		}
		if v, ok := parseBool(os.Getenv(EnvDebug)); ok && v && level > zerolog.DebugLevel {
			level = zerolog.DebugLevel
		}

		noColor := false
		if v, ok := parseBool(os.Getenv(EnvNoColor)); ok {
			noColor = v
		}

		output := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    noColor,
		}
		log.Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()
	})
}

func defaultLevel(profile Profile) zerolog.Level {
	if profile == ProfileTest {
		return zerolog.DebugLevel
	}
	return zerolog.WarnLevel
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.WarnLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.WarnLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
