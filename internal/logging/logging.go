// Package logging sets up the process-wide go-kit logger: logfmt output,
// a UTC timestamp field, and per-subsystem With() tagging.
package logging

import (
	"os"
	"strings"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// New builds the root logger for a service, applying the LOG_LEVEL
// environment option (§6) as a filter.
func New(service, logLevel string) kitlog.Logger {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC, "service", service)
	logger = level.NewFilter(logger, levelOption(logLevel))
	return logger
}

// Sub returns a logger tagged with a subsystem name, before handing it to a
// component.
func Sub(logger kitlog.Logger, subsystem string) kitlog.Logger {
	return kitlog.With(logger, "subsystem", subsystem)
}

func levelOption(logLevel string) level.Option {
	switch strings.ToLower(logLevel) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	case "info", "":
		fallthrough
	default:
		return level.AllowInfo()
	}
}
