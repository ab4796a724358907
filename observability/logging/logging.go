// Package logging installs the process-wide structured logger for the ledger
// daemon. Output is one JSON object per line with timestamp, severity, and
// message keys so log pipelines can index lines without a format shim.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Setup builds the ledger's JSON logger, installs it as the slog default, and
// returns it. Every line carries the service name, plus the environment when
// one is configured. The standard library logger is redirected through the
// same handler so dependencies calling log.Printf stay structured.
//
// The level defaults to info; set CREDITLEDGER_LOG_LEVEL=debug to lower it.
func Setup(service, env string) *slog.Logger {
	return setup(os.Stdout, service, env)
}

func setup(w io.Writer, service, env string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       levelFromEnv(),
		ReplaceAttr: renameCoreAttrs,
	})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}

	logger := slog.New(handler).With(args...)
	slog.SetDefault(logger)

	bridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	bridge.SetFlags(0)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return logger
}

func levelFromEnv() slog.Level {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("CREDITLEDGER_LOG_LEVEL")), "debug") {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// renameCoreAttrs maps slog's built-in record keys onto the ledger's log
// schema. Severity is uppercased to match the values alerting rules match on.
func renameCoreAttrs(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "timestamp"
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "message"
	}
	return attr
}
