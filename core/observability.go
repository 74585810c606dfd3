package core

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ResolveLogger picks provider > logger > nop for the named component.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) Logger {
	_, resolved := glog.Resolve(name, provider, logger)
	return resolved
}

// LogOperation logs "<operation> succeeded" at info or "<operation> failed"
// at error, with the duration and outcome added to fields.
func LogOperation(ctx context.Context, logger Logger, startedAt time.Time, operation string, err error, fields map[string]any) {
	operation = operationName(operation)
	out := maps.Clone(fields)
	if out == nil {
		out = map[string]any{}
	}
	out["operation"] = operation
	out["duration_ms"] = time.Since(startedAt).Milliseconds()
	if err != nil {
		out["status"] = "failure"
		out["error"] = err.Error()
		LogWithLevel(ctx, logger, LogLevelError, operation+" failed", out)
		return
	}
	out["status"] = "success"
	LogWithLevel(ctx, logger, LogLevelInfo, operation+" succeeded", out)
}

// LogWithLevel attaches fields through WithFields when the logger supports
// it and passes them as sorted key/value args otherwise. Unknown levels log
// at info.
func LogWithLevel(ctx context.Context, logger Logger, level LogLevel, message string, fields map[string]any) {
	if logger == nil {
		return
	}
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	var args []any
	if fieldsLogger, ok := logger.(FieldsLogger); ok && len(fields) > 0 {
		logger = fieldsLogger.WithFields(maps.Clone(fields))
	} else {
		args = keyValues(fields)
	}

	switch LogLevel(strings.ToLower(strings.TrimSpace(string(level)))) {
	case LogLevelDebug:
		logger.Debug(message, args...)
	case LogLevelWarn:
		logger.Warn(message, args...)
	case LogLevelError:
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func keyValues(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, len(fields)*2)
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		args = append(args, key, fields[key])
	}
	return args
}

func operationName(operation string) string {
	operation = strings.ToLower(strings.TrimSpace(operation))
	operation = strings.NewReplacer(" ", "_", "-", "_").Replace(operation)
	if operation == "" {
		return "unknown"
	}
	return operation
}
