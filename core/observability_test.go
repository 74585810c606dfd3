package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type capturedLog struct {
	level  string
	msg    string
	args   []any
	fields map[string]any
}

// recordingLogger is a plain Logger. Wrap it in fieldsRecordingLogger to
// exercise the FieldsLogger path.
type recordingLogger struct {
	mu      *sync.Mutex
	records *[]capturedLog
	fields  map[string]any
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{mu: &sync.Mutex{}, records: &[]capturedLog{}}
}

func (l *recordingLogger) Trace(msg string, args ...any) { l.record("trace", msg, args) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("error", msg, args) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args) }

func (l *recordingLogger) WithContext(context.Context) Logger {
	return l
}

func (l *recordingLogger) record(level string, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, args: args, fields: l.fields})
}

func (l *recordingLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]capturedLog(nil), *l.records...)
}

type fieldsRecordingLogger struct {
	*recordingLogger
}

func (l fieldsRecordingLogger) WithContext(context.Context) Logger {
	return l
}

func (l fieldsRecordingLogger) WithFields(fields map[string]any) Logger {
	return fieldsRecordingLogger{&recordingLogger{mu: l.mu, records: l.records, fields: fields}}
}

func TestLogWithLevel_PassesSortedKeyValues(t *testing.T) {
	logger := newRecordingLogger()
	LogWithLevel(context.Background(), logger, LogLevelWarn, "slow vendor", map[string]any{
		"module":  "zoom",
		"attempt": 2,
	})

	records := logger.snapshot()
	if len(records) != 1 || records[0].level != "warn" || records[0].msg != "slow vendor" {
		t.Fatalf("unexpected records %#v", records)
	}
	args := records[0].args
	if len(args) != 4 || args[0] != "attempt" || args[1] != 2 || args[2] != "module" || args[3] != "zoom" {
		t.Fatalf("expected sorted key/value args, got %#v", args)
	}
}

func TestLogWithLevel_UsesFieldsLoggerWithoutDuplicateArgs(t *testing.T) {
	base := newRecordingLogger()
	LogWithLevel(context.Background(), fieldsRecordingLogger{base}, "ERROR", "token request failed", map[string]any{"module": "miro"})

	records := base.snapshot()
	if len(records) != 1 || records[0].level != "error" {
		t.Fatalf("unexpected records %#v", records)
	}
	if records[0].fields["module"] != "miro" || len(records[0].args) != 0 {
		t.Fatalf("expected fields attached once, got %#v", records[0])
	}
}

func TestLogOperation_RecordsOutcome(t *testing.T) {
	logger := newRecordingLogger()
	LogOperation(context.Background(), logger, time.Now(), "Process Callback", nil, map[string]any{"module": "asana"})
	LogOperation(context.Background(), logger, time.Now(), "", errors.New("boom"), nil)

	records := logger.snapshot()
	if len(records) != 2 {
		t.Fatalf("expected two records, got %d", len(records))
	}
	if records[0].level != "info" || records[0].msg != "process_callback succeeded" {
		t.Fatalf("unexpected success record %#v", records[0])
	}
	if records[1].level != "error" || records[1].msg != "unknown failed" {
		t.Fatalf("unexpected failure record %#v", records[1])
	}
	failure := map[string]any{}
	for i := 0; i+1 < len(records[1].args); i += 2 {
		failure[records[1].args[i].(string)] = records[1].args[i+1]
	}
	if failure["status"] != "failure" || failure["error"] != "boom" {
		t.Fatalf("unexpected failure fields %#v", failure)
	}
}

func TestLogWithLevel_NilLoggerIsNoop(t *testing.T) {
	LogWithLevel(context.Background(), nil, LogLevelInfo, "ignored", nil)
}
