package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	logger.Info("relayout complete", "nodes", 12)
	if buf.Len() == 0 {
		t.Error("logger wrote nothing")
	}
}

func TestNewLoggerFiltersByLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		emit    func(*log.Logger)
		wantLog bool
	}{
		{"info passes at info", log.InfoLevel, func(l *log.Logger) { l.Info("x") }, true},
		{"debug dropped at info", log.InfoLevel, func(l *log.Logger) { l.Debug("x") }, false},
		{"debug passes at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("x") }, true},
		{"info dropped at error", log.ErrorLevel, func(l *log.Logger) { l.Info("x") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("logged = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressReportsDuration(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	time.Sleep(10 * time.Millisecond)
	prog.done("layout computed")

	out := buf.String()
	if !strings.Contains(out, "layout computed") {
		t.Errorf("progress output missing message: %q", out)
	}
}

func TestLoggerContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	ctx := withLogger(context.Background(), logger)
	got := loggerFromContext(ctx)
	if got != logger {
		t.Fatal("loggerFromContext returned a different logger")
	}

	got.Info("via context")
	if buf.Len() == 0 {
		t.Error("context logger should write to the original buffer")
	}
}

func TestLoggerFromContextFallsBack(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Error("loggerFromContext must return a usable logger when none is set")
	}
}
