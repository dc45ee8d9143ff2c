package logging

import (
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestLogFormatter(t *testing.T) {
	t.Parallel()
	formatter := &LogFormatter{}
	entry := &log.Entry{
		Logger:  log.StandardLogger(),
		Time:    time.Date(2026, 8, 30, 12, 34, 56, 0, time.UTC),
		Level:   log.WarnLevel,
		Message: "credential rejected\n",
		Data:    log.Fields{"scope": "admin", "path": "/admin/users", "ignored": "x"},
	}
	out, err := formatter.Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	line := string(out)
	if !strings.HasPrefix(line, "[2026-08-30 12:34:56] [warn ] ") {
		t.Fatalf("Format() = %q, want timestamp and warn prefix", line)
	}
	if !strings.Contains(line, "credential rejected scope=admin path=/admin/users") {
		t.Fatalf("Format() = %q, want ordered fields after message", line)
	}
	if strings.Contains(line, "ignored") {
		t.Fatalf("Format() = %q, unexpected unordered field", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("Format() output not newline terminated: %q", line)
	}
}
