// Structured logging tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *Logger {
	logger := New("test")
	logger.SetWriter(buf)
	logger.SetLevel(DEBUG)
	logger.SetColorize(false)
	return logger
}

func TestLoggerBasic(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Info("table has %d entries", 256)

	output := buf.String()
	if !strings.Contains(output, "[INFO ]") {
		t.Errorf("expected INFO level, got: %s", output)
	}
	if !strings.Contains(output, "test:") {
		t.Errorf("expected prefix 'test:', got: %s", output)
	}
	if !strings.Contains(output, "table has 256 entries") {
		t.Errorf("expected formatted message, got: %s", output)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	logger.SetLevel(WARN)

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() != 0 {
		t.Errorf("expected DEBUG and INFO to be filtered, got: %s", buf.String())
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("expected WARN to pass, got: %s", buf.String())
	}

	buf.Reset()
	logger.Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected ERROR to pass, got: %s", buf.String())
	}
}

func TestLoggerPercentWithoutArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.Info("100% done")
	if !strings.Contains(buf.String(), "100% done") {
		t.Errorf("message without args must be written verbatim, got: %s", buf.String())
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	logger.SetFormat(FormatJSON)

	logger.WithFields(Fields{"f_min": 48.5, "format": "gpram"}).Info("generated")

	var entry JSONLogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v, output: %s", err, buf.String())
	}
	if entry.Level != "INFO" {
		t.Errorf("expected level INFO, got: %s", entry.Level)
	}
	if entry.Logger != "test" {
		t.Errorf("expected logger 'test', got: %s", entry.Logger)
	}
	if entry.Message != "generated" {
		t.Errorf("expected message 'generated', got: %s", entry.Message)
	}
	if entry.Fields["format"] != "gpram" {
		t.Errorf("expected format=gpram, got: %v", entry.Fields)
	}
}

func TestLoggerTextFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.WithField("zeta", 1).WithField("alpha", 2).Info("fields")

	output := buf.String()
	if !strings.Contains(output, "{alpha=2, zeta=1}") {
		t.Errorf("expected sorted fields, got: %s", output)
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	logger.SetFormat(FormatJSON)

	logger.WithError(errors.New("bad profile")).Error("load failed")

	var entry JSONLogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if entry.Fields["error"] != "bad profile" {
		t.Errorf("expected error field, got: %v", entry.Fields)
	}
}

func TestLoggerWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	child := logger.WithPrefix("emit")
	child.Info("child message")

	if !strings.Contains(buf.String(), "emit:") {
		t.Errorf("expected prefix 'emit:', got: %s", buf.String())
	}

	// Level changes on the child do not leak into the parent.
	child.SetLevel(ERROR)
	buf.Reset()
	logger.Info("parent message")
	if !strings.Contains(buf.String(), "parent message") {
		t.Errorf("expected parent to keep DEBUG level, got: %q", buf.String())
	}
}

func TestLoggerCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	logger.SetCaller(true)

	logger.Info("caller test")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Errorf("expected caller info 'logger_test.go:', got: %s", buf.String())
	}

	buf.Reset()
	logger.WithField("k", "v").Info("entry caller test")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Errorf("expected entry caller info 'logger_test.go:', got: %s", buf.String())
	}
}

func TestBufferIsNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	if IsTerminal(&buf) {
		t.Error("bytes.Buffer reported as terminal")
	}

	logger := New("test")
	logger.SetColorize(true)
	logger.SetWriter(&buf)
	logger.Info("plain")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected no ANSI codes for non-terminal writer, got: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", DEBUG},
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warn", WARN},
		{"WARNING", WARN},
		{"error", ERROR},
		{" error ", ERROR},
		{"invalid", INFO},
		{"", INFO},
	}

	for _, tt := range tests {
		result := ParseLevel(tt.input)
		if result != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, result, tt.expected)
		}
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if result := tt.level.String(); result != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, expected %q", tt.level, result, tt.expected)
		}
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Setenv("DELAYTABLE_LOG_LEVEL", "error")
	t.Setenv("DELAYTABLE_LOG_FORMAT", "json")

	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	ConfigureFromEnv(logger)

	if logger.GetLevel() != ERROR {
		t.Errorf("expected ERROR level from env, got %v", logger.GetLevel())
	}
	logger.Error("boom")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output from env, got: %s", buf.String())
	}
}

func BenchmarkLoggerFiltered(b *testing.B) {
	var buf bytes.Buffer
	logger := New("bench")
	logger.SetWriter(&buf)
	logger.SetLevel(ERROR)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("this should be filtered")
	}
}
