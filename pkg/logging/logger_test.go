package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerDefaults(t *testing.T) {
	logger := NewLogger()
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter, got %T", logger.Formatter)
	}
}

func TestNewLoggerLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	logger := NewLogger()
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", logger.GetLevel())
	}
}

func TestNewLoggerWithService(t *testing.T) {
	logger := NewLoggerWithService("mti")
	if logger == nil {
		t.Fatal("NewLoggerWithService returned nil")
	}
}
