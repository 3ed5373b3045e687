package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("MTI_TEST_STR", "hello")
	if got := GetEnv("MTI_TEST_STR", "fallback"); got != "hello" {
		t.Fatalf("GetEnv = %q, want %q", got, "hello")
	}
	if got := GetEnv("MTI_TEST_STR_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("GetEnv = %q, want fallback", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   int
		want  int
	}{
		{"valid integer", "42", 7, 42},
		{"invalid integer", "not-a-number", 7, 7},
		{"empty value", "", 7, 7},
		{"negative integer", "-5", 7, -5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.value != "" {
				t.Setenv("MTI_TEST_INT", tc.value)
			}
			if got := GetEnvInt("MTI_TEST_INT", tc.def); got != tc.want {
				t.Fatalf("GetEnvInt(%q) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("MTI_TEST_BOOL", "true")
	if !GetEnvBool("MTI_TEST_BOOL", false) {
		t.Fatal("GetEnvBool = false, want true")
	}
	t.Setenv("MTI_TEST_BOOL", "garbage")
	if GetEnvBool("MTI_TEST_BOOL", false) {
		t.Fatal("GetEnvBool with invalid value should return default")
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("MTI_TEST_DUR", "1m30s")
	if got := GetEnvDuration("MTI_TEST_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("GetEnvDuration = %s, want 1m30s", got)
	}
	if got := GetEnvDuration("MTI_TEST_DUR_MISSING", time.Second); got != time.Second {
		t.Fatalf("GetEnvDuration = %s, want 1s", got)
	}
}

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"unknown", logrus.InfoLevel},
	}

	for _, tc := range tests {
		t.Setenv("LOG_LEVEL", tc.value)
		if got := GetLogLevel(); got != tc.want {
			t.Fatalf("GetLogLevel(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
