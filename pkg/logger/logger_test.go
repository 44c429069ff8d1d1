package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	logger := New()
	assert.NotNil(t, logger)
}

func TestNewWithLevel_Invalid(t *testing.T) {
	logger := NewWithLevel("nonsense")
	assert.NotNil(t, logger)

	// Falls back to info level; logging must not panic
	logger.Info("Test message: %s", "info")
}

func TestInfo(t *testing.T) {
	logger := New()

	// Test that Info doesn't panic
	logger.Info("Test message: %s", "info")
}

func TestError(t *testing.T) {
	logger := New()

	// Test that Error doesn't panic
	logger.Error("Test error: %v", "error")
}

func TestWarn(t *testing.T) {
	logger := New()

	// Test that Warn doesn't panic
	logger.Warn("Test warning: %s", "warning")
}
