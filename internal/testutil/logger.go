package testutil

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Logger returns a zap logger that writes through t.Log.
func Logger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}
