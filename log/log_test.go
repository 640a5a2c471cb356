package log

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewModuleLoggerFallsBackOnUnknownModule(t *testing.T) {
	l := NewModuleLogger(ModuleID(999))
	require.Equal(t, "unknown", l.module)
}

func TestNewModuleLoggerTagsKnownModule(t *testing.T) {
	l := NewModuleLogger(Scanner)
	require.Equal(t, "scanner", l.module)
}

func TestSetLevelDoesNotPanic(t *testing.T) {
	SetLevel(zapcore.DebugLevel)
	NewModuleLogger(Common).Debug("probe", "k", "v")
	SetLevel(zapcore.InfoLevel)
}
