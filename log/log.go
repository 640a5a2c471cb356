// Package log provides the module-scoped structured logger used across
// wallet.go, in the same shape as the teacher codebase's
// log.NewModuleLogger(log.<Module>) convention: each package declares
// `var logger = log.NewModuleLogger(log.<Module>)` and logs with
// key/value pairs rather than formatted strings.
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ModuleID identifies the subsystem a logger belongs to, mirroring the
// teacher's log.Common / log.StorageDatabase / ... constants.
type ModuleID int

const (
	Common ModuleID = iota
	Account
	Scanner
	Reconciler
	Selector
	Dust
	Transfer
	Repost
	Sync
	Signer
	Node
	Storage
	EventSink
)

var moduleNames = map[ModuleID]string{
	Common:     "common",
	Account:    "account",
	Scanner:    "scanner",
	Reconciler: "reconciler",
	Selector:   "selector",
	Dust:       "dust",
	Transfer:   "transfer",
	Repost:     "repost",
	Sync:       "sync",
	Signer:     "signer",
	Node:       "node",
	Storage:    "storage",
	EventSink:  "eventsink",
}

var (
	baseOnce sync.Once
	base     *zap.SugaredLogger
	level    = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func baseLogger() *zap.SugaredLogger {
	baseOnce.Do(func() {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr), level)
		base = zap.New(core).Sugar()
	})
	return base
}

// Logger is a module-scoped logger. The zero value is not usable; obtain one
// via NewModuleLogger.
type Logger struct {
	module string
	inner  *zap.SugaredLogger
}

// NewModuleLogger returns a Logger tagged with the given module, following
// the teacher's one-logger-var-per-package convention.
func NewModuleLogger(module ModuleID) *Logger {
	name, ok := moduleNames[module]
	if !ok {
		name = "unknown"
	}
	return &Logger{module: name, inner: baseLogger().With("module", name)}
}

func (l *Logger) Trace(msg string, kv ...interface{}) { l.inner.Debugw(msg, kv...) }
func (l *Logger) Debug(msg string, kv ...interface{}) { l.inner.Debugw(msg, kv...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.inner.Infow(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.inner.Warnw(msg, kv...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.inner.Errorw(msg, kv...) }

// Crit logs at error level and terminates the process; reserved for
// invariant violations the spec calls out as fatal (§7), never for
// ordinary error paths.
func (l *Logger) Crit(msg string, kv ...interface{}) {
	l.inner.Errorw(msg, kv...)
	os.Exit(1)
}

// SetLevel adjusts the global minimum level; tests use it to silence noisy
// debug output, matching the teacher's --verbosity flag shape.
func SetLevel(lvl zapcore.Level) {
	level.SetLevel(lvl)
}
