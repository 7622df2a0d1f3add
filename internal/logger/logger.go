// Package logger holds the process-wide Zap logger shared by both servers.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base  *zap.Logger
	sugar *zap.SugaredLogger
	level = zap.NewAtomicLevel()
	once  sync.Once
)

// Init builds the global logger once. "production" logs JSON at info, "test"
// discards everything, and any other environment gets the console encoder
// at debug.
func Init(env string) {
	once.Do(func() {
		var cfg zap.Config
		switch env {
		case "test":
			base = zap.NewNop()
			sugar = base.Sugar()
			return
		case "production":
			cfg = zap.NewProductionConfig()
		default:
			cfg = zap.NewDevelopmentConfig()
		}
		level.SetLevel(cfg.Level.Level())
		cfg.Level = level

		var err error
		if base, err = cfg.Build(); err != nil {
			base = zap.NewNop()
		}
		sugar = base.Sugar()
	})
}

// SetLevel changes the minimum level at runtime. Unknown names are ignored
// and reported as false.
func SetLevel(name string) bool {
	if name == "" {
		return false
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return false
	}
	level.SetLevel(l)
	return true
}

// Get returns the global sugared logger, initializing a development logger
// when Init has not run.
func Get() *zap.SugaredLogger {
	Init("development")
	return sugar
}

// Named returns a child logger tagged with the component name.
func Named(component string) *zap.SugaredLogger {
	return Get().Named(component)
}

// Desugared returns the structured logger for middleware that needs a *zap.Logger.
func Desugared() *zap.Logger {
	Get()
	return base
}

// Sync flushes buffered entries before exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
