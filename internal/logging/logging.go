package logging

import (
	"github.com/go-logr/logr"
	uberzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// Verbosity levels passed to logger.V().
const (
	VERBOSE = 1
	DEBUG   = 2
	TRACE   = 3
)

// NewLogger creates a production Zap logger that emits messages up to the given verbosity.
func NewLogger(verbosity int) logr.Logger {
	if verbosity < 0 {
		verbosity = 0
	}
	return zap.New(
		zap.UseDevMode(false),
		zap.Level(uberzap.NewAtomicLevelAt(zapcore.Level(-1*verbosity))),
	)
}
