// Package logging provides zap logger helpers.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger configured for development or production. When
// logDir is non-empty the logger also writes to a dated file in that
// directory, one file per UTC day, alongside stderr. Timestamps are always
// rendered in UTC so log lines line up with the UTC trigger times.
func New(development bool, logDir string, now time.Time) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.DisableStacktrace = false
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = utcISO8601TimeEncoder

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			return nil, fmt.Errorf("create log dir %s: %w", logDir, err)
		}
		logFile := filepath.Join(logDir, now.UTC().Format("2006-01-02")+"-skysnap.log")
		cfg.OutputPaths = []string{"stderr", logFile}
		cfg.ErrorOutputPaths = []string{"stderr", logFile}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func utcISO8601TimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	zapcore.ISO8601TimeEncoder(t.UTC(), enc)
}
