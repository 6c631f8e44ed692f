// Package logging builds the process logger and a few field helpers shared
// by the HTTP layer and the chat pipeline.
package logging

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. format is "json" or "console".
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	config := zap.NewProductionConfig()
	if format == "console" {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// SessionTag returns a short, stable digest of a session id so logs and
// audit rows can correlate turns without carrying the raw identifier.
func SessionTag(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:6])
}

// Session is the zap field used for session correlation.
func Session(sessionID string) zap.Field {
	return zap.String("session", SessionTag(sessionID))
}
