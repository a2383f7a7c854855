package logging

import (
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bivex/stripe-gateway/internal/infrastructure/config"
)

// Logger is the process-wide logger. It defaults to a nop logger so code
// paths exercised before Init (or under test) never hit a nil logger.
var Logger = zap.NewNop()

// Init initializes the global logger
func Init(cfg *config.SentryConfig) error {
	var err error
	var zapConfig zap.Config

	// Use development config in dev/staging, production in prod
	environment := "production"
	if cfg != nil && cfg.Environment != "" {
		environment = cfg.Environment
	}

	if environment == "development" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	// Output to stdout by default
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	Logger, err = zapConfig.Build()
	if err != nil {
		return err
	}

	if cfg != nil && cfg.DSN != "" {
		err = sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.DSN,
			Environment: cfg.Environment,
			Release:     cfg.Release,
		})
		if err != nil {
			return err
		}
		Logger.Info("Sentry integration enabled")
	}

	return nil
}

// Sync flushes any buffered log entries and pending Sentry events
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
	sentry.Flush(2 * time.Second)
}

// CaptureError reports an error to Sentry (no-op when Sentry is not configured)
// and logs it.
func CaptureError(msg string, err error, fields ...zap.Field) {
	sentry.CaptureException(err)
	Logger.Error(msg, append(fields, zap.Error(err))...)
}

// WithComponent creates a child logger with a component field
func WithComponent(component string) *zap.Logger {
	return Logger.With(zap.String("component", component))
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}
