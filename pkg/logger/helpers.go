package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRateLimit logs a rate-limit backoff before the same request is retried
func LogRateLimit(log Logger, endpoint, cursor string, backoff time.Duration) {
	log.WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"cursor":   cursor,
		"backoff":  backoff,
		"action":   "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogPageProgress logs the running id count of a target's listing after each page
func LogPageProgress(log Logger, target, listing string, collected int, more bool, delay time.Duration) {
	log.InfoWithFields("Page collected", map[string]interface{}{
		"target":    target,
		"listing":   listing,
		"collected": collected,
		"more":      more,
		"delay":     delay,
	})
}

// LogTargetOutcome logs how a target was processed
func LogTargetOutcome(log Logger, handle, outcome string, followers, following int) {
	log.InfoWithFields("Target processed", map[string]interface{}{
		"target":    handle,
		"outcome":   outcome,
		"followers": followers,
		"following": following,
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	logger := GetLogger().WithField("component", component)
	if len(config) > 0 {
		logger = logger.WithFields(config)
	}
	logger.Info("Component started")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
