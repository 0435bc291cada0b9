// Package logger provides the structured logging interface used across followgraph.
//
// It wraps zerolog behind a small Logger interface with field chaining:
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("target", "alice").Info("Refreshing graph")
//	log.WarnWithFields("Rate limited, backing off", map[string]interface{}{
//	    "cursor":  cursor,
//	    "backoff": 15 * time.Minute,
//	})
//
// Console output is written to stderr; when a log file is configured the
// same events are also appended to it as JSON. TestLogger captures messages
// for assertions and NewNopLogger discards everything.
package logger
