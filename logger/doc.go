// Package logger builds the application's zap logger.
//
// Two modes are supported: "development" yields colored console output for
// local work, "production" yields JSON lines with ISO 8601 timestamps. The
// level comes from the same config section, so one logging block drives
// both knobs.
//
// Usage:
//
//	log, err := logger.New("production", "info")
//	if err != nil {
//	    panic(err)
//	}
//	log.Info("server starting", zap.String("transport", "rest"))
package logger
