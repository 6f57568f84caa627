package hooks

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus entry to core.Logger.  Key/value pairs become
// logrus fields; a trailing key without a value is logged under "!BADKEY".
type LogrusLogger struct {
	entry *log.Entry
}

// NewLogrusLogger wraps l.  A nil l uses the logrus standard logger.
func NewLogrusLogger(l *log.Logger) *LogrusLogger {
	if l == nil {
		l = log.StandardLogger()
	}
	return &LogrusLogger{entry: log.NewEntry(l)}
}

// With returns a logger that always carries the given fields.
func (l *LogrusLogger) With(fields ...interface{}) *LogrusLogger {
	return &LogrusLogger{entry: l.entry.WithFields(toFields(fields))}
}

func (l *LogrusLogger) Debug(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Debug(msg)
}
func (l *LogrusLogger) Info(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Info(msg)
}
func (l *LogrusLogger) Warn(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Warn(msg)
}
func (l *LogrusLogger) Error(msg string, fields ...interface{}) {
	l.entry.WithFields(toFields(fields)).Error(msg)
}

func toFields(kv []interface{}) log.Fields {
	f := make(log.Fields, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		if i+1 == len(kv) {
			f["!BADKEY"] = kv[i]
			break
		}
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		f[key] = kv[i+1]
	}
	return f
}
