package logger

// CronLogger adapts Logger to robfig/cron's Logger interface.
type CronLogger struct {
	l *Logger
}

func NewCronLogger(l *Logger) CronLogger {
	return CronLogger{l: l}
}

// Info is called by cron for routine scheduling events; they go to debug.
func (c CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (c CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(kvFields(keysAndValues), Error(err))...)
}

func kvFields(kv []interface{}) []Field {
	out := make([]Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out = append(out, Any(key, kv[i+1]))
	}
	return out
}
