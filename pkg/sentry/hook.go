package sentry

import (
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/xdooria-keyspace/pkg/logger"
)

// LogHook 把不低于 minLevel 的日志作为事件上报，日志本身照常输出
func LogHook(c *Client, minLevel zapcore.Level) logger.Hook {
	return logger.HookFunc(func(entry zapcore.Entry, fields []zapcore.Field) bool {
		if entry.Level < minLevel || !c.Enabled() {
			return true
		}
		c.CaptureEvent(logEvent(entry, fields))
		return true
	})
}

// logEvent 日志字段放进 Extra，error 字段同时作为异常
func logEvent(entry zapcore.Entry, fields []zapcore.Field) *sentry.Event {
	enc := zapcore.NewMapObjectEncoder()
	event := sentry.NewEvent()

	for _, f := range fields {
		f.AddTo(enc)
		if f.Type != zapcore.ErrorType {
			continue
		}
		if err, ok := f.Interface.(error); ok {
			event.Exception = append(event.Exception, sentry.Exception{
				Type:  f.Key,
				Value: err.Error(),
			})
		}
	}

	event.Level = toLevel(entry.Level)
	event.Message = entry.Message
	event.Logger = entry.LoggerName
	event.Timestamp = entry.Time
	event.Extra = enc.Fields
	return event
}

func toLevel(l zapcore.Level) sentry.Level {
	switch {
	case l >= zapcore.DPanicLevel:
		return sentry.LevelFatal
	case l >= zapcore.ErrorLevel:
		return sentry.LevelError
	case l == zapcore.WarnLevel:
		return sentry.LevelWarning
	case l == zapcore.InfoLevel:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
