package logger

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sirupsen/logrus"
)

type kratosLogger struct {
	l *logrus.Logger
}

var _ log.Logger = (*kratosLogger)(nil)

// NewKratosLogger 将 logrus 适配为 kratos log.Logger，键值对转为 logrus 字段
func NewKratosLogger(l *logrus.Logger) log.Logger {
	return &kratosLogger{l: l}
}

func (k *kratosLogger) Log(level log.Level, keyvals ...any) error {
	lvl := toLogrusLevel(level)
	if !k.l.IsLevelEnabled(lvl) {
		return nil
	}

	var msg string
	fields := logrus.Fields{}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "KEYVALS UNPAIRED")
	}
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == log.DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields[key] = keyvals[i+1]
	}

	k.l.WithFields(fields).Log(lvl, msg)
	return nil
}

func toLogrusLevel(level log.Level) logrus.Level {
	switch level {
	case log.LevelDebug:
		return logrus.DebugLevel
	case log.LevelWarn:
		return logrus.WarnLevel
	case log.LevelError:
		return logrus.ErrorLevel
	case log.LevelFatal:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
