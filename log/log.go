// Package log writes diagnostics to a daily file under the logs directory.
// Nothing is written unless logs.write is enabled.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/key"
	"github.com/nezuko-cli/nezuko/where"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var logger = discarding()

func discarding() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Path is the log file for day t.
func Path(t time.Time) string {
	return filepath.Join(where.Logs(), t.Format("2006-01-02")+".log")
}

// Setup configures the logger from logs.write, logs.json and logs.level.
// An unknown level falls back to info.
func Setup() error {
	if !viper.GetBool(key.LogsWrite) {
		logger = discarding()
		return nil
	}

	f, err := filesystem.API().OpenFile(Path(time.Now()), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	l := logrus.New()
	l.SetOutput(f)

	if viper.GetBool(key.LogsJson) {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	logger = l
	return nil
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

func Error(args ...any) {
	logger.Error(args...)
}

func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}

func Warn(args ...any) {
	logger.Warn(args...)
}

func Warnf(format string, args ...any) {
	logger.Warnf(format, args...)
}

func Info(args ...any) {
	logger.Info(args...)
}

func Infof(format string, args ...any) {
	logger.Infof(format, args...)
}

func Debug(args ...any) {
	logger.Debug(args...)
}

func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}
