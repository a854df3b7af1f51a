// SPDX-License-Identifier: GPL-3.0-or-later
package log

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var loggers map[string]*logrus.Logger

// NewPrefixFormatter returns a text formatter that starts every line with the component prefix so the output of
// sources, the classifier run and the exporters can be told apart.
func NewPrefixFormatter(prefix string) *PrefixFormatter {
	stringPrefix := fmt.Sprintf("%s:\t", prefix)

	formatter := &logrus.TextFormatter{}
	formatter.FullTimestamp = true
	formatter.TimestampFormat = "15:04:05"
	formatter.DisableColors = strings.Contains(runtime.GOOS, "windows")
	return &PrefixFormatter{
		formatter,
		[]byte(stringPrefix),
	}
}

type PrefixFormatter struct {
	formatter logrus.Formatter
	prefix    []byte
}

func (f *PrefixFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	text, err := f.formatter.Format(entry)
	if err != nil {
		return nil, err
	}
	line := make([]byte, 0, len(f.prefix)+len(text))
	line = append(line, f.prefix...)
	return append(line, text...), nil
}

const (
	LOG_MAIN        = "MA"
	LOG_JOBSORT     = "JS"
	LOG_MBOX        = "MB"
	LOG_IMAP        = "IM"
	LOG_EXPORT      = "EX"
	LOG_PERSISTENCE = "PI"
)

var allLoggers = []string{
	LOG_MAIN,
	LOG_JOBSORT,
	LOG_MBOX,
	LOG_IMAP,
	LOG_EXPORT,
	LOG_PERSISTENCE,
}

// ParseLevel accepts the logrus level names, case insensitive. Empty means info.
func ParseLevel(loglevel string) (logrus.Level, error) {
	loglevel = strings.TrimSpace(loglevel)
	if loglevel == "" {
		return logrus.InfoLevel, nil
	}

	level, err := logrus.ParseLevel(loglevel)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("unknown log level %q, use one of trace, debug, info, warn, error", loglevel)
	}
	return level, nil
}

func initLogger(prefix string, level logrus.Level) {
	loggers[prefix] = logrus.New()
	loggers[prefix].Level = level
	loggers[prefix].Formatter = NewPrefixFormatter(prefix)
}

// InitLogging creates all component loggers. An invalid level falls back to info, it is validated with the config.
func InitLogging(loglevel string) {
	level, _ := ParseLevel(loglevel)

	loggers = make(map[string]*logrus.Logger)
	for _, prefix := range allLoggers {
		initLogger(prefix, level)
	}
}

func SetLogLevel(loglevel string) error {
	level, err := ParseLevel(loglevel)
	if err != nil {
		return err
	}

	for _, v := range loggers {
		v.Level = level
	}
	return nil
}

// Logger returns the named logger. InitLogging must have been called before.
func Logger(logger string) *logrus.Logger {
	l, ok := loggers[logger]
	if !ok {
		panic("Logger " + logger + " unknown")
	}

	return l
}
