// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Levels accepted by Setup, most verbose last.
var levels = map[string]logrus.Level{
	"fatal": logrus.FatalLevel,
	"error": logrus.ErrorLevel,
	"warn":  logrus.WarnLevel,
	"info":  logrus.InfoLevel,
	"debug": logrus.DebugLevel,
}

// ParseLevel maps a level name to a logrus level. Names are case-insensitive.
func ParseLevel(name string) (logrus.Level, error) {
	l, ok := levels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		var zero logrus.Level
		return zero, fmt.Errorf("logging: invalid level %q", name)
	}
	return l, nil
}

// Setup sends log output to stdout with timestamps and sets the level.
func Setup(level string) error {
	l, err := ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(l)
	return nil
}
