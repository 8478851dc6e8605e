package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/jengzang/taxi-analytics-go/internal/config"
)

const timestampFormat = "2006-01-02 15:04:05"

// Init sets the level and formatter of the standard logrus logger.
// An unparsable level is returned as an error and leaves the logger untouched.
func Init(cfg config.LogConfig) error {
	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return err
	}

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
		})
	}
	logrus.SetLevel(level)
	return nil
}
