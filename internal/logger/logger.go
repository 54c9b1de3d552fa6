package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the application logger: JSON output in production,
// human-readable text everywhere else.
func New(appEnv, level string) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stdout
	if appEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}
