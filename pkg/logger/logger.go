package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New собирает JSON-логгер приложения. Некорректный уровень не роняет
// запуск: логгер стартует на info и сообщает о подмене.
func New(logLevel string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("requested", logLevel).Warn("Unknown log level, falling back to info")
		return log
	}
	log.SetLevel(level)
	return log
}
