package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Init configures the package logger. Production emits JSON at info level,
// anything else emits text at debug level. A non-empty level overrides the
// default; an unknown level is reported and ignored.
func Init(production bool, level string) {
	log = logrus.New()
	log.SetOutput(os.Stdout)

	if production {
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.InfoLevel)
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		log.SetLevel(logrus.DebugLevel)
	}

	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			log.Warnf("unknown log level %q, keeping %s", level, log.GetLevel())
			return
		}
		log.SetLevel(parsed)
	}
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func Level() logrus.Level {
	return log.GetLevel()
}

// WithFields returns an entry carrying structured context.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return log.WithFields(fields)
}

func Info(args ...interface{}) {
	log.Info(args...)
}

func Error(args ...interface{}) {
	log.Error(args...)
}

func Debug(args ...interface{}) {
	log.Debug(args...)
}

func Warn(args ...interface{}) {
	log.Warn(args...)
}

func Fatal(args ...interface{}) {
	log.Fatal(args...)
}
