package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// global accessible logger
var (
	l   *logrus.Logger
	Log *logrus.Entry
)

// This init function is for testing cases, where the entry point is not
// the main function.
func init() {
	InitLogger()
}

func InitLogger() {
	l = logrus.New()
	l.SetOutput(os.Stderr)

	if os.Getenv("ENV") == "production" {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	Log = l.WithFields(logrus.Fields{
		"service": "unithreads-api",
	})
}
