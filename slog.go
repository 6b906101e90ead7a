package challengescot

import (
	"github.com/sirupsen/logrus"
	"io"
)

// SLogger is the challengescot internal logging interface. *logrus.Logger implements this interface
type SLogger interface {
	Printf(format string, v ...interface{})

	Debugf(format string, v ...interface{})
}

// NewSLogger creates a new logger writing text entries to out. Debug lines are only written when debug is true
func NewSLogger(out io.Writer, debug bool) (l *logrus.Logger) {
	l = logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})

	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	return l
}
