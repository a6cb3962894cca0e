package logger

import (
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	log "github.com/sirupsen/logrus"
)

// NewTaskLogger builds the Print-style logger machinery logs through. It
// writes to path, rotated hourly and kept for a week.
func NewTaskLogger(path string, debug bool) (*log.Logger, error) {
	//The following configuration rotates a new file every hour, keeps the last 7 days of files and cleans up the surplus.
	writer, err := rotatelogs.New(
		path+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(time.Hour),
	)
	if err != nil {
		return nil, err
	}

	l := log.New()
	l.SetOutput(writer)
	l.SetFormatter(&log.JSONFormatter{})
	l.SetLevel(log.InfoLevel)
	if debug {
		l.SetLevel(log.DebugLevel)
	}
	return l, nil
}
