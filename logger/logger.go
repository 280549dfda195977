package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level  string
	Format string
	// Dir enables a rotating app.log next to stdout when set.
	Dir string
}

// New configures the standard logrus logger and returns it. The returned
// io.Closer releases the log file, if any.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	logger := logrus.StandardLogger()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "invalid log level %q", opts.Level)
	}
	logger.SetLevel(level)

	switch opts.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, nil, errors.Errorf("invalid log format %q", opts.Format)
	}

	if opts.Dir == "" {
		logger.SetOutput(os.Stdout)
		return logger, io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(opts.Dir, os.ModePerm); err != nil {
		return nil, nil, errors.Wrap(err, "creating log directory")
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "app.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, logFile))

	return logger, logFile, nil
}
