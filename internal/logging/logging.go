package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options configures a logger
type Options struct {
	Level  string // logrus level name, default "info"
	Format string // "text" or "json", default "text"
	Output io.Writer
}

// New creates a logger. Logs go to stderr unless Output is set, so that
// command output on stdout stays machine readable.
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()

	log.SetOutput(os.Stderr)
	if opts.Output != nil {
		log.SetOutput(opts.Output)
	}

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	log.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	return log, nil
}

// Discard returns a logger that drops everything
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
