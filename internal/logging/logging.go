package logging

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger.
//
// The interactive UI owns stdout, so client logs go to a file. With an empty
// path and debug off nothing is written; with debug on and no path the log
// lands in ./todo.log. The returned closer must be called on exit.
func Setup(path string, debug bool) (io.Closer, error) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})
	if debug {
		log.SetLevel(log.DebugLevel)
		if path == "" {
			path = "todo.log"
		}
	} else {
		log.SetLevel(log.InfoLevel)
	}
	if path == "" {
		log.SetOutput(io.Discard)
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return f, nil
}
