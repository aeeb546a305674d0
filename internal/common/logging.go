package common

import (
	"io"
	"log"
	"os"
)

var (
	logger = log.New(os.Stderr, "[fitgate] ", log.LstdFlags|log.Lmicroseconds)
)

func Logf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	logger.Fatalf(format, args...)
}

// SetLogOutput redirects the package logger, used by the daemon to route
// output through its rotating log writer.
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}
