package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

const logFileName = "termtick.log"

// setupLogging routes the standard logger to dir/termtick.log when debug is set,
// rotating an existing file larger than maxSize. Without debug, logs are discarded;
// nothing may reach stdout while the terminal is taken over
func setupLogging(debug bool, dir string, maxSize int64) *os.File {
	if !debug {
		log.SetOutput(io.Discard)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.SetOutput(io.Discard)
		return nil
	}

	path := filepath.Join(dir, logFileName)
	if info, err := os.Stat(path); err == nil && maxSize > 0 && info.Size() > maxSize {
		rotated := filepath.Join(dir, fmt.Sprintf("termtick-%s.log", time.Now().Format("20060102-150405")))
		os.Rename(path, rotated)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(f)
	log.SetFlags(log.Ldate | log.Lmicroseconds | log.Lshortfile)
	log.Printf("termtick: logging started (pid %d)", os.Getpid())
	return f
}
