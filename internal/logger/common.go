package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// closeLogFile syncs and closes a log file. Sync failures are reported on
// stderr but never prevent the close; the close error is returned.
func closeLogFile(file *os.File, loggerName string) error {
	if file == nil {
		return nil
	}

	if err := file.Sync(); err != nil {
		log.Printf("WARNING: Failed to sync %s log file before close: %v", loggerName, err)
	}

	return file.Close()
}

// initLogFile creates logDir when missing and opens fileName inside it for
// appending.
func initLogFile(logDir, fileName string) (*os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, fileName)
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}
