package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// sessionStamp is the layout of the session start in log file names.
const sessionStamp = "20060102_150405"

// LogFilePath names the log file of one session: <dir>/<name>.<start>.log.
func LogFilePath(logsDir, name string, sessionStart time.Time) string {
	return filepath.Join(logsDir, name+"."+sessionStart.Format(sessionStamp)+".log")
}

// OpenLogFile creates logsDir when missing and opens the session log file
// for appending.
func OpenLogFile(logsDir, name string, sessionStart time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, "", fmt.Errorf("creating logs dir: %w", err)
	}
	path := LogFilePath(logsDir, name, sessionStart)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, "", fmt.Errorf("opening log file %s: %w", path, err)
	}
	return f, path, nil
}
