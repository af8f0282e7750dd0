package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/smnkrgr/AtomicActions/internal/redact"
)

// defaultMaxLogBytes is the size at which New moves the existing log to
// <path>.1 and starts a fresh file.
const defaultMaxLogBytes = 10 * 1024 * 1024

// ExecutionEvent is one line of the execution log.
type ExecutionEvent struct {
	Timestamp  string `json:"timestamp"`
	RunID      string `json:"run_id"`
	Technique  string `json:"technique"`
	Test       string `json:"test"`
	GUID       string `json:"guid"`
	Executor   string `json:"executor"`
	Command    string `json:"command,omitempty"`
	Executed   bool   `json:"executed"`
	Success    bool   `json:"success"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Host       string `json:"host,omitempty"`
	Elevated   bool   `json:"elevated"`

	// Secrets are literal values masked in Command; never written.
	Secrets []string `json:"-"`
}

type ExecutionLogger struct {
	file *os.File
	mu   sync.Mutex
}

func New(path string) (*ExecutionLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	if err := rotate(path, defaultMaxLogBytes); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	return &ExecutionLogger{file: file}, nil
}

func (l *ExecutionLogger) Log(event ExecutionEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	event.Command = redact.Redact(redact.Values(event.Command, event.Secrets))
	if event.Error != "" {
		event.Error = redact.Redact(event.Error)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = l.file.Write(data)
	return err
}

func (l *ExecutionLogger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func rotate(path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.Size() < maxBytes {
		return nil
	}
	return os.Rename(path, path+".1")
}
