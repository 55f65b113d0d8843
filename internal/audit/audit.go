package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const timestampLayout = "2006-01-02 15:04:05"

// Recorder appends one message to the operator audit trail.
type Recorder interface {
	Record(message string)
}

// FileRecorder appends `[timestamp] message` lines to a log file. The file
// is opened O_APPEND and never truncated, so external readers (tail -f)
// always see a growing trail.
type FileRecorder struct {
	logger zerolog.Logger
	path   string
	now    func() time.Time
	mu     sync.Mutex
}

// NewFileRecorder creates a recorder writing to path. The parent directory
// is created if missing. A bad path surfaces here as a configuration error
// instead of silent per-line failures later.
func NewFileRecorder(path string, logger zerolog.Logger) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	_ = file.Close()

	return &FileRecorder{
		path:   path,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Record implements Recorder. Write errors are logged rather than returned;
// a broken audit sink must not mask mount outcomes.
func (r *FileRecorder) Record(message string) {
	line := fmt.Sprintf("[%s] %s\n", r.now().Format(timestampLayout), message)

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		r.logger.Error().Err(err).Str("path", r.path).Msg("audit log open failed")
		return
	}
	defer file.Close()

	if _, err := file.WriteString(line); err != nil {
		r.logger.Error().Err(err).Str("path", r.path).Msg("audit log write failed")
	}
}

// Memory is an in-memory Recorder for tests.
type Memory struct {
	mu       sync.Mutex
	messages []string
}

// Record implements Recorder.
func (m *Memory) Record(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
}

// All returns a copy of the recorded messages.
func (m *Memory) All() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}
