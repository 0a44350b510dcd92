package logger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// DefaultBufferSize batches file writes without holding much memory
	DefaultBufferSize = 32 * 1024

	// DefaultFlushInterval bounds how long a log line can sit in the buffer
	DefaultFlushInterval = 5 * time.Second

	// LogFilePermissions restricts log files to the owner
	LogFilePermissions = 0o600
)

// ErrWriterClosed is returned when writing to a closed BufferedFileWriter
var ErrWriterClosed = errors.New("log writer closed")

// BufferedFileWriter is a goroutine-safe buffered log file with periodic flushing.
// Reopen supports external rotation tools that move the file and send SIGHUP.
type BufferedFileWriter struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	writer   *bufio.Writer
	stop     chan struct{}
	done     chan struct{}
	interval time.Duration
	closed   bool
}

// NewBufferedFileWriter opens path for appending and starts the flush loop
func NewBufferedFileWriter(path string) (*BufferedFileWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	w := &BufferedFileWriter{
		path:     path,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		interval: DefaultFlushInterval,
	}
	if err := w.open(); err != nil {
		return nil, err
	}

	go w.flushLoop()
	return w, nil
}

func (w *BufferedFileWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermissions) //nolint:gosec // path comes from configuration
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", w.path, err)
	}
	w.file = file
	w.writer = bufio.NewWriterSize(file, DefaultBufferSize)
	return nil
}

// Write implements io.Writer
func (w *BufferedFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrWriterClosed
	}
	return w.writer.Write(p)
}

// Flush writes buffered data to the file
func (w *BufferedFileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	return w.writer.Flush()
}

// Reopen flushes and reopens the file at the same path
func (w *BufferedFileWriter) Reopen() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush before reopen: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close before reopen: %w", err)
	}
	return w.open()
}

// Close stops the flush loop, flushes, syncs and closes the file
func (w *BufferedFileWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.writer.Flush(), w.file.Sync(), w.file.Close())
}

func (w *BufferedFileWriter) flushLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.mu.Lock()
			if !w.closed {
				_ = w.writer.Flush()
			}
			w.mu.Unlock()
		case <-w.stop:
			return
		}
	}
}
