package log

import (
	"os"
	"sync"
)

// Output defines the interface for log outputs.
type Output interface {
	Write(entry *Entry, formatted []byte) error
	Close() error
}

// ConsoleOutput writes entries to stderr, serialized by a mutex so that
// concurrent connection goroutines never interleave lines.
type ConsoleOutput struct {
	mu sync.Mutex
}

// NewConsoleOutput creates a console output.
func NewConsoleOutput() *ConsoleOutput { return &ConsoleOutput{} }

// Write writes the formatted entry to stderr.
func (o *ConsoleOutput) Write(_ *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := os.Stderr.Write(formatted)
	return err
}

// Close is a no-op for console output.
func (o *ConsoleOutput) Close() error { return nil }

// nullOutput discards everything. Used by NewTestLogger.
type nullOutput struct{}

func (nullOutput) Write(*Entry, []byte) error { return nil }
func (nullOutput) Close() error               { return nil }
