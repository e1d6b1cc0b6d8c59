// Package trace records every frame crossing the serial line as one
// JSON object per line, suitable for offline protocol analysis.
package trace

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Entry is a single traced frame.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Port      string    `json:"port"`
	Direction string    `json:"dir"` // "tx" or "rx"
	Frame     string    `json:"frame"`
}

// Tracer accepts frames for recording. Implementations must be safe
// for concurrent use: the reader goroutine and command senders trace
// from different goroutines.
type Tracer interface {
	Frame(port, direction string, raw []byte)
	Close() error
}

// Writer traces frames to a size-rotated JSONL file.
type Writer struct {
	mu  sync.Mutex
	out io.WriteCloser
}

// NewWriter creates a tracer writing to trace.jsonl inside dir,
// rotating at 10 MB and keeping five old files.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	return &Writer{
		out: &lumberjack.Logger{
			Filename:   filepath.Join(dir, "trace.jsonl"),
			MaxSize:    10,
			MaxBackups: 5,
		},
	}, nil
}

// Frame records one frame. Marshal or write failures are reported on
// stderr and otherwise ignored: tracing never disturbs the data path.
func (w *Writer) Frame(port, direction string, raw []byte) {
	entry := Entry{
		Timestamp: time.Now().UTC(),
		Port:      port,
		Direction: direction,
		Frame:     hex.EncodeToString(raw),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal trace entry: %v\n", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.out.Write(append(data, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write trace entry: %v\n", err)
	}
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Close()
}

// Nop is a tracer that discards everything.
type Nop struct{}

func (Nop) Frame(string, string, []byte) {}
func (Nop) Close() error                 { return nil }
