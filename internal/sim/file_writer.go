package sim

import (
	"encoding/json"
	"os"
	"sync"

	"packetops-sim/internal/telemetry"
)

// FileWriter appends flow records to a JSONL file. A mutex serializes the
// appends so concurrent emitters never interleave partial lines; the lock
// covers only the single append, serialization happens outside it. Write
// failures are returned to the caller, never swallowed.
type FileWriter struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileWriter opens (or creates) the record file for appending.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f}, nil
}

// Write serializes one record and appends it as a single line.
func (w *FileWriter) Write(rec telemetry.FlowRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.file.Write(data)
	return err
}

// WriteBatch appends multiple records, stopping at the first failure.
func (w *FileWriter) WriteBatch(recs []telemetry.FlowRecord) error {
	for _, r := range recs {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
