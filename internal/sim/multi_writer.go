package sim

import "packetops-sim/internal/telemetry"

// MultiWriter fans records out to multiple writers.
type MultiWriter struct {
	writers []RecordWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(writers ...RecordWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write sends a record to all writers, returning the first failure.
func (mw *MultiWriter) Write(rec telemetry.FlowRecord) error {
	for _, w := range mw.writers {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple records to all writers, using batch mode where
// supported.
func (mw *MultiWriter) WriteBatch(recs []telemetry.FlowRecord) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchRecordWriter); ok {
			if err := bw.WriteBatch(recs); err != nil {
				return err
			}
			continue
		}
		for _, r := range recs {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}
