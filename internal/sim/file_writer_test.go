package sim

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"packetops-sim/internal/telemetry"
)

func testRecord(src string) telemetry.FlowRecord {
	return telemetry.FlowRecord{
		Timestamp: time.Now().UTC(),
		Level:     "INFO",
		Hostname:  "host-test",
		Src:       src,
		Dst:       "dest1",
		Bytes:     1024,
		LatencyMS: 5,
		Status:    telemetry.StatusOK,
		Msg:       "processed message",
	}
}

func TestFileWriter_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.log")
	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer w.Close()

	if err := w.Write(testRecord("source1")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(testRecord("source2")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var rec telemetry.FlowRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Errorf("line %d is not valid JSON: %v", lines, err)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("log has %d lines, want 2", lines)
	}
}

func TestFileWriter_ConcurrentWritersNoInterleaving(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.log")
	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}

	const writers = 10
	const perWriter = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				rec := testRecord(fmt.Sprintf("source%d", n))
				if err := w.Write(rec); err != nil {
					t.Errorf("Write: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var rec telemetry.FlowRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("line %d corrupted: %v", lines, err)
		}
		lines++
	}
	if lines != writers*perWriter {
		t.Errorf("log has %d lines, want %d", lines, writers*perWriter)
	}
}

func TestFileWriter_WriteAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.log")
	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Write(testRecord("source1")); err == nil {
		t.Error("Write after Close succeeded, want error")
	}
}

func TestFileWriter_WriteBatchStopsAtFirstFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.log")
	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	w.Close()

	recs := []telemetry.FlowRecord{testRecord("source1"), testRecord("source2")}
	if err := w.WriteBatch(recs); err == nil {
		t.Error("WriteBatch on closed file succeeded, want error")
	}
}
