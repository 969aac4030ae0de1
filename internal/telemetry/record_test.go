package telemetry

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestFlowRecordJSONShape(t *testing.T) {
	traceID := "0123456789abcdef0123456789abcdef"
	rec := FlowRecord{
		Timestamp: time.Unix(0, 0).UTC(),
		Level:     "INFO",
		Hostname:  "host-test",
		Src:       "source1",
		Dst:       "dest1",
		Bytes:     1024,
		LatencyMS: 7,
		Status:    StatusOK,
		TraceID:   &traceID,
		Msg:       "processed message",
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)

	// Field order in the line follows the struct declaration.
	order := []string{`"ts"`, `"level"`, `"hostname"`, `"src"`, `"dst"`, `"bytes"`, `"latency_ms"`, `"status"`, `"trace_id"`, `"msg"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(got, key)
		if idx < 0 {
			t.Fatalf("serialized record missing %s: %s", key, got)
		}
		if idx < last {
			t.Errorf("field %s out of order in %s", key, got)
		}
		last = idx
	}
	if !strings.Contains(got, `"trace_id":"`+traceID+`"`) {
		t.Errorf("trace_id not serialized: %s", got)
	}
}

func TestFlowRecordNullTraceID(t *testing.T) {
	rec := FlowRecord{Timestamp: time.Unix(0, 0).UTC(), Status: StatusOK}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"trace_id":null`) {
		t.Errorf("uncorrelated record should carry a null trace_id: %s", data)
	}
}

func TestLevelFor(t *testing.T) {
	if got := LevelFor(StatusOK); got != "INFO" {
		t.Errorf("LevelFor(ok) = %q, want INFO", got)
	}
	if got := LevelFor(StatusError); got != "ERROR" {
		t.Errorf("LevelFor(error) = %q, want ERROR", got)
	}
}
