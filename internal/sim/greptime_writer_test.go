package sim

import (
	"context"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"packetops-sim/internal/telemetry"
)

type mockGreptimeClient struct {
	table *table.Table
	calls int
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	m.calls++
	if len(tables) > 0 {
		m.table = tables[0]
	}
	return &gpb.GreptimeResponse{}, nil
}

func TestGreptimeWriterFlowRecords(t *testing.T) {
	ts := time.Unix(0, 0).UTC()
	traceID := "0123456789abcdef0123456789abcdef"
	recs := []telemetry.FlowRecord{
		{
			Timestamp: ts,
			Level:     "INFO",
			Hostname:  "host-test",
			Src:       "source1",
			Dst:       "dest1",
			Bytes:     1024,
			LatencyMS: 12,
			Status:    telemetry.StatusOK,
			TraceID:   &traceID,
			Msg:       "processed message",
		},
		{
			Timestamp: ts,
			Level:     "ERROR",
			Hostname:  "host-test",
			Src:       "source2",
			Dst:       "dest2",
			Bytes:     2048,
			LatencyMS: 30,
			Status:    telemetry.StatusError,
			Msg:       "processed message",
		},
	}

	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: "flow_records"}

	if err := w.WriteBatch(recs); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if m.table == nil {
		t.Fatalf("expected table to be captured")
	}

	rows := m.table.GetRows().Rows
	if len(rows) != 2 {
		t.Fatalf("unexpected row count: %d", len(rows))
	}
	if got := rows[0].Values[0].GetStringValue(); got != "host-test" {
		t.Errorf("hostname = %s, want host-test", got)
	}
	if got := rows[0].Values[7].GetStringValue(); got != traceID {
		t.Errorf("trace_id = %s, want %s", got, traceID)
	}
	// Records without an active trace carry an empty string, not a null.
	if got := rows[1].Values[7].GetStringValue(); got != "" {
		t.Errorf("trace_id for uncorrelated record = %s, want empty", got)
	}
	if got := rows[1].Values[6].GetStringValue(); got != telemetry.StatusError {
		t.Errorf("status = %s, want %s", got, telemetry.StatusError)
	}
}

func TestGreptimeWriterSingleWriteDelegatesToBatch(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: "flow_records"}

	if err := w.Write(testRecord("source1")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if m.calls != 1 {
		t.Errorf("client calls = %d, want 1", m.calls)
	}
	if len(m.table.GetRows().Rows) != 1 {
		t.Errorf("row count = %d, want 1", len(m.table.GetRows().Rows))
	}
}

func TestGreptimeWriterEmptyBatchSkipsClient(t *testing.T) {
	m := &mockGreptimeClient{}
	w := &GreptimeDBWriter{client: m, table: "flow_records"}

	if err := w.WriteBatch(nil); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if m.calls != 0 {
		t.Errorf("client calls = %d, want 0", m.calls)
	}
}
