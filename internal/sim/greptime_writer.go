package sim

import (
	"context"
	"fmt"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"packetops-sim/internal/telemetry"
)

// greptimeClient abstracts the ingester client for testing.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes flow records to GreptimeDB via the ingester
// client, as an alternative sink next to the JSONL file.
type GreptimeDBWriter struct {
	client greptimeClient
	table  string
}

// NewGreptimeDBWriter connects to GreptimeDB on the given endpoint.
func NewGreptimeDBWriter(host string, port int, database, tableName string) (*GreptimeDBWriter, error) {
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect greptimedb: %w", err)
	}
	if tableName == "" {
		tableName = telemetry.FlowTableName
	}
	return &GreptimeDBWriter{client: client, table: tableName}, nil
}

// Write inserts a single flow record.
func (w *GreptimeDBWriter) Write(rec telemetry.FlowRecord) error {
	return w.WriteBatch([]telemetry.FlowRecord{rec})
}

// WriteBatch inserts multiple flow records.
func (w *GreptimeDBWriter) WriteBatch(recs []telemetry.FlowRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tbl, err := w.buildTable(recs)
	if err != nil {
		return err
	}
	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		return fmt.Errorf("greptimedb write: %w", err)
	}
	return nil
}

func (w *GreptimeDBWriter) buildTable(recs []telemetry.FlowRecord) (*table.Table, error) {
	tbl, err := table.New(w.table)
	if err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("hostname", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("src", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("dst", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("level", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("bytes", types.INT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("latency_ms", types.INT64); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("status", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("trace_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("msg", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return nil, err
	}

	for _, r := range recs {
		traceID := ""
		if r.TraceID != nil {
			traceID = *r.TraceID
		}
		err := tbl.AddRow(r.Hostname, r.Src, r.Dst,
			r.Level, int64(r.Bytes), r.LatencyMS, r.Status, traceID, r.Msg,
			r.Timestamp)
		if err != nil {
			return nil, err
		}
	}
	return tbl, nil
}
