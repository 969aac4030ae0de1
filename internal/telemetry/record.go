// Flow record structs shared by the log sink writers
package telemetry

import (
	"os"
	"time"
)

// FlowRecord is one structured log line for a processed item. Field order
// matches the serialized line; records are never mutated after creation.
type FlowRecord struct {
	Timestamp time.Time `json:"ts"`         // UTC
	Level     string    `json:"level"`      // INFO or ERROR
	Hostname  string    `json:"hostname"`   // TAG
	Src       string    `json:"src"`        // TAG
	Dst       string    `json:"dst"`        // TAG
	Bytes     int       `json:"bytes"`      // FIELD
	LatencyMS int64     `json:"latency_ms"` // FIELD
	Status    string    `json:"status"`     // FIELD
	TraceID   *string   `json:"trace_id"`   // correlation identity, null when no span is active
	Msg       string    `json:"msg"`
}

// FlowTableName holds the table name used when writing to GreptimeDB.
// It defaults to "flow_records" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var FlowTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "flow_records"
}()

func (FlowRecord) TableName() string {
	return FlowTableName
}

// Item status constants.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// LevelFor maps an item status to a log severity.
func LevelFor(status string) string {
	if status == StatusOK {
		return "INFO"
	}
	return "ERROR"
}
