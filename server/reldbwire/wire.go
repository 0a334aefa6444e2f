package reldbwire

import (
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/engine"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/record"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/sql/executor"
)

// Request operations.
const (
	OpQuery  = "query"  // execute req.SQL
	OpTables = "tables" // list table names
	OpSchema = "schema" // describe req.Table
	OpStats  = "stats"  // database statistics
)

// Request is a single framed command. Op defaults to "query" when empty.
type Request struct {
	ID    uint64 `json:"id"`
	Op    string `json:"op,omitempty"`
	SQL   string `json:"sql,omitempty"`
	Table string `json:"table,omitempty"`
}

// Response answers a request ID. Exactly one of the payload fields is set
// on success, matching the request op.
type Response struct {
	ID     uint64           `json:"id"`
	Result *executor.Result `json:"result,omitempty"`
	Tables []string         `json:"tables,omitempty"`
	Schema []record.Column  `json:"schema,omitempty"`
	Stats  *engine.Stats    `json:"stats,omitempty"`
	Error  string           `json:"error,omitempty"`
}
