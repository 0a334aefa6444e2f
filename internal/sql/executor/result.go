package executor

// Result is the structured outcome of one statement: the single integration
// surface consumed by the shell and the wire server.
type Result struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`

	// Message carries DDL/DML confirmations ("Created table ...").
	Message string `json:"message,omitempty"`
}
