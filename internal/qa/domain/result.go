package domain

// Table is a rectangular result. Cells are strings, numbers or nil.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ChartSpec pairs axis values with a title for the client to render.
type ChartSpec struct {
	Type  string    `json:"type"`
	X     []string  `json:"x"`
	Y     []float64 `json:"y"`
	Title string    `json:"title"`
}

// Result is what a report template produces.
type Result struct {
	Answer    string     `json:"answer"`
	Table     *Table     `json:"table,omitempty"`
	ChartSpec *ChartSpec `json:"chartSpec,omitempty"`
}

type Meta struct {
	Limited          bool       `json:"limited"`
	UsageRemaining   int        `json:"usageRemaining"`
	Intent           IntentType `json:"intent"`
	QueriesRemaining int        `json:"queriesRemaining"`
}

// Answer is the response to one ask call.
type Answer struct {
	Result
	Meta Meta `json:"meta"`
}
