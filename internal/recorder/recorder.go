package recorder

// BatchRecord captures the outcome of one analysis batch for diagnostics.
// The recorder is an operational audit trail only; series data itself lives
// exclusively in the process cache.
type BatchRecord struct {
	ID        string
	Period    string
	Currency  string
	Requested int
	Analyzed  int
	Failed    int
	Results   []TickerRecord
}

// TickerRecord captures the terminal state of one ticker pipeline. An empty
// Reason marks success; the summary columns are zero on failure.
type TickerRecord struct {
	Ticker      string
	State       string
	Reason      string
	Points      int
	TotalReturn float64
	MaxClose    float64
	MinClose    float64
	Volatility  float64
}

// Recorder persists batch outcomes for later inspection.
type Recorder interface {
	RecordBatch(rec *BatchRecord) error
	Close() error
}
