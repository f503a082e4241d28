package migrator

import "time"

// Progress is a snapshot of the running counters, handed to the observer
// after each batch so reporting stays out of the loop's decision logic.
type Progress struct {
	Total     int64 // source row count taken before the first batch
	Processed int64 // rows fetched and transformed
	Upserted  int64 // rows written to the destination
	Skipped   int64 // rows filtered out by the existing-id check
	Errors    int64 // batches that failed after retries, plus counted fetch failures
	LastID    int64 // cursor position after the most recent batch
	Elapsed   time.Duration
}

// Percent returns processed rows as a percentage of the initial count.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Processed) / float64(p.Total) * 100
}

// Rate returns processed rows per second of wall-clock time.
func (p Progress) Rate() float64 {
	secs := p.Elapsed.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(p.Processed) / secs
}

// ProgressFunc receives a Progress snapshot after every batch.
type ProgressFunc func(Progress)
