package domain

import "time"

// Summary reasons reported when a run creates nothing.
const (
	ReasonNoSpaces = "no spaces found"
	ReasonNoNodes  = "no nodes created"
)

// RefreshSummary is the terminal result of a full refresh.
// Per-item failures are counted here rather than returned as errors.
type RefreshSummary struct {
	RunID        string
	SpacesSeen   int
	PagesSeen    int
	NodesCreated int
	PagesFailed  int
	NodesFailed  int
	Success      bool
	Reason       string
	StartedAt    time.Time
	Duration     time.Duration
}

// Finalise sets Success and Reason from the counts.
func (s *RefreshSummary) Finalise() {
	s.Success = s.NodesCreated > 0
	if !s.Success && s.Reason == "" {
		s.Reason = ReasonNoNodes
	}
}

// BackfillSummary is the result of a backfill run.
type BackfillSummary struct {
	Label string

	// Batches holds the size of each batch fetched, in order.
	Batches []int

	NodesEmbedded int
	Duration      time.Duration
}

// IngestSummary is the result of relational ingestion.
type IngestSummary struct {
	RunID        string
	Label        string
	Tables       int
	RowsRead     int
	NodesCreated int
	TablesFailed []string
	Duration     time.Duration
}

// Success reports whether at least one node was written.
func (s IngestSummary) Success() bool {
	return s.NodesCreated > 0
}
