// Package fiscal defines the collaborator contract for the funding,
// spending, procurement, travel and training record subsystems. Their
// arithmetic (currency conversion, cost rollups) lives outside this
// service; only a summary view is consumed here, gated by the access
// resolver.
package fiscal

import "context"

type RecordSummary struct {
	Category    string  `json:"category"`
	RecordCount int     `json:"recordCount"`
	TotalAmount float64 `json:"totalAmount"`
}

type RecordSource interface {
	// SummariesForRC returns per-category rollups for one responsibility
	// centre, identified by its business identifier.
	SummariesForRC(ctx context.Context, rcIdentifier string) ([]RecordSummary, error)
}
