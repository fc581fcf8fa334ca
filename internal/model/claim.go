package model

import "time"

// ClaimStatus tracks a claim through the verification pipeline.
// Status advances monotonically: pending → processing → verified,
// or processing → flagged on unrecoverable failure.
type ClaimStatus string

const (
	StatusPending    ClaimStatus = "pending"
	StatusProcessing ClaimStatus = "processing"
	StatusVerified   ClaimStatus = "verified"
	StatusFlagged    ClaimStatus = "flagged"
)

// Claim is a factual assertion submitted for verification
type Claim struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	Status    ClaimStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SubClaim is a single atomic assertion extracted from a claim by the
// decomposer. Only the text exists at decomposition time; verdict and
// evidence are attached later by research + judgment.
type SubClaim struct {
	Text string `json:"text"`
}
