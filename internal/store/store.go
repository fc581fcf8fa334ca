// Package store persists claims and their verdict trees.
package store

import (
	"context"
	"errors"

	"github.com/ppiankov/veridex/internal/model"
)

// ErrClaimNotFound is returned when a claim id has no record
var ErrClaimNotFound = errors.New("claim not found")

// Store is the persistence collaborator. The pipeline writes the verdict
// tree exactly once, after synthesis completes.
type Store interface {
	// CreateClaim inserts a new pending claim and returns it with its id
	CreateClaim(ctx context.Context, text string) (*model.Claim, error)
	// GetClaim loads a claim by id
	GetClaim(ctx context.Context, claimID string) (*model.Claim, error)
	// SetStatus transitions a claim's status
	SetStatus(ctx context.Context, claimID string, status model.ClaimStatus) error
	// SaveResult persists the full verdict tree for a claim
	SaveResult(ctx context.Context, claimID string, verdict *model.Verdict) error
	// Close releases the store's resources
	Close() error
}
