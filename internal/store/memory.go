package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/veridex/internal/model"
)

// MemoryStore keeps claims in process memory. Used when no database URL
// is configured, and by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	claims   map[string]*model.Claim
	verdicts map[string]*model.Verdict
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		claims:   make(map[string]*model.Claim),
		verdicts: make(map[string]*model.Verdict),
	}
}

// CreateClaim inserts a new pending claim
func (s *MemoryStore) CreateClaim(_ context.Context, text string) (*model.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	claim := &model.Claim{
		ID:        uuid.NewString(),
		Text:      text,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.claims[claim.ID] = claim
	return cloneClaim(claim), nil
}

// GetClaim loads a claim by id
func (s *MemoryStore) GetClaim(_ context.Context, claimID string) (*model.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, ok := s.claims[claimID]
	if !ok {
		return nil, ErrClaimNotFound
	}
	return cloneClaim(claim), nil
}

// SetStatus transitions a claim's status
func (s *MemoryStore) SetStatus(_ context.Context, claimID string, status model.ClaimStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[claimID]
	if !ok {
		return ErrClaimNotFound
	}
	claim.Status = status
	claim.UpdatedAt = time.Now().UTC()
	return nil
}

// SaveResult persists the verdict tree
func (s *MemoryStore) SaveResult(_ context.Context, claimID string, verdict *model.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[claimID]; !ok {
		return ErrClaimNotFound
	}
	s.verdicts[claimID] = verdict
	return nil
}

// GetVerdict returns the stored verdict for a claim, if any
func (s *MemoryStore) GetVerdict(_ context.Context, claimID string) (*model.Verdict, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	verdict, ok := s.verdicts[claimID]
	return verdict, ok
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error { return nil }

func cloneClaim(c *model.Claim) *model.Claim {
	clone := *c
	return &clone
}
