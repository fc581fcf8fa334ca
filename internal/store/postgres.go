package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/ppiankov/veridex/internal/model"
)

// schema is applied on startup. Sub-claims form a tree via parent_id;
// leaves carry evidence, the root rows of a claim have a NULL parent.
const schema = `
CREATE TABLE IF NOT EXISTS claims (
	id UUID PRIMARY KEY,
	text TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sub_claims (
	id UUID PRIMARY KEY,
	claim_id UUID NOT NULL REFERENCES claims(id) ON DELETE CASCADE,
	parent_id UUID REFERENCES sub_claims(id) ON DELETE CASCADE,
	is_leaf BOOLEAN NOT NULL DEFAULT TRUE,
	text TEXT NOT NULL,
	verdict TEXT,
	confidence DOUBLE PRECISION,
	reasoning TEXT,
	nuance TEXT
);

CREATE TABLE IF NOT EXISTS evidence (
	id UUID PRIMARY KEY,
	sub_claim_id UUID NOT NULL REFERENCES sub_claims(id) ON DELETE CASCADE,
	source_type TEXT NOT NULL,
	source_url TEXT,
	title TEXT,
	content TEXT,
	supports_claim BOOLEAN,
	retrieved_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS verdicts (
	id UUID PRIMARY KEY,
	claim_id UUID NOT NULL UNIQUE REFERENCES claims(id) ON DELETE CASCADE,
	verdict TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	reasoning TEXT,
	reasoning_chain JSONB,
	nuance TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sub_claims_claim ON sub_claims (claim_id);
CREATE INDEX IF NOT EXISTS idx_evidence_sub_claim ON evidence (sub_claim_id);
`

// PostgresStore persists claims in PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the database and ensures the schema exists
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// CreateClaim inserts a new pending claim
func (s *PostgresStore) CreateClaim(ctx context.Context, text string) (*model.Claim, error) {
	claim := &model.Claim{
		ID:     uuid.NewString(),
		Text:   text,
		Status: model.StatusPending,
	}
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO claims (id, text, status) VALUES ($1, $2, $3) RETURNING created_at, updated_at`,
		claim.ID, claim.Text, string(claim.Status))
	if err := row.Scan(&claim.CreatedAt, &claim.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert claim: %w", err)
	}
	return claim, nil
}

// GetClaim loads a claim by id
func (s *PostgresStore) GetClaim(ctx context.Context, claimID string) (*model.Claim, error) {
	claim := &model.Claim{}
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, status, created_at, updated_at FROM claims WHERE id = $1`,
		claimID).Scan(&claim.ID, &claim.Text, &status, &claim.CreatedAt, &claim.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrClaimNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select claim: %w", err)
	}
	claim.Status = model.ClaimStatus(status)
	return claim, nil
}

// SetStatus transitions a claim's status
func (s *PostgresStore) SetStatus(ctx context.Context, claimID string, status model.ClaimStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE claims SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), claimID)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrClaimNotFound
	}
	return nil
}

// SaveResult writes the verdict row and the full sub-claim tree with its
// evidence, in one transaction.
func (s *PostgresStore) SaveResult(ctx context.Context, claimID string, verdict *model.Verdict) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	chain, err := json.Marshal(verdict.ReasoningChain)
	if err != nil {
		return fmt.Errorf("encode reasoning chain: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO verdicts (id, claim_id, verdict, confidence, reasoning, reasoning_chain, nuance)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (claim_id) DO UPDATE SET
		   verdict = EXCLUDED.verdict,
		   confidence = EXCLUDED.confidence,
		   reasoning = EXCLUDED.reasoning,
		   reasoning_chain = EXCLUDED.reasoning_chain,
		   nuance = EXCLUDED.nuance`,
		uuid.NewString(), claimID, verdict.Verdict, verdict.Confidence,
		nullable(verdict.Reasoning), chain, nullable(verdict.Nuance))
	if err != nil {
		return fmt.Errorf("insert verdict: %w", err)
	}

	for _, node := range verdict.Root {
		if err := insertNode(ctx, tx, claimID, nil, node); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// insertNode writes one verdict node and recurses into its children
func insertNode(ctx context.Context, tx *sql.Tx, claimID string, parentID *string, node *model.VerdictNode) error {
	nodeID := uuid.NewString()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO sub_claims (id, claim_id, parent_id, is_leaf, text, verdict, confidence, reasoning, nuance)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		nodeID, claimID, parentID, node.IsLeaf, node.Text,
		nullable(node.Verdict), node.Confidence, nullable(node.Reasoning), nullable(node.Nuance))
	if err != nil {
		return fmt.Errorf("insert sub-claim: %w", err)
	}

	for _, ev := range node.Evidence {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO evidence (id, sub_claim_id, source_type, source_url, title, content, supports_claim)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(), nodeID, string(ev.SourceType),
			nullable(ev.SourceURL), nullable(ev.Title), nullable(ev.Content), ev.SupportsClaim)
		if err != nil {
			return fmt.Errorf("insert evidence: %w", err)
		}
	}

	for _, child := range node.Children {
		if err := insertNode(ctx, tx, claimID, &nodeID, child); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database pool
func (s *PostgresStore) Close() error { return s.db.Close() }

// nullable maps empty strings to SQL NULL
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
