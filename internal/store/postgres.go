// Package store provides optional, best-effort Postgres persistence of
// a tuning session's Evidence History: a pgxpool connection, a
// schema.sql applied at startup, and transactional batch inserts.
//
// Persistence is strictly additive: the tuning core (pkg/tuning,
// internal/tuning/*) has no dependency on this package and runs
// identically with or without a configured database.
package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	t "github.com/rawblock/autotune-core/pkg/tuning"
)

// SnapshotProvider is satisfied by controller.Controller's Snapshot
// method; kept narrow so this package never imports internal/tuning/controller.
type SnapshotProvider interface {
	Snapshot() map[t.Configuration][]t.Evidence
}

//go:embed schema.sql
var schemaSQL string

// EvidenceStore persists a session's evidence history and per-phase
// selections to PostgreSQL via pgx.
type EvidenceStore struct {
	pool      *pgxpool.Pool
	sessionID string
}

// Connect opens a connection pool against connStr and verifies
// connectivity with a ping before returning, so callers fail fast on a
// bad connection string rather than discovering it at the first write.
func Connect(ctx context.Context, connStr, sessionID string) (*EvidenceStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return &EvidenceStore{pool: pool, sessionID: sessionID}, nil
}

// Close releases the underlying connection pool.
func (s *EvidenceStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema applies the embedded schema DDL. Reading it from a
// compiled-in asset rather than the filesystem means the binary has no
// runtime dependency on its working directory.
func (s *EvidenceStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema migrations: %w", err)
	}
	return nil
}

// SaveEvidence persists every (configuration, phase, cost) triple in
// snapshot within a single transaction, so a failed batch never leaves
// the evidence table partially updated for a phase.
func (s *EvidenceStore) SaveEvidence(ctx context.Context, snapshot map[t.Configuration][]t.Evidence) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertSQL = `
		INSERT INTO phase_evidence (session_id, configuration_id, phase, cost_nanos)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, configuration_id, phase) DO UPDATE
		SET cost_nanos = EXCLUDED.cost_nanos, recorded_at = NOW();
	`
	for config, history := range snapshot {
		id := config.String()
		for _, ev := range history {
			if _, err := tx.Exec(ctx, insertSQL, s.sessionID, id, int64(ev.Phase), ev.Cost); err != nil {
				return fmt.Errorf("failed to insert phase_evidence for %s: %w", id, err)
			}
		}
	}
	return tx.Commit(ctx)
}

// SaveSelection records the winning configuration for a completed
// phase, called from the Tuning Controller's PhaseEnded observer hook.
func (s *EvidenceStore) SaveSelection(ctx context.Context, phase t.PhaseNumber, config t.Configuration, cost int64) error {
	const sql = `
		INSERT INTO phase_selection (session_id, phase, configuration_id, cost_nanos)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, phase) DO UPDATE
		SET configuration_id = EXCLUDED.configuration_id, cost_nanos = EXCLUDED.cost_nanos, selected_at = NOW();
	`
	_, err := s.pool.Exec(ctx, sql, s.sessionID, int64(phase), config.String(), cost)
	return err
}

// PersistingObserver adapts EvidenceStore into a controller.Observer so
// the Tuning Controller can report phase transitions without knowing
// persistence exists. It is intentionally best-effort: persistence
// failures are swallowed into the last-error field rather than
// propagated, since a reporting failure must never abort a tuning run.
type PersistingObserver struct {
	store     *EvidenceStore
	evidence  SnapshotProvider
	ctx       context.Context
	lastError error
}

// NewPersistingObserver wires store and a Controller (via its Snapshot
// method) together behind the controller.Observer interface.
func NewPersistingObserver(ctx context.Context, s *EvidenceStore, ev SnapshotProvider) *PersistingObserver {
	return &PersistingObserver{store: s, evidence: ev, ctx: ctx}
}

func (o *PersistingObserver) SearchSpaceBuilt(size int) {}

func (o *PersistingObserver) PhaseStarted(phase t.PhaseNumber, activeSetSize int) {}

func (o *PersistingObserver) PhaseEnded(phase t.PhaseNumber, selected t.Configuration, cost int64) {
	if err := o.store.SaveEvidence(o.ctx, o.evidence.Snapshot()); err != nil {
		o.lastError = err
		return
	}
	if err := o.store.SaveSelection(o.ctx, phase, selected, cost); err != nil {
		o.lastError = err
	}
}

func (o *PersistingObserver) ConfigurationsInvalidated(option t.Newton3, removed int) {}

func (o *PersistingObserver) Reset() {}

// LastError returns the most recent persistence failure, if any, so
// the driver can log it without the run itself failing.
func (o *PersistingObserver) LastError() error {
	return o.lastError
}
