package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adalundhe/nexus/core/model"
	"github.com/adalundhe/nexus/core/resolve"
)

// BeginRun inserts the run-guard row. If an unfinished run already
// exists the insert is refused with ErrRunInProgress and nothing is
// written.
func (s *Store) BeginRun(ctx context.Context, runID string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var open int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM recompute_log WHERE status = ?`, model.RunRunning,
		).Scan(&open); err != nil {
			return fmt.Errorf("failed to check run guard: %w", err)
		}
		if open > 0 {
			return ErrRunInProgress
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recompute_log (run_id, started_at, status) VALUES (?, ?, ?)`,
			runID, startedAt, model.RunRunning,
		); err != nil {
			return fmt.Errorf("failed to insert run row: %w", err)
		}
		return nil
	})
}

// FinishRun closes the guard row with the run's final state.
func (s *Store) FinishRun(ctx context.Context, run *model.RecomputeRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE recompute_log
			SET finished_at = ?, nodes = ?, edges = ?, clusters = ?,
			    top_centrality = ?, top_leverage = ?, duration_seconds = ?,
			    status = ?, error_message = ?
			WHERE run_id = ?`,
			run.FinishedAt, run.Nodes, run.Edges, run.Clusters,
			run.TopCentrality, run.TopLeverage, run.Duration,
			run.Status, run.ErrorMessage, run.RunID,
		)
		if err != nil {
			return fmt.Errorf("failed to finish run %s: %w", run.RunID, err)
		}
		n, err := res.RowsAffected()
		if err == nil && n == 0 {
			return fmt.Errorf("run %s not found in recompute_log", run.RunID)
		}
		return err
	})
}

// LastRun returns the most recent recompute run, or nil when the log is
// empty.
func (s *Store) LastRun(ctx context.Context) (*model.RecomputeRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, started_at, finished_at, nodes, edges, clusters,
		       top_centrality, top_leverage, duration_seconds, status, error_message
		FROM recompute_log ORDER BY id DESC LIMIT 1`)

	var run model.RecomputeRun
	var finished sql.NullTime
	var status string
	err := row.Scan(
		&run.ID, &run.RunID, &run.StartedAt, &finished, &run.Nodes, &run.Edges,
		&run.Clusters, &run.TopCentrality, &run.TopLeverage, &run.Duration,
		&status, &run.ErrorMessage,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read recompute log: %w", err)
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	run.Status = model.RunStatus(status)
	return &run, nil
}

// ResolutionOutcome is everything the resolver pre-pass wants persisted.
type ResolutionOutcome struct {
	Review        []model.ReviewCandidate
	ContactMerges []resolve.ContactMerge
	FundingDups   []model.FundingEvent
	HiringDups    []model.HiringSignal
}

// ApplyResolution persists the resolver verdict in one transaction:
// duplicate signals get their duplicate_of pointer, merged contacts are
// rewired and removed, ambiguous company pairs land in the review
// queue.
func (s *Store) ApplyResolution(ctx context.Context, out *ResolutionOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range out.FundingDups {
			d := &out.FundingDups[i]
			if _, err := tx.ExecContext(ctx,
				`UPDATE funding_events SET duplicate_of = ? WHERE id = ?`,
				d.DuplicateOf, d.ID,
			); err != nil {
				return fmt.Errorf("failed to mark funding duplicate %d: %w", d.ID, err)
			}
		}
		for i := range out.HiringDups {
			d := &out.HiringDups[i]
			if _, err := tx.ExecContext(ctx,
				`UPDATE hiring_signals SET duplicate_of = ? WHERE id = ?`,
				d.DuplicateOf, d.ID,
			); err != nil {
				return fmt.Errorf("failed to mark hiring duplicate %d: %w", d.ID, err)
			}
		}
		for _, m := range out.ContactMerges {
			steps := []string{
				`UPDATE outreach_log SET contact_id = ? WHERE contact_id = ?`,
				`UPDATE relationships SET source_id = ? WHERE source_kind = 'contact' AND source_id = ?`,
				`UPDATE relationships SET target_id = ? WHERE target_kind = 'contact' AND target_id = ?`,
			}
			for _, q := range steps {
				if _, err := tx.ExecContext(ctx, q, m.WinnerID, m.LoserID); err != nil {
					return fmt.Errorf("failed to rewire contact %d onto %d: %w", m.LoserID, m.WinnerID, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, m.LoserID); err != nil {
				return fmt.Errorf("failed to remove merged contact %d: %w", m.LoserID, err)
			}
		}
		for i := range out.Review {
			r := &out.Review[i]
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO resolution_review (company_id, candidate_id, distance, created_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (company_id, candidate_id) DO NOTHING`,
				r.CompanyID, r.CandidateID, r.Distance, r.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to queue review %d/%d: %w", r.CompanyID, r.CandidateID, err)
			}
		}
		return nil
	})
}

// CompanyScoreRow is one company's write-back payload.
type CompanyScoreRow struct {
	CompanyID int64
	Scores    model.CompanyScores
}

// ContactScoreRow is one contact's write-back payload.
type ContactScoreRow struct {
	ContactID      int64
	Centrality     float64
	Leverage       float64
	Influence      float64
	AdjacencyIndex float64
	ClusterID      int64
	PriorityScore  float64
}

// PersistScores writes every derived column in a single transaction.
// Readers either see the previous run's scores or this run's, never a
// mix.
func (s *Store) PersistScores(ctx context.Context, companies []CompanyScoreRow, contacts []ContactScoreRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		companyStmt, err := tx.PrepareContext(ctx, `
			UPDATE companies SET
				category = ?, centrality_score = ?, leverage_score = ?,
				influence_score = ?, adjacency_index = ?, cluster_id = ?,
				opportunity_score = ?, opp_funding = ?, opp_hiring = ?,
				opp_lease = ?, opp_relationship = ?, opp_hiring_velocity = ?,
				opp_funding_accel = ?, opp_rel_depth = ?, opp_coverage = ?,
				chain_lease_prob = ?, chain_score = ?
			WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare company score update: %w", err)
		}
		defer companyStmt.Close()

		for i := range companies {
			row := &companies[i]
			sc := &row.Scores
			if _, err := companyStmt.ExecContext(ctx,
				sc.Category.String(), sc.Centrality, sc.Leverage,
				sc.Influence, sc.AdjacencyIndex, sc.ClusterID,
				sc.Opportunity, sc.Funding, sc.Hiring,
				sc.Lease, sc.Relationship, sc.HiringVelocity,
				sc.FundingAccel, sc.RelDepth, sc.Coverage,
				sc.ChainLeaseProb, sc.ChainScore,
				row.CompanyID,
			); err != nil {
				return fmt.Errorf("failed to write scores for company %d: %w", row.CompanyID, err)
			}
		}

		contactStmt, err := tx.PrepareContext(ctx, `
			UPDATE contacts SET
				centrality_score = ?, leverage_score = ?, influence_score = ?,
				adjacency_index = ?, cluster_id = ?, priority_score = ?
			WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare contact score update: %w", err)
		}
		defer contactStmt.Close()

		for i := range contacts {
			row := &contacts[i]
			if _, err := contactStmt.ExecContext(ctx,
				row.Centrality, row.Leverage, row.Influence,
				row.AdjacencyIndex, row.ClusterID, row.PriorityScore,
				row.ContactID,
			); err != nil {
				return fmt.Errorf("failed to write scores for contact %d: %w", row.ContactID, err)
			}
		}
		return nil
	})
}

// ReviewQueueSize counts pending resolution reviews.
func (s *Store) ReviewQueueSize(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resolution_review`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count review queue: %w", err)
	}
	return n, nil
}
