package store

import (
	"context"
	"fmt"

	"github.com/adalundhe/nexus/core/model"
)

// RankedCompany is one row of the opportunity ranking.
type RankedCompany struct {
	ID          int64
	Name        string
	Status      string
	Sector      string
	Category    string
	Opportunity float64
	ChainProb   float64
	ChainScore  float64
}

// TopOpportunities returns the highest-scored companies, best first.
// Ties order by id so rankings are stable run to run.
func (s *Store) TopOpportunities(ctx context.Context, limit int) ([]RankedCompany, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, sector, category,
		       opportunity_score, chain_lease_prob, chain_score
		FROM companies
		ORDER BY opportunity_score DESC, id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunity ranking: %w", err)
	}
	defer rows.Close()

	var out []RankedCompany
	for rows.Next() {
		var r RankedCompany
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Status, &r.Sector, &r.Category,
			&r.Opportunity, &r.ChainProb, &r.ChainScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ChainPredictions returns companies at or above the probability floor,
// most likely first.
func (s *Store) ChainPredictions(ctx context.Context, minProb float64) ([]RankedCompany, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, sector, category,
		       opportunity_score, chain_lease_prob, chain_score
		FROM companies
		WHERE chain_lease_prob >= ?
		ORDER BY chain_lease_prob DESC, id ASC`, minProb)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain predictions: %w", err)
	}
	defer rows.Close()

	var out []RankedCompany
	for rows.Next() {
		var r RankedCompany
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Status, &r.Sector, &r.Category,
			&r.Opportunity, &r.ChainProb, &r.ChainScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PendingReviews lists queued company match candidates, oldest first.
func (s *Store) PendingReviews(ctx context.Context) ([]model.ReviewCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, candidate_id, distance, created_at
		FROM resolution_review ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query review queue: %w", err)
	}
	defer rows.Close()

	var out []model.ReviewCandidate
	for rows.Next() {
		var r model.ReviewCandidate
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.CandidateID, &r.Distance, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
