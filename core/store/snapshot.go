package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adalundhe/nexus/core/model"
)

// Snapshot is one consistent read of everything the pipeline consumes.
type Snapshot struct {
	Companies []model.Company
	Contacts  []model.Contact
	Relations []model.Relationship
	Funding   []model.FundingEvent
	Hiring    []model.HiringSignal
	Outreach  []model.OutreachLog
	Leases    []model.Lease
	Buildings []model.Building
}

// ReadSnapshot loads all input tables inside one read transaction so
// the pipeline never observes a half-applied import.
func (s *Store) ReadSnapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot read: %w", err)
	}
	defer tx.Rollback()

	snap := &Snapshot{}
	steps := []struct {
		name string
		load func(*sql.Tx) error
	}{
		{"companies", func(tx *sql.Tx) error { return loadCompanies(ctx, tx, snap) }},
		{"contacts", func(tx *sql.Tx) error { return loadContacts(ctx, tx, snap) }},
		{"relationships", func(tx *sql.Tx) error { return loadRelationships(ctx, tx, snap) }},
		{"funding_events", func(tx *sql.Tx) error { return loadFunding(ctx, tx, snap) }},
		{"hiring_signals", func(tx *sql.Tx) error { return loadHiring(ctx, tx, snap) }},
		{"outreach_log", func(tx *sql.Tx) error { return loadOutreach(ctx, tx, snap) }},
		{"leases", func(tx *sql.Tx) error { return loadLeases(ctx, tx, snap) }},
		{"buildings", func(tx *sql.Tx) error { return loadBuildings(ctx, tx, snap) }},
	}
	for _, step := range steps {
		if err := step.load(tx); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", step.name, err)
		}
	}
	return snap, nil
}

func loadCompanies(ctx context.Context, tx *sql.Tx, snap *Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, sector, status, employee_count, revenue_est,
		       cash_reserves, cash_updated_at, office_sf, updated_at,
		       category, centrality_score, leverage_score, influence_score,
		       adjacency_index, cluster_id, opportunity_score,
		       opp_funding, opp_hiring, opp_lease, opp_relationship,
		       opp_hiring_velocity, opp_funding_accel, opp_rel_depth,
		       opp_coverage, chain_lease_prob, chain_score
		FROM companies ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Company
		var cashUpdated sql.NullTime
		var category string
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Sector, &c.Status, &c.EmployeeCount, &c.RevenueEstimate,
			&c.CashReserves, &cashUpdated, &c.OfficeSF, &c.UpdatedAt,
			&category, &c.Scores.Centrality, &c.Scores.Leverage, &c.Scores.Influence,
			&c.Scores.AdjacencyIndex, &c.Scores.ClusterID, &c.Scores.Opportunity,
			&c.Scores.Funding, &c.Scores.Hiring, &c.Scores.Lease, &c.Scores.Relationship,
			&c.Scores.HiringVelocity, &c.Scores.FundingAccel, &c.Scores.RelDepth,
			&c.Scores.Coverage, &c.Scores.ChainLeaseProb, &c.Scores.ChainScore,
		); err != nil {
			return err
		}
		if cashUpdated.Valid {
			t := cashUpdated.Time
			c.CashUpdatedAt = &t
		}
		c.Scores.Category = model.ParseCompanyCategory(category)
		snap.Companies = append(snap.Companies, c)
	}
	return rows.Err()
}

func loadContacts(ctx context.Context, tx *sql.Tx, snap *Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, first_name, last_name, title, company_id, role_level,
		       updated_at, centrality_score, leverage_score, influence_score,
		       adjacency_index, cluster_id, priority_score
		FROM contacts ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Contact
		var role string
		if err := rows.Scan(
			&c.ID, &c.FirstName, &c.LastName, &c.Title, &c.CompanyID, &role,
			&c.UpdatedAt, &c.Centrality, &c.Leverage, &c.Influence,
			&c.AdjacencyIndex, &c.ClusterID, &c.PriorityScore,
		); err != nil {
			return err
		}
		c.RoleLevel = model.RoleLevel(role)
		snap.Contacts = append(snap.Contacts, c)
	}
	return rows.Err()
}

func loadRelationships(ctx context.Context, tx *sql.Tx, snap *Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, source_kind, source_id, target_kind, target_id,
		       relationship_type, strength, confidence, base_weight, last_interaction
		FROM relationships ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r model.Relationship
		var srcKind, dstKind, relType string
		var last sql.NullTime
		if err := rows.Scan(
			&r.ID, &srcKind, &r.SourceID, &dstKind, &r.TargetID,
			&relType, &r.Strength, &r.Confidence, &r.BaseWeight, &last,
		); err != nil {
			return err
		}
		sk, err := model.ParseEntityKind(srcKind)
		if err != nil {
			return fmt.Errorf("relationship %d: %w", r.ID, err)
		}
		tk, err := model.ParseEntityKind(dstKind)
		if err != nil {
			return fmt.Errorf("relationship %d: %w", r.ID, err)
		}
		r.SourceKind, r.TargetKind = sk, tk
		r.Type = model.RelationshipType(relType)
		if last.Valid {
			t := last.Time
			r.LastInteraction = &t
		}
		snap.Relations = append(snap.Relations, r)
	}
	return rows.Err()
}

func loadFunding(ctx context.Context, tx *sql.Tx, snap *Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, company_id, event_date, round_type, amount,
		       lead_investor, source, source_url, notes, duplicate_of
		FROM funding_events WHERE duplicate_of = 0 ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e model.FundingEvent
		if err := rows.Scan(
			&e.ID, &e.CompanyID, &e.EventDate, &e.RoundType, &e.Amount,
			&e.LeadInvestor, &e.Source, &e.SourceURL, &e.Notes, &e.DuplicateOf,
		); err != nil {
			return err
		}
		snap.Funding = append(snap.Funding, e)
	}
	return rows.Err()
}

func loadHiring(ctx context.Context, tx *sql.Tx, snap *Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, company_id, signal_date, signal_type, relevance,
		       details, source_url, duplicate_of
		FROM hiring_signals WHERE duplicate_of = 0 ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var h model.HiringSignal
		if err := rows.Scan(
			&h.ID, &h.CompanyID, &h.SignalDate, &h.SignalType, &h.Relevance,
			&h.Details, &h.SourceURL, &h.DuplicateOf,
		); err != nil {
			return err
		}
		snap.Hiring = append(snap.Hiring, h)
	}
	return rows.Err()
}

func loadOutreach(ctx context.Context, tx *sql.Tx, snap *Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, company_id, contact_id, outreach_date, channel,
		       outcome, owner, follow_up_date
		FROM outreach_log ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var o model.OutreachLog
		var followUp sql.NullTime
		if err := rows.Scan(
			&o.ID, &o.CompanyID, &o.ContactID, &o.OutreachDate, &o.Channel,
			&o.Outcome, &o.Owner, &followUp,
		); err != nil {
			return err
		}
		if followUp.Valid {
			t := followUp.Time
			o.FollowUpDate = &t
		}
		snap.Outreach = append(snap.Outreach, o)
	}
	return rows.Err()
}

func loadLeases(ctx context.Context, tx *sql.Tx, snap *Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, company_id, building_id, lease_expiry, square_feet
		FROM leases ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l model.Lease
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.BuildingID, &l.LeaseExpiry, &l.SquareFeet); err != nil {
			return err
		}
		snap.Leases = append(snap.Leases, l)
	}
	return rows.Err()
}

func loadBuildings(ctx context.Context, tx *sql.Tx, snap *Snapshot) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, address, total_sf, in_portfolio FROM buildings ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var b model.Building
		if err := rows.Scan(&b.ID, &b.Address, &b.TotalSF, &b.InPortfolio); err != nil {
			return err
		}
		snap.Buildings = append(snap.Buildings, b)
	}
	return rows.Err()
}
