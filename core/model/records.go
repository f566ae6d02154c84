package model

import "time"

// Company is an organization node. The engine owns only the Scores block;
// every other field is read-only input created by imports or manual entry.
type Company struct {
	ID              int64
	Name            string
	Sector          string
	Status          string
	EmployeeCount   int64
	RevenueEstimate float64
	CashReserves    float64
	CashUpdatedAt   *time.Time
	OfficeSF        int64
	UpdatedAt       time.Time

	Scores CompanyScores
}

// CompanyScores are the derived columns written back by the recompute
// pipeline, never by the metric computations directly.
type CompanyScores struct {
	Category         CompanyCategory
	Centrality       float64
	Leverage         float64
	Influence        float64
	AdjacencyIndex   float64
	ClusterID        int64
	Opportunity      float64
	Funding          float64
	Hiring           float64
	Lease            float64
	Relationship     float64
	HiringVelocity   float64
	FundingAccel     float64
	RelDepth         float64
	Coverage         float64
	ChainLeaseProb   float64
	ChainScore       float64
}

// Contact is a person node, optionally employed at a company.
type Contact struct {
	ID        int64
	FirstName string
	LastName  string
	Title     string
	CompanyID int64 // 0 when unaffiliated
	RoleLevel RoleLevel
	UpdatedAt time.Time

	Centrality     float64
	Leverage       float64
	Influence      float64
	AdjacencyIndex float64
	ClusterID      int64
	PriorityScore  float64
}

// Name returns the contact's display name.
func (c Contact) Name() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Relationship is a typed, weighted edge between two entities.
// Source and target must not reference the same entity.
type Relationship struct {
	ID              int64
	SourceKind      EntityKind
	SourceID        int64
	TargetKind      EntityKind
	TargetID        int64
	Type            RelationshipType
	Strength        int
	Confidence      float64
	BaseWeight      float64
	LastInteraction *time.Time
}

// FundingEvent is an immutable capital signal. Only Notes may change
// after insertion; DuplicateOf is set by the resolver pre-pass.
type FundingEvent struct {
	ID           int64
	CompanyID    int64
	EventDate    time.Time
	RoundType    string
	Amount       float64
	LeadInvestor string
	Source       string
	SourceURL    string
	Notes        string
	DuplicateOf  int64 // 0 when not a duplicate
}

// HiringSignal is an immutable hiring/expansion signal.
type HiringSignal struct {
	ID          int64
	CompanyID   int64
	SignalDate  time.Time
	SignalType  string // leadership_hire, new_office, headcount_growth, job_posting, press_announcement
	Relevance   string // high, medium, low
	Details     string
	SourceURL   string
	DuplicateOf int64
}

// OutreachLog records one engagement attempt against a company or
// contact.
type OutreachLog struct {
	ID           int64
	CompanyID    int64
	ContactID    int64
	OutreachDate time.Time
	Channel      string
	Outcome      string
	Owner        string
	FollowUpDate *time.Time
}

// Lease ties a company to a building with an expiry the lease sub-score
// and chain model inspect.
type Lease struct {
	ID          int64
	CompanyID   int64
	BuildingID  int64
	LeaseExpiry time.Time
	SquareFeet  int64
}

// Building is a property record; InPortfolio marks buildings the desk
// actively covers, feeding the chain model's portfolio match.
type Building struct {
	ID          int64
	Address     string
	TotalSF     int64
	InPortfolio bool
}

// RecomputeRun is one row of the append-only recompute log.
type RecomputeRun struct {
	ID            int64
	RunID         string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Nodes         int
	Edges         int
	Clusters      int
	TopCentrality string
	TopLeverage   string
	Duration      float64
	Status        RunStatus
	ErrorMessage  string
}

// ReviewCandidate is an ambiguous company match queued for manual
// review instead of being auto-merged.
type ReviewCandidate struct {
	ID          int64
	CompanyID   int64
	CandidateID int64
	Distance    int
	CreatedAt   time.Time
}
