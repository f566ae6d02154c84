// Package model defines the entity, relationship, and signal records the
// engine reads and the derived score columns it owns.
package model

import "fmt"

// EntityKind distinguishes the two node populations in the graph.
type EntityKind int

const (
	KindCompany EntityKind = iota
	KindContact
)

func (k EntityKind) String() string {
	switch k {
	case KindCompany:
		return "company"
	case KindContact:
		return "contact"
	default:
		return fmt.Sprintf("entity_kind(%d)", k)
	}
}

// ParseEntityKind parses a string into an EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	switch s {
	case "company":
		return KindCompany, nil
	case "contact":
		return KindContact, nil
	default:
		return 0, fmt.Errorf("unknown entity kind %q", s)
	}
}

// RelationshipType is the enumerated kind carried on a graph edge.
// Values round-trip directly to the relationships table.
type RelationshipType string

const (
	RelColleague    RelationshipType = "colleague"
	RelAlumni       RelationshipType = "alumni"
	RelBoard        RelationshipType = "board"
	RelPartnerWith  RelationshipType = "partner_with"
	RelCompetesWith RelationshipType = "competes_with"
	RelIntroducedBy RelationshipType = "introduced_by"
	RelInvestorIn   RelationshipType = "investor_in"
	RelWorksAt      RelationshipType = "works_at"
	RelReferredBy   RelationshipType = "referred_by"
)

var symmetricTypes = map[RelationshipType]bool{
	RelColleague:    true,
	RelAlumni:       true,
	RelBoard:        true,
	RelPartnerWith:  true,
	RelCompetesWith: true,
}

// Symmetric reports whether the type is inserted as a pair of
// opposite-direction edges of equal weight.
func (r RelationshipType) Symmetric() bool {
	return symmetricTypes[r]
}

// RoleLevel is the ordered seniority category on a contact.
type RoleLevel string

const (
	RoleCSuite          RoleLevel = "c_suite"
	RoleDecisionMaker   RoleLevel = "decision_maker"
	RoleInfluencer      RoleLevel = "influencer"
	RoleTeam            RoleLevel = "team"
	RoleExternalPartner RoleLevel = "external_partner"
)

// Rank orders role levels: higher is more senior. Unknown levels rank 0.
func (r RoleLevel) Rank() int {
	switch r {
	case RoleCSuite:
		return 5
	case RoleDecisionMaker:
		return 4
	case RoleInfluencer:
		return 3
	case RoleExternalPartner:
		return 2
	case RoleTeam:
		return 1
	default:
		return 0
	}
}

// SignalClass selects the decay half-life applied to an event age.
type SignalClass int

const (
	SignalFunding SignalClass = iota
	SignalHiring
	SignalOutreach
	SignalRelationship
	SignalCash
)

func (s SignalClass) String() string {
	switch s {
	case SignalFunding:
		return "funding"
	case SignalHiring:
		return "hiring"
	case SignalOutreach:
		return "outreach"
	case SignalRelationship:
		return "relationship"
	case SignalCash:
		return "cash"
	default:
		return fmt.Sprintf("signal_class(%d)", s)
	}
}

// CompanyCategory is the scoring profile a company is classified into.
type CompanyCategory int

const (
	CategoryMature CompanyCategory = iota
	CategoryHighGrowth
	CategoryInstitutional
)

func (c CompanyCategory) String() string {
	switch c {
	case CategoryHighGrowth:
		return "high_growth"
	case CategoryInstitutional:
		return "institutional"
	case CategoryMature:
		return "mature"
	default:
		return fmt.Sprintf("company_category(%d)", c)
	}
}

// ParseCompanyCategory parses a stored category string. Empty and unknown
// values fall back to mature, the default profile.
func ParseCompanyCategory(s string) CompanyCategory {
	switch s {
	case "high_growth":
		return CategoryHighGrowth
	case "institutional":
		return CategoryInstitutional
	default:
		return CategoryMature
	}
}

// RunStatus is the terminal state of a recompute run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// Company statuses the engine inspects. Other statuses pass through
// untouched.
const (
	StatusHighGrowthTarget = "high_growth_target"
	StatusProspect         = "prospect"
	StatusActiveClient     = "active_client"
	StatusWatching         = "watching"
)
