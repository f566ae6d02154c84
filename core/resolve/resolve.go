// Package resolve deduplicates entities and signals before the graph is
// built. Exact matches on normalized identity merge automatically;
// anything fuzzier is queued for human review rather than guessed at.
package resolve

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/adalundhe/nexus/core/model"
)

const (
	// fundingAmountTolerance is the relative amount difference under
	// which two rounds for the same company are treated as one event.
	fundingAmountTolerance = 0.10
	// fundingDateWindow is the corresponding event-date window.
	fundingDateWindow = 7 * 24 * time.Hour
)

// legal entity suffixes stripped during company name normalization,
// longest forms first so "incorporated" is removed before "inc".
var legalSuffixes = []string{
	"incorporated", "corporation", "company", "holdings", "group",
	"partners", "llc", "llp", "ltd", "corp", "plc", "gmbh", "inc",
	"lp", "co",
}

// NormalizeCompanyName case-folds a company name, collapses whitespace,
// and strips trailing legal suffixes and punctuation. "Acme Corp." and
// "ACME Corporation" normalize identically.
func NormalizeCompanyName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), " ")
	for changed := true; changed; {
		changed = false
		s = strings.TrimRight(s, " .,")
		for _, suffix := range legalSuffixes {
			if trimmed, ok := strings.CutSuffix(s, " "+suffix); ok {
				s = trimmed
				changed = true
				break
			}
		}
	}
	return strings.TrimRight(s, " .,")
}

func normalizeContact(c *model.Contact) string {
	first := strings.ToLower(strings.TrimSpace(c.FirstName))
	last := strings.ToLower(strings.TrimSpace(c.LastName))
	return first + "\x00" + last
}

// nearMatchBound returns the edit distance at or under which two
// normalized names of the given lengths count as a near match. Short
// names get almost no slack; a one-rune typo in "IBM" is a different
// company.
func nearMatchBound(aLen, bLen int) int {
	shorter := aLen
	if bLen < shorter {
		shorter = bLen
	}
	if shorter >= 8 {
		return 2
	}
	return 1
}

// CompanyMatches holds the resolver's verdict over the company table:
// exact normalized duplicates mapped to their canonical (lowest id)
// record, and near matches queued for review.
type CompanyMatches struct {
	// Canonical maps a duplicate company id to the surviving id.
	Canonical map[int64]int64
	Review    []model.ReviewCandidate
}

// Companies groups companies by normalized name. Exact matches merge
// into the lowest id; near matches within the edit-distance bound are
// flagged for review only.
func Companies(companies []model.Company, now time.Time) CompanyMatches {
	out := CompanyMatches{Canonical: make(map[int64]int64)}

	sorted := make([]model.Company, len(companies))
	copy(sorted, companies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	type entry struct {
		id   int64
		norm string
	}
	canonicalByNorm := make(map[string]int64)
	var entries []entry
	for i := range sorted {
		norm := NormalizeCompanyName(sorted[i].Name)
		if norm == "" {
			continue
		}
		if canonical, ok := canonicalByNorm[norm]; ok {
			out.Canonical[sorted[i].ID] = canonical
			slog.Debug("company duplicate",
				"company_id", sorted[i].ID,
				"canonical_id", canonical,
				"name", sorted[i].Name)
			continue
		}
		canonicalByNorm[norm] = sorted[i].ID
		entries = append(entries, entry{id: sorted[i].ID, norm: norm})
	}

	// Pairwise near-match scan over distinct normalized names. The
	// length pre-check keeps the quadratic pass cheap.
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			bound := nearMatchBound(len([]rune(a.norm)), len([]rune(b.norm)))
			if lengthGap(a.norm, b.norm) > bound {
				continue
			}
			if d := boundedEditDistance(a.norm, b.norm, bound); d <= bound {
				out.Review = append(out.Review, model.ReviewCandidate{
					CompanyID:   a.id,
					CandidateID: b.id,
					Distance:    d,
					CreatedAt:   now,
				})
			}
		}
	}
	return out
}

func lengthGap(a, b string) int {
	gap := len([]rune(a)) - len([]rune(b))
	if gap < 0 {
		gap = -gap
	}
	return gap
}

// ContactMerge records one auto-merged contact pair.
type ContactMerge struct {
	LoserID  int64
	WinnerID int64
}

// Contacts merges contacts sharing a normalized first+last name at the
// same company. The most recently updated record's fields win; on a
// timestamp tie the lowest id survives. Returns the surviving contacts
// in id order plus the merge record.
func Contacts(contacts []model.Contact) ([]model.Contact, []ContactMerge) {
	type identity struct {
		companyID int64
		name      string
	}
	winners := make(map[identity]model.Contact)
	for i := range contacts {
		key := identity{companyID: contacts[i].CompanyID, name: normalizeContact(&contacts[i])}
		cur, ok := winners[key]
		if !ok || newerContact(contacts[i], cur) {
			winners[key] = contacts[i]
		}
	}

	winnerIDs := make(map[int64]bool, len(winners))
	for _, c := range winners {
		winnerIDs[c.ID] = true
	}

	var merges []ContactMerge
	survivors := make([]model.Contact, 0, len(winners))
	for i := range contacts {
		if winnerIDs[contacts[i].ID] {
			survivors = append(survivors, contacts[i])
			continue
		}
		key := identity{companyID: contacts[i].CompanyID, name: normalizeContact(&contacts[i])}
		merges = append(merges, ContactMerge{LoserID: contacts[i].ID, WinnerID: winners[key].ID})
	}
	sort.Slice(survivors, func(i, j int) bool { return survivors[i].ID < survivors[j].ID })
	sort.Slice(merges, func(i, j int) bool { return merges[i].LoserID < merges[j].LoserID })
	return survivors, merges
}

func newerContact(candidate, current model.Contact) bool {
	if !candidate.UpdatedAt.Equal(current.UpdatedAt) {
		return candidate.UpdatedAt.After(current.UpdatedAt)
	}
	return candidate.ID < current.ID
}

// FundingEvents marks duplicate rounds. Two events for the same company
// collide when they share a source URL, or when the amounts are within
// tolerance and the dates within the window. The first seen (lowest id)
// survives; later rows get DuplicateOf set. Returns the surviving
// events in id order.
func FundingEvents(events []model.FundingEvent) ([]model.FundingEvent, []model.FundingEvent) {
	sorted := make([]model.FundingEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var kept, dups []model.FundingEvent
	byCompany := make(map[int64][]int) // indexes into kept
	for i := range sorted {
		e := sorted[i]
		canonical := int64(0)
		for _, k := range byCompany[e.CompanyID] {
			if sameFundingEvent(&e, &kept[k]) {
				canonical = kept[k].ID
				break
			}
		}
		if canonical != 0 {
			e.DuplicateOf = canonical
			dups = append(dups, e)
			continue
		}
		kept = append(kept, e)
		byCompany[e.CompanyID] = append(byCompany[e.CompanyID], len(kept)-1)
	}
	return kept, dups
}

func sameFundingEvent(a, b *model.FundingEvent) bool {
	if a.SourceURL != "" && a.SourceURL == b.SourceURL {
		return true
	}
	larger := a.Amount
	if b.Amount > larger {
		larger = b.Amount
	}
	if larger <= 0 {
		return false
	}
	diff := a.Amount - b.Amount
	if diff < 0 {
		diff = -diff
	}
	if diff > fundingAmountTolerance*larger {
		return false
	}
	gap := a.EventDate.Sub(b.EventDate)
	if gap < 0 {
		gap = -gap
	}
	return gap <= fundingDateWindow
}

// HiringSignals marks duplicates: same company, same signal type, and
// identical source URL. First seen wins.
func HiringSignals(signals []model.HiringSignal) ([]model.HiringSignal, []model.HiringSignal) {
	sorted := make([]model.HiringSignal, len(signals))
	copy(sorted, signals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	type identity struct {
		companyID  int64
		signalType string
		sourceURL  string
	}
	seen := make(map[identity]int64)
	var kept, dups []model.HiringSignal
	for i := range sorted {
		s := sorted[i]
		if s.SourceURL != "" {
			key := identity{companyID: s.CompanyID, signalType: s.SignalType, sourceURL: s.SourceURL}
			if canonical, ok := seen[key]; ok {
				s.DuplicateOf = canonical
				dups = append(dups, s)
				continue
			}
			seen[key] = s.ID
		}
		kept = append(kept, s)
	}
	return kept, dups
}

// boundedEditDistance computes the Levenshtein distance between two
// strings, giving up once the distance provably exceeds bound (it then
// returns bound+1).
func boundedEditDistance(a, b string, bound int) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(rb)-len(ra) > bound {
		return bound + 1
	}

	prev := make([]int, len(ra)+1)
	cur := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(rb); j++ {
		cur[0] = j
		rowMin := cur[0]
		for i := 1; i <= len(ra); i++ {
			sub := prev[i-1]
			if ra[i-1] != rb[j-1] {
				sub++
			}
			ins := cur[i-1] + 1
			del := prev[i] + 1
			d := sub
			if ins < d {
				d = ins
			}
			if del < d {
				d = del
			}
			cur[i] = d
			if d < rowMin {
				rowMin = d
			}
		}
		if rowMin > bound {
			return bound + 1
		}
		prev, cur = cur, prev
	}
	if prev[len(ra)] > bound {
		return bound + 1
	}
	return prev[len(ra)]
}
