// Package link cross-references the parsed record sets: id-indexed and
// id-grouped views, and the resolution of one-to-many relationships
// between events and actions/media.
//
// Two named policies exist. Strict linking uses exact event-id or
// group-id references only and is applied to media, whose records are
// expected to always carry an explicit reference. Fuzzy-augmented
// linking adds an approximate title match for action tables that were
// authored without foreign keys; it is the only inexact matching in
// the system and the one place false positives are possible.
package link

import (
	"strings"

	"civicline/internal/schema"
	"civicline/internal/tabular"
)

// Default matching constants. Both are preserved as configurable
// knobs; the values come from the production tables and have no
// derivation beyond "works on the real data".
const (
	DefaultThreshold    = 0.6
	DefaultContainScore = 0.92
)

// Strategy is one linking rule evaluated between an event and a
// candidate record.
type Strategy int

const (
	// MatchEventID accepts an exact match of the candidate's event-id
	// reference against the event's id.
	MatchEventID Strategy = iota
	// MatchGroupID accepts an exact match of the candidate's group-id
	// reference against the event's group-id.
	MatchGroupID
	// MatchFuzzyTitle accepts a normalized-title similarity at or
	// above the threshold.
	MatchFuzzyTitle
)

// Policies are ordered strategy lists evaluated in fixed precedence.
var (
	Strict         = []Strategy{MatchEventID, MatchGroupID}
	FuzzyAugmented = []Strategy{MatchEventID, MatchGroupID, MatchFuzzyTitle}
)

// Linker resolves event relationships with configurable fuzzy-match
// constants.
type Linker struct {
	// Threshold is the minimum similarity accepted by MatchFuzzyTitle.
	Threshold float64
	// ContainScore is the score assigned when one normalized title is
	// a substring of the other.
	ContainScore float64
}

// New returns a Linker with the default constants.
func New() *Linker {
	return &Linker{Threshold: DefaultThreshold, ContainScore: DefaultContainScore}
}

// IndexByID builds a one-to-one id -> record view resolved through the
// given alias priority list. Records without an id are skipped; a
// duplicate id overwrites the earlier record (last write wins).
func IndexByID(records []tabular.Record, idKeys []string) map[string]tabular.Record {
	index := make(map[string]tabular.Record, len(records))
	for _, rec := range records {
		if id := rec.Preferred(idKeys...); id != "" {
			index[id] = rec
		}
	}
	return index
}

// GroupByID builds a one-to-many id -> records view, preserving source
// order within each group.
func GroupByID(records []tabular.Record, idKeys []string) map[string][]tabular.Record {
	grouped := make(map[string][]tabular.Record)
	for _, rec := range records {
		if id := rec.Preferred(idKeys...); id != "" {
			grouped[id] = append(grouped[id], rec)
		}
	}
	return grouped
}

// ActionsForEvent returns the actions linked to the event under the
// given policy, deduplicated by synthesized identity key and in source
// order.
func (l *Linker) ActionsForEvent(event tabular.Record, actions []tabular.Record, policy []Strategy) []tabular.Record {
	eventID := schema.EventID(event)
	groupID := schema.EventGroup(event)
	eventTitle := schema.EventTitle(event)

	var out []tabular.Record
	seen := make(map[string]bool)
	for _, action := range actions {
		if !l.matches(policy, eventID, groupID, eventTitle, schema.ActionEvent(action), schema.ActionGroup(action), schema.ActionTitle(action)) {
			continue
		}
		key := actionIdentity(action)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, action)
	}
	return out
}

// MediaForEvent returns the media items linked to the event. Media
// linking is always strict: no fuzzy fallback.
func (l *Linker) MediaForEvent(event tabular.Record, media []tabular.Record) []tabular.Record {
	eventID := schema.EventID(event)
	groupID := schema.EventGroup(event)

	var out []tabular.Record
	for _, item := range media {
		if l.matches(Strict, eventID, groupID, "", schema.MediaEvent(item), schema.MediaGroup(item), "") {
			out = append(out, item)
		}
	}
	return out
}

// matches evaluates the policy's strategies in order; any acceptance
// links the record. Empty references never match.
func (l *Linker) matches(policy []Strategy, eventID, groupID, eventTitle, refEvent, refGroup, refTitle string) bool {
	for _, strategy := range policy {
		switch strategy {
		case MatchEventID:
			if refEvent != "" && eventID != "" && refEvent == eventID {
				return true
			}
		case MatchGroupID:
			if refGroup != "" && groupID != "" && refGroup == groupID {
				return true
			}
		case MatchFuzzyTitle:
			if refTitle != "" && eventTitle != "" && l.Similarity(eventTitle, refTitle) >= l.Threshold {
				return true
			}
		}
	}
	return false
}

// Similarity scores two titles in [0, 1]: identical normalized strings
// score 1, substring containment scores ContainScore, and anything
// else scores the Jaccard index of the whitespace-tokenized word sets
// (0 when either token set is empty).
func (l *Linker) Similarity(a, b string) float64 {
	na := tabular.NormalizeKey(a)
	nb := tabular.NormalizeKey(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return l.ContainScore
	}

	setA := tokenSet(na)
	setB := tokenSet(nb)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// tokenSet splits a normalized key into its word set.
func tokenSet(normalized string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Split(normalized, "_") {
		if tok != "" {
			set[tok] = true
		}
	}
	return set
}

// actionIdentity synthesizes a dedup key for an action: the explicit
// action id when present, otherwise a composite of its action-type id
// and label text.
func actionIdentity(action tabular.Record) string {
	if id := schema.ActionID(action); id != "" {
		return "id:" + id
	}
	return "type:" + schema.ActionTypeID(action) + "|" + tabular.NormalizeKey(schema.ActionLabel(action))
}
