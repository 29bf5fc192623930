// Package timeline assembles the linked record sets into the ordered
// sequence of presentation units the viewer pages through, and runs
// the per-unit lazy-content lifecycle.
package timeline

import (
	"sort"
	"time"

	"civicline/internal/link"
	"civicline/internal/schema"
	"civicline/internal/source"
	"civicline/internal/tabular"
	"civicline/internal/temporal"
)

// Mode selects which events are shown and how they are ordered.
type Mode string

const (
	// ModePast shows events before now, most recent first, with the
	// lazily-loaded recap/media section.
	ModePast Mode = "past"
	// ModeUpcoming shows events at or after now (and events with no
	// resolvable date), soonest first.
	ModeUpcoming Mode = "upcoming"
	// ModeAll shows everything ascending.
	ModeAll Mode = "all"
)

// ParseMode maps a config/flag string onto a Mode, defaulting to all.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModePast, ModeUpcoming, ModeAll:
		return Mode(s)
	default:
		return ModeAll
	}
}

// Phase is the visibility/loading state of one unit.
type Phase int

const (
	// PhaseUnseen: not yet intersecting the viewport above threshold.
	PhaseUnseen Phase = iota
	// PhaseVisibleUnloaded: visible, secondary content still empty.
	PhaseVisibleUnloaded
	// PhaseVisibleLoaded: secondary content requested. Terminal for
	// the loading concern; the flag is never cleared.
	PhaseVisibleLoaded
)

// MediaRef is one linked media item on a loaded unit.
type MediaRef struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	EmbedURL string `json:"embed_url,omitempty"`
}

// Secondary is the lazily-loaded content slot of a unit.
type Secondary struct {
	HumanSummary string     `json:"human_summary"`
	AISummary    string     `json:"ai_summary"`
	Media        []MediaRef `json:"media,omitempty"`
}

// Unit is one event's fully-linked, partially-lazy display record.
// Units are created once per render pass and never re-ordered after
// insertion; a new mode or data set requires a fresh Assemble.
type Unit struct {
	EventID string
	GroupID string

	Title    string
	DateText string
	TimeText string
	Location string
	URL      string

	// Instant is the event's normalized instant, used both for
	// ordering and externally for active/visible styling.
	Instant temporal.Instant
	// Past is fixed at assembly; it also decides whether the lazy
	// load includes linked media.
	Past bool

	GroupName    string
	GroupSummary string

	// Actions carries the eagerly-rendered canonical action list;
	// empty means the placeholder below is shown instead.
	Actions           []link.CanonicalAction
	ActionPlaceholder string

	// Active mirrors whether the unit is currently frontmost. It is
	// pure styling state and may flip any number of times.
	Active bool

	phase     Phase
	Secondary Secondary

	event tabular.Record
}

// CurrentPhase returns the unit's lifecycle phase.
func (u *Unit) CurrentPhase() Phase { return u.phase }

// Assembler builds units from a table set.
type Assembler struct {
	Mode   Mode
	Linker *link.Linker
	// Loc is the calendar timezone; nil means time.Local.
	Loc *time.Location
	// Now is the clock used for past/upcoming decisions; nil means
	// time.Now.
	Now func() time.Time
	// Expand controls recurrence expansion of events carrying an
	// RRULE column.
	Expand ExpandOptions
}

func (a *Assembler) loc() *time.Location {
	if a.Loc != nil {
		return a.Loc
	}
	return time.Local
}

func (a *Assembler) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// EventInstant resolves the effective instant of an event record via
// the three-tier fallback chain.
func (a *Assembler) EventInstant(event tabular.Record) temporal.Instant {
	return temporal.Resolve(
		event.Preferred(schema.EventStampKeys...),
		event.Preferred(schema.EventDateKeys...),
		event.Preferred(schema.EventTimeKeys...),
		a.loc(),
	)
}

// Assemble produces the ordered unit sequence for one render pass.
// Linking is additive: the input records are never mutated.
func (a *Assembler) Assemble(set source.TableSet) []*Unit {
	now := a.now()
	linker := a.Linker
	if linker == nil {
		linker = link.New()
	}

	groupsByID := link.IndexByID(set.Groups, schema.GroupIDKeys)
	typesByID := link.IndexByID(set.ActionTypes, schema.ActionTypeIDKeys)

	events := a.expandRecurring(set.Events, now)

	units := make([]*Unit, 0, len(events))
	for _, event := range events {
		instant := a.EventInstant(event)
		past := instant.Before(now)

		switch a.Mode {
		case ModePast:
			if !past {
				continue
			}
		case ModeUpcoming:
			if past {
				continue
			}
		}

		var group tabular.Record
		if gid := schema.EventGroup(event); gid != "" {
			group = groupsByID[gid]
		}

		linked := linker.ActionsForEvent(event, set.Actions, link.FuzzyAugmented)
		actions := link.CanonicalizeActions(linked, typesByID)

		unit := &Unit{
			EventID:      schema.EventID(event),
			GroupID:      schema.EventGroup(event),
			Title:        schema.EventTitle(event),
			DateText:     temporal.FormatDate(instant),
			TimeText:     temporal.FormatTime(instant),
			Location:     schema.EventLocation(event),
			URL:          schema.EventURL(event),
			Instant:      instant,
			Past:         past,
			GroupName:    schema.GroupName(group),
			GroupSummary: schema.GroupSummary(group),
			Actions:      actions,
			event:        event,
		}
		if len(actions) == 0 {
			unit.ActionPlaceholder = "No public actions listed."
		}
		units = append(units, unit)
	}

	a.sortUnits(units)
	return units
}

// sortUnits orders units by instant: ascending for upcoming/all,
// descending for past. The invalid instant sorts after every valid
// one in either direction.
func (a *Assembler) sortUnits(units []*Unit) {
	descending := a.Mode == ModePast
	sort.SliceStable(units, func(i, j int) bool {
		x, y := units[i].Instant, units[j].Instant
		if !x.Valid || !y.Valid {
			// Whichever side is invalid loses, regardless of
			// direction.
			return x.Valid && !y.Valid
		}
		if descending {
			return y.Time.Before(x.Time)
		}
		return x.Time.Before(y.Time)
	})
}

// InitialIndex picks the frontmost unit on load: the first unit whose
// instant is at or after now (units with no resolvable date qualify,
// since they sort as far-future); if none qualifies, the last unit.
func InitialIndex(units []*Unit, now time.Time) int {
	for i, u := range units {
		if !u.Instant.Valid || !u.Instant.Time.Before(now) {
			return i
		}
	}
	return len(units) - 1
}
