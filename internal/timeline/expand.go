package timeline

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "civicline/internal/log"
	"civicline/internal/schema"
	"civicline/internal/tabular"
)

// ExpandOptions controls recurrence expansion of events that carry an
// RRULE column. The upstream city feed publishes repeating meetings as
// a single row, so one source row may become many occurrences.
type ExpandOptions struct {
	// HorizonDays bounds the expansion window on both sides of now.
	// Zero means the default.
	HorizonDays int
	// MaxPerEvent is a safety cap against runaway rules. Zero means
	// the default.
	MaxPerEvent int
}

const (
	defaultHorizonDays = 365
	defaultMaxPerEvent = 100
)

// expandRecurring replaces each recurring event row with derived
// per-occurrence copies inside the expansion window. Non-recurring
// rows, rows whose instant cannot be resolved, and rows whose rule
// fails to parse pass through unchanged.
func (a *Assembler) expandRecurring(events []tabular.Record, now time.Time) []tabular.Record {
	horizon := a.Expand.HorizonDays
	if horizon <= 0 {
		horizon = defaultHorizonDays
	}
	maxPer := a.Expand.MaxPerEvent
	if maxPer <= 0 {
		maxPer = defaultMaxPerEvent
	}
	windowStart := now.AddDate(0, 0, -horizon)
	windowEnd := now.AddDate(0, 0, horizon)

	out := make([]tabular.Record, 0, len(events))
	for _, event := range events {
		raw := schema.EventRecur(event)
		if raw == "" {
			out = append(out, event)
			continue
		}

		base := a.EventInstant(event)
		if !base.Valid {
			// No anchor to expand from; keep the row as-is so it
			// still renders with its placeholders.
			out = append(out, event)
			continue
		}

		rule, err := rrule.StrToRRule(raw)
		if err != nil {
			appLog.Error("unparseable recurrence rule, keeping single row", err,
				"event_id", schema.EventID(event), "rrule", raw)
			out = append(out, event)
			continue
		}
		rule.DTStart(base.Time)

		occurrences := rule.Between(windowStart, windowEnd, true)
		if len(occurrences) > maxPer {
			appLog.Info("recurrence expansion capped",
				"event_id", schema.EventID(event), "cap", maxPer, "total", len(occurrences))
			occurrences = occurrences[:maxPer]
		}
		if len(occurrences) == 0 {
			continue
		}

		for _, occ := range occurrences {
			out = append(out, occurrenceRecord(event, occ))
		}
	}
	return out
}

// occurrenceRecord derives a copy of the event row pinned to one
// occurrence. The combined timestamp column takes top priority in
// instant resolution, so setting it fixes the occurrence's instant;
// the recurrence columns are blanked so the copy is not re-expanded.
func occurrenceRecord(event tabular.Record, occ time.Time) tabular.Record {
	derived := event.With("start_datetime", occ.Format("2006-01-02T15:04"))
	for _, key := range schema.EventRecurKeys {
		if derived.Get(key) != "" {
			derived = derived.With(key, "")
		}
	}
	return derived
}
