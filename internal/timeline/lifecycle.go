package timeline

import (
	"context"
	"sync"

	"civicline/internal/link"
	"civicline/internal/media"
	"civicline/internal/schema"
	"civicline/internal/tabular"
	"civicline/internal/temporal"
)

// Fixed placeholder strings for missing secondary resources. Each
// resource degrades independently.
const (
	NoHumanSummary = "No human summary available."
	NoAISummary    = "No AI summary available."
	NoMediaListed  = "No media listed for this event."
)

// Lifecycle evaluates visibility transitions against the threshold.
// The whole system runs on cooperative scheduling; phase flips happen
// synchronously in the caller before any fetch suspends, which is what
// makes the one-shot flag race-free.
type Lifecycle struct {
	// Threshold is the fraction of a unit's area that must intersect
	// the viewport to count as visible.
	Threshold float64
}

// DefaultThreshold is the visible-area fraction used by the page.
const DefaultThreshold = 0.6

// Observe feeds one visibility measurement for a unit and reports
// whether the unit's secondary content should now be loaded. It
// returns true exactly once per unit: the loading flag is set here,
// before the caller initiates the asynchronous fetch, so repeated
// visibility events can never trigger duplicate loads.
func (lc *Lifecycle) Observe(u *Unit, visibleRatio float64) bool {
	threshold := lc.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	if visibleRatio < threshold {
		u.Active = false
		if u.phase == PhaseVisibleUnloaded {
			u.phase = PhaseUnseen
		}
		// Losing visibility only re-renders styling; a loaded unit
		// stays loaded.
		return false
	}

	u.Active = true
	switch u.phase {
	case PhaseUnseen:
		u.phase = PhaseVisibleUnloaded
	case PhaseVisibleLoaded:
		return false
	}
	return u.MarkLoading()
}

// MarkLoading flips the unit into the loaded phase and reports whether
// this call was the first. Callers must invoke it synchronously before
// starting the fetch.
func (u *Unit) MarkLoading() bool {
	if u.phase == PhaseVisibleLoaded {
		return false
	}
	u.phase = PhaseVisibleLoaded
	return true
}

// TextFetcher fetches an optional plain-text resource, returning ""
// when it is absent.
type TextFetcher interface {
	TextIfExists(ctx context.Context, ref string) string
}

// Loader fills a unit's secondary content slot: the human and AI recap
// texts (fetched in parallel) and, for past units, the linked media
// items.
type Loader struct {
	Fetcher TextFetcher
	// RecapDir is the directory recap files live under, conventionally
	// "recaps".
	RecapDir string
	// Media is the full media table; linking happens at load time.
	Media  []tabular.Record
	Linker *link.Linker
}

// RecapPaths returns the human/AI recap resource paths for a unit, or
// ok=false when the unit lacks any component of the path key.
func (l *Loader) RecapPaths(u *Unit) (human, ai string, ok bool) {
	dateKey := temporal.DateKey(u.Instant)
	if u.EventID == "" || u.GroupID == "" || dateKey == "" {
		return "", "", false
	}
	dir := l.RecapDir
	if dir == "" {
		dir = "recaps"
	}
	base := dir + "/" + u.GroupID + "-" + u.EventID + "-" + dateKey
	return base + "-human_summary.txt", base + "-ai_summary.txt", true
}

// Load performs the one-shot secondary fetch for a unit. Callers are
// expected to have claimed the load via MarkLoading (or Observe); Load
// itself only fetches and fills content. Missing resources resolve to
// the fixed placeholders, never to an error.
func (l *Loader) Load(ctx context.Context, u *Unit) {
	if u.Past {
		u.Secondary.Media = l.mediaFor(u)
	}

	humanPath, aiPath, ok := l.RecapPaths(u)
	if !ok {
		u.Secondary.HumanSummary = NoHumanSummary
		u.Secondary.AISummary = NoAISummary
		return
	}

	var humanText, aiText string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		humanText = l.Fetcher.TextIfExists(ctx, humanPath)
	}()
	go func() {
		defer wg.Done()
		aiText = l.Fetcher.TextIfExists(ctx, aiPath)
	}()
	wg.Wait()

	u.Secondary.HumanSummary = orPlaceholder(humanText, NoHumanSummary)
	u.Secondary.AISummary = orPlaceholder(aiText, NoAISummary)
}

// mediaFor links the media table against the unit's event. Media
// linking is strict; no fuzzy fallback.
func (l *Loader) mediaFor(u *Unit) []MediaRef {
	linker := l.Linker
	if linker == nil {
		linker = link.New()
	}
	items := linker.MediaForEvent(u.event, l.Media)
	refs := make([]MediaRef, 0, len(items))
	for _, item := range items {
		url := schema.MediaURL(item)
		ref := MediaRef{
			Title: schema.MediaTitle(item),
			URL:   url,
		}
		if embed, ok := media.EmbedURL(url); ok {
			ref.EmbedURL = embed
		}
		refs = append(refs, ref)
	}
	return refs
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
