package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicline/internal/tabular"
	"civicline/internal/temporal"
)

// mapFetcher serves recap texts from memory, "" for anything absent.
type mapFetcher struct {
	texts map[string]string
}

func (m mapFetcher) TextIfExists(_ context.Context, ref string) string {
	return m.texts[ref]
}

func pastUnit(eventID, groupID string) *Unit {
	return &Unit{
		EventID: eventID,
		GroupID: groupID,
		Instant: temporal.At(time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)),
		Past:    true,
		event:   record("event_id", eventID, "group_id", groupID),
	}
}

func TestRecapPaths(t *testing.T) {
	l := &Loader{RecapDir: "recaps"}
	u := pastUnit("E1", "G1")

	human, ai, ok := l.RecapPaths(u)
	require.True(t, ok)
	assert.Equal(t, "recaps/G1-E1-20240601-human_summary.txt", human)
	assert.Equal(t, "recaps/G1-E1-20240601-ai_summary.txt", ai)
}

func TestRecapPaths_MissingKeyComponent(t *testing.T) {
	l := &Loader{}

	_, _, ok := l.RecapPaths(pastUnit("", "G1"))
	assert.False(t, ok)

	_, _, ok = l.RecapPaths(pastUnit("E1", ""))
	assert.False(t, ok)

	undated := pastUnit("E1", "G1")
	undated.Instant = temporal.Invalid()
	_, _, ok = l.RecapPaths(undated)
	assert.False(t, ok)
}

func TestLoad_FillsRecapsFromFetcher(t *testing.T) {
	l := &Loader{
		Fetcher: mapFetcher{texts: map[string]string{
			"recaps/G1-E1-20240601-human_summary.txt": "The hearing ran long.",
			"recaps/G1-E1-20240601-ai_summary.txt":    "Budget approved 5-2.",
		}},
		RecapDir: "recaps",
	}
	u := pastUnit("E1", "G1")
	l.Load(context.Background(), u)

	assert.Equal(t, "The hearing ran long.", u.Secondary.HumanSummary)
	assert.Equal(t, "Budget approved 5-2.", u.Secondary.AISummary)
}

func TestLoad_EachResourceDegradesIndependently(t *testing.T) {
	l := &Loader{
		Fetcher: mapFetcher{texts: map[string]string{
			"recaps/G1-E1-20240601-human_summary.txt": "Only the human recap exists.",
		}},
		RecapDir: "recaps",
	}
	u := pastUnit("E1", "G1")
	l.Load(context.Background(), u)

	assert.Equal(t, "Only the human recap exists.", u.Secondary.HumanSummary)
	assert.Equal(t, NoAISummary, u.Secondary.AISummary)
}

func TestLoad_NoPathKeyYieldsPlaceholders(t *testing.T) {
	l := &Loader{Fetcher: mapFetcher{}}
	u := pastUnit("E1", "")
	l.Load(context.Background(), u)

	assert.Equal(t, NoHumanSummary, u.Secondary.HumanSummary)
	assert.Equal(t, NoAISummary, u.Secondary.AISummary)
}

func TestLoad_MediaLinkedForPastUnitsOnly(t *testing.T) {
	mediaTable := []tabular.Record{
		record("event_id", "E1", "title", "Session recording", "url", "https://youtube.com/watch?v=abc123xyz"),
		record("event_id", "E2", "title", "Other event", "url", "https://example.org/other.mp4"),
	}
	l := &Loader{Fetcher: mapFetcher{}, Media: mediaTable}

	past := pastUnit("E1", "G1")
	l.Load(context.Background(), past)
	require.Len(t, past.Secondary.Media, 1)
	assert.Equal(t, "Session recording", past.Secondary.Media[0].Title)
	assert.Equal(t, "https://www.youtube.com/embed/abc123xyz", past.Secondary.Media[0].EmbedURL)

	upcoming := pastUnit("E1", "G1")
	upcoming.Past = false
	l.Load(context.Background(), upcoming)
	assert.Empty(t, upcoming.Secondary.Media)
}
