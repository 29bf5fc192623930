package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Basic(t *testing.T) {
	records := Parse("event_id,title,location\nE1,Town Hall,Main St\nE2,Cleanup,Park\n")
	require.Len(t, records, 2)
	assert.Equal(t, "E1", records[0].Get("event_id"))
	assert.Equal(t, "Town Hall", records[0].Get("title"))
	assert.Equal(t, "Park", records[1].Get("location"))
}

func TestParse_QuotedFieldRoundTrip(t *testing.T) {
	// One cell containing a comma, a literal quote and an embedded
	// newline must come back as exactly that literal content.
	text := "id,notes\nE1,\"Hall A, Room 2, the \"\"annex\"\"\nsecond line\"\n"
	records := Parse(text)
	require.Len(t, records, 1)
	assert.Equal(t, "Hall A, Room 2, the \"annex\"\nsecond line", records[0].Get("notes"))
}

func TestParse_BlankRowsDropped(t *testing.T) {
	text := "id,title\n , \nE1,Town Hall\n,\n  \nE2,Cleanup\n"
	records := Parse(text)
	require.Len(t, records, 2)
	assert.Equal(t, "E1", records[0].Get("id"))
	assert.Equal(t, "E2", records[1].Get("id"))
}

func TestParse_RaggedRowPadsMissingCells(t *testing.T) {
	records := Parse("id,title,location\nE1,Town Hall\n")
	require.Len(t, records, 1)
	assert.Equal(t, "Town Hall", records[0].Get("title"))
	assert.Equal(t, "", records[0].Get("location"))
}

func TestParse_StripsByteOrderMark(t *testing.T) {
	records := Parse("\ufeffid,title\nE1,Town Hall\n")
	require.Len(t, records, 1)
	assert.Equal(t, "E1", records[0].Get("id"))
}

func TestParse_TrimsValuesAndCarriageReturns(t *testing.T) {
	records := Parse("id,title\r\nE1 ,  Town Hall \r\n")
	require.Len(t, records, 1)
	assert.Equal(t, "E1", records[0].Get("id"))
	assert.Equal(t, "Town Hall", records[0].Get("title"))
}

func TestParse_MalformedQuotingDegradesBestEffort(t *testing.T) {
	// An unterminated quote swallows the rest of the input into one
	// cell; the parser must not fail or drop the table.
	records := Parse("id,title\nE1,\"unterminated\n")
	require.Len(t, records, 1)
	assert.Equal(t, "E1", records[0].Get("id"))
	assert.Equal(t, "unterminated", records[0].Get("title"))
}

func TestParse_Empty(t *testing.T) {
	assert.Nil(t, Parse(""))
	assert.Empty(t, Parse("id,title\n"))
}
