package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestFetchTables_FromDataDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "events.csv", "event_id,title\nE1,Town Hall\n")
	writeFile(t, dir, "groups.csv", "group_id,name\nG1,Parks Board\n")

	f := NewFetcher(dir, "")
	set := f.FetchTables(context.Background(), TableRefs{})

	require.Len(t, set.Events, 1)
	assert.Equal(t, "Town Hall", set.Events[0].Get("title"))
	require.Len(t, set.Groups, 1)
	assert.Equal(t, "Parks Board", set.Groups[0].Get("name"))

	// Absent tables degrade to empty record sets, not errors.
	assert.Empty(t, set.Actions)
	assert.Empty(t, set.ActionTypes)
	assert.Empty(t, set.Media)
}

func TestFetchTable_MissingFileDegradesToEmpty(t *testing.T) {
	f := NewFetcher(t.TempDir(), "")
	assert.Nil(t, f.FetchTable(context.Background(), "events", "events.csv"))
}

func TestTextIfExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "recaps"), 0o755))
	writeFile(t, dir, "recaps/G1-E1-20240601-human_summary.txt", "The meeting happened.")

	f := NewFetcher(dir, "")
	assert.Equal(t, "The meeting happened.", f.TextIfExists(context.Background(), "recaps/G1-E1-20240601-human_summary.txt"))
	assert.Equal(t, "", f.TextIfExists(context.Background(), "recaps/G1-E1-20240601-ai_summary.txt"))
}

func TestTableRefs_NormalizeDefaults(t *testing.T) {
	var refs TableRefs
	refs.Normalize()
	assert.Equal(t, "events.csv", refs.Events)
	assert.Equal(t, "groups.csv", refs.Groups)
	assert.Equal(t, "actions.csv", refs.Actions)
	assert.Equal(t, "action_types.csv", refs.ActionTypes)
	assert.Equal(t, "media.csv", refs.Media)

	custom := TableRefs{Events: "https://example.org/events.csv"}
	custom.Normalize()
	assert.Equal(t, "https://example.org/events.csv", custom.Events)
	assert.Equal(t, "groups.csv", custom.Groups)
}

func TestFetchHTTP_ConditionalRequestRevalidation(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte("event_id,title\nE1,Town Hall\n"))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), t.TempDir())

	first := f.FetchTable(context.Background(), "events", srv.URL)
	require.Len(t, first, 1)

	// Second fetch revalidates and serves the cached body on 304.
	second := f.FetchTable(context.Background(), "events", srv.URL)
	require.Len(t, second, 1)
	assert.Equal(t, "Town Hall", second[0].Get("title"))
	assert.Equal(t, 2, hits)
}

func TestFetchHTTP_ServerErrorFallsBackToCachedBody(t *testing.T) {
	failing := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("event_id,title\nE1,Town Hall\n"))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), t.TempDir())
	require.Len(t, f.FetchTable(context.Background(), "events", srv.URL), 1)

	failing = true
	records := f.FetchTable(context.Background(), "events", srv.URL)
	require.Len(t, records, 1)
	assert.Equal(t, "Town Hall", records[0].Get("title"))
}

func TestFetchHTTP_ErrorWithoutCacheDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), t.TempDir())
	assert.Nil(t, f.FetchTable(context.Background(), "events", srv.URL))
}
