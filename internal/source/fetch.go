// Package source fetches the raw table and recap resources the
// timeline is built from.
//
// Failure semantics follow the overall degrade-only design: a missing
// or failing resource becomes an empty record set (or empty string)
// with a diagnostic log line, never an error that aborts the caller.
// Only total absence of event data is surfaced to the user, and that
// decision belongs to the assembler, not here.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	appLog "civicline/internal/log"
	"civicline/internal/tabular"
)

// Fetcher resolves named resources against a local data directory or,
// for http(s) references, over the network with a disk-backed
// conditional-request cache (ETag / Last-Modified).
type Fetcher struct {
	client   *http.Client
	dataDir  string
	cacheDir string
}

// cacheEntry holds HTTP cache metadata for a single URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewFetcher creates a Fetcher rooted at dataDir. cacheDir may be
// empty, in which case HTTP responses are cached under the data
// directory.
func NewFetcher(dataDir, cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = filepath.Join(dataDir, ".cache")
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		dataDir:  dataDir,
		cacheDir: cacheDir,
	}
}

// TableSet holds the parsed source tables for one render pass.
type TableSet struct {
	Events      []tabular.Record
	Groups      []tabular.Record
	Actions     []tabular.Record
	ActionTypes []tabular.Record
	Media       []tabular.Record
}

// TableRefs names the resource behind each table. Empty entries fall
// back to the conventional file names in the data directory.
type TableRefs struct {
	Events      string `yaml:"events" json:"events"`
	Groups      string `yaml:"groups" json:"groups"`
	Actions     string `yaml:"actions" json:"actions"`
	ActionTypes string `yaml:"action_types" json:"action_types"`
	Media       string `yaml:"media" json:"media"`
}

// Normalize fills in the conventional defaults.
func (t *TableRefs) Normalize() {
	if t.Events == "" {
		t.Events = "events.csv"
	}
	if t.Groups == "" {
		t.Groups = "groups.csv"
	}
	if t.Actions == "" {
		t.Actions = "actions.csv"
	}
	if t.ActionTypes == "" {
		t.ActionTypes = "action_types.csv"
	}
	if t.Media == "" {
		t.Media = "media.csv"
	}
}

// FetchTables loads all source tables concurrently and waits for every
// one before returning. A slow or failing table degrades to an empty
// record set for that table without blocking or failing the others.
func (f *Fetcher) FetchTables(ctx context.Context, refs TableRefs) TableSet {
	refs.Normalize()

	var set TableSet
	var wg sync.WaitGroup
	load := func(name, ref string, dst *[]tabular.Record) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			*dst = f.FetchTable(ctx, name, ref)
		}()
	}

	load("events", refs.Events, &set.Events)
	load("groups", refs.Groups, &set.Groups)
	load("actions", refs.Actions, &set.Actions)
	load("action_types", refs.ActionTypes, &set.ActionTypes)
	load("media", refs.Media, &set.Media)
	wg.Wait()

	return set
}

// FetchTable fetches and parses one table. Transport failures and
// missing resources yield an empty record set with a warning.
func (f *Fetcher) FetchTable(ctx context.Context, name, ref string) []tabular.Record {
	body, err := f.fetchBytes(ctx, ref)
	if err != nil {
		appLog.Error("table unavailable, using empty record set", err, "table", name, "ref", ref)
		return nil
	}
	records := tabular.Parse(string(body))
	appLog.Debug("table loaded", "table", name, "ref", ref, "records", len(records))
	return records
}

// TextIfExists fetches a plain-text resource, returning "" when the
// resource is absent or fails. Used for per-event recap files, whose
// absence is an expected condition, so only debug-level noise.
func (f *Fetcher) TextIfExists(ctx context.Context, ref string) string {
	body, err := f.fetchBytes(ctx, ref)
	if err != nil {
		appLog.Debug("optional resource absent", "ref", ref)
		return ""
	}
	return string(body)
}

// fetchBytes resolves a named resource. http(s) references go over the
// network with conditional-request caching; anything else is read
// relative to the data directory (absolute paths pass through).
func (f *Fetcher) fetchBytes(ctx context.Context, ref string) ([]byte, error) {
	if ref == "" {
		return nil, errors.New("resource reference is empty")
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return f.fetchHTTP(ctx, ref)
	}
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.dataDir, path)
	}
	return os.ReadFile(path)
}

// fetchHTTP fetches a URL, honoring ETag and Last-Modified via a disk
// cache keyed by a hash of the URL. On network errors or non-success
// statuses a previously cached body is reused when available.
func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	cachePath := filepath.Join(f.cacheDir, urlCacheKey(url))
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return nil, err
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("fetch network error, using cached body", err, "url", url)
			return cachedBody, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}
		newMeta := cacheEntry{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("cache save failed", err, "url", url)
		}
		return body, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, errors.New("received 304 Not Modified but no cached body available")
		}
		return cachedBody, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("fetch non-OK status, using cached body", errors.New(resp.Status), "url", url, "status", resp.StatusCode)
			return cachedBody, nil
		}
		return nil, errors.New(resp.Status)
	}
}

// urlCacheKey derives a stable cache directory name from a URL.
func urlCacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:8])
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}
