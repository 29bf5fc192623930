// Package web exposes the assembled timeline over HTTP: a JSON API for
// the page, an iCalendar feed, and static serving of the data
// directory (tables and recap files) so secondary content can be
// fetched lazily by the client.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"civicline/internal/config"
	"civicline/internal/ical"
	"civicline/internal/link"
	appLog "civicline/internal/log"
	"civicline/internal/schema"
	"civicline/internal/source"
	"civicline/internal/timeline"
)

// Server provides the HTTP surface.
type Server struct {
	cfg     *config.Config
	fetcher *source.Fetcher
	loc     *time.Location
	mux     *http.ServeMux

	// In-memory caches for assembled output, keyed by mode, to avoid
	// redundant fetch/assemble work on every request. The JSON and
	// iCalendar surfaces share the same TTL so both go stale together.
	cacheMu sync.RWMutex
	cache   map[timeline.Mode]*timelineCache
	feeds   map[timeline.Mode]*feedCache
}

// timelineCacheTTL bounds how stale a cached response may be.
const timelineCacheTTL = 30 * time.Second

type timelineCache struct {
	resp      timelineResponse
	updatedAt time.Time
}

type feedCache struct {
	body      string
	updatedAt time.Time
}

// NewServer constructs a Server.
func NewServer(cfg *config.Config, fetcher *source.Fetcher, loc *time.Location) *Server {
	s := &Server{
		cfg:     cfg,
		fetcher: fetcher,
		loc:     loc,
		mux:     http.NewServeMux(),
		cache:   make(map[timeline.Mode]*timelineCache),
		feeds:   make(map[timeline.Mode]*feedCache),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/timeline", s.handleTimeline)
	s.mux.HandleFunc("/api/groups", s.handleGroups)
	s.mux.HandleFunc("/timeline.ics", s.handleFeed)

	// Tables and recap files are served directly so the page's lazy
	// loads hit plain static paths.
	s.mux.Handle("/", http.FileServer(http.Dir(s.cfg.DataDir)))
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="civicline", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// unitDTO is the JSON view of one presentation unit. Recap paths are
// included so the client can lazy-fetch the static files itself when a
// unit becomes visible.
type unitDTO struct {
	EventID      string   `json:"event_id"`
	GroupID      string   `json:"group_id"`
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Location     string   `json:"location"`
	SourceURL    string   `json:"source_url,omitempty"`
	Instant      string   `json:"instant,omitempty"`
	Past         bool     `json:"past"`
	GroupName    string   `json:"group_name"`
	GroupSummary string   `json:"group_summary"`
	Actions      []string `json:"actions,omitempty"`
	ActionsEmpty string   `json:"actions_placeholder,omitempty"`
	HumanRecap   string   `json:"human_recap_path,omitempty"`
	AIRecap      string   `json:"ai_recap_path,omitempty"`
}

type timelineResponse struct {
	Mode  timeline.Mode `json:"mode"`
	Units []unitDTO     `json:"units"`
	// Empty is the user-facing signal for total absence of event
	// data; a timeline of placeholders is not "empty".
	Empty bool `json:"empty"`
}

// handleTimeline returns the assembled unit sequence.
//
// GET /api/timeline?mode=past|upcoming|all (default: configured mode)
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	mode := timeline.ParseMode(s.cfg.Mode)
	if q := r.URL.Query().Get("mode"); q != "" {
		mode = timeline.ParseMode(q)
	}

	now := time.Now()
	s.cacheMu.RLock()
	cached := s.cache[mode]
	s.cacheMu.RUnlock()
	if cached != nil && now.Sub(cached.updatedAt) < timelineCacheTTL {
		writeJSON(w, http.StatusOK, cached.resp)
		return
	}

	resp := s.buildTimeline(r.Context(), mode)

	s.cacheMu.Lock()
	s.cache[mode] = &timelineCache{resp: resp, updatedAt: time.Now()}
	s.cacheMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// assembleUnits fetches the source tables and assembles the unit
// sequence for a mode; both response surfaces build from it.
func (s *Server) assembleUnits(ctx context.Context, mode timeline.Mode) ([]*timeline.Unit, source.TableSet) {
	set := s.fetcher.FetchTables(ctx, s.cfg.Tables)

	assembler := timeline.Assembler{
		Mode: mode,
		Linker: &link.Linker{
			Threshold:    s.cfg.Link.Threshold,
			ContainScore: s.cfg.Link.ContainScore,
		},
		Loc: s.loc,
		Expand: timeline.ExpandOptions{
			HorizonDays: s.cfg.Expand.HorizonDays,
			MaxPerEvent: s.cfg.Expand.MaxPerEvent,
		},
	}
	return assembler.Assemble(set), set
}

func (s *Server) buildTimeline(ctx context.Context, mode timeline.Mode) timelineResponse {
	units, set := s.assembleUnits(ctx, mode)

	loader := timeline.Loader{RecapDir: s.cfg.RecapDir}
	dtos := make([]unitDTO, 0, len(units))
	for _, u := range units {
		dto := unitDTO{
			EventID:      u.EventID,
			GroupID:      u.GroupID,
			Title:        u.Title,
			Date:         u.DateText,
			Time:         u.TimeText,
			Location:     u.Location,
			SourceURL:    u.URL,
			Past:         u.Past,
			GroupName:    u.GroupName,
			GroupSummary: u.GroupSummary,
			ActionsEmpty: u.ActionPlaceholder,
		}
		if u.Instant.Valid {
			dto.Instant = u.Instant.Time.Format(time.RFC3339)
		}
		for _, a := range u.Actions {
			dto.Actions = append(dto.Actions, a.Label)
		}
		if human, ai, ok := loader.RecapPaths(u); ok {
			dto.HumanRecap = human
			dto.AIRecap = ai
		}
		dtos = append(dtos, dto)
	}

	return timelineResponse{
		Mode:  mode,
		Units: dtos,
		Empty: len(set.Events) == 0,
	}
}

// groupDTO is the JSON view for the plain group listing.
type groupDTO struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// handleGroups returns the alphabetized group card list.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	records := s.fetcher.FetchTable(r.Context(), "groups", s.cfg.Tables.Groups)

	groups := make([]groupDTO, 0, len(records))
	for _, rec := range records {
		groups = append(groups, groupDTO{
			Name:    schema.GroupName(rec),
			Summary: schema.GroupSummary(rec),
		})
	}
	sortGroups(groups)
	writeJSON(w, http.StatusOK, groups)
}

// handleFeed serves the iCalendar export of the timeline, cached with
// the same TTL as the JSON surface.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	mode := timeline.ParseMode(s.cfg.Mode)
	if q := r.URL.Query().Get("mode"); q != "" {
		mode = timeline.ParseMode(q)
	}

	now := time.Now()
	s.cacheMu.RLock()
	cached := s.feeds[mode]
	s.cacheMu.RUnlock()

	var body string
	if cached != nil && now.Sub(cached.updatedAt) < timelineCacheTTL {
		body = cached.body
	} else {
		units, _ := s.assembleUnits(r.Context(), mode)
		body = ical.Feed(units, "civicline")

		s.cacheMu.Lock()
		s.feeds[mode] = &feedCache{body: body, updatedAt: time.Now()}
		s.cacheMu.Unlock()
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("json encode failed", err)
	}
}

func sortGroups(groups []groupDTO) {
	sort.SliceStable(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].Name) < strings.ToLower(groups[j].Name)
	})
}
