package http

import (
	"net/http"

	"finanzas/internal/aggregate"
	"finanzas/internal/core"
)

// handleDashboard summarizes today's month. ?profile=<id> selects a
// profile other than the active one.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r.URL.Query(), "profile", 0)
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	d, err := s.svc.Dashboard(id)
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	NewJSONResponse().Data(d).Write(w)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.InsightList()).Write(w)
}

type activityResponse struct {
	Entries []core.ActivityEntry      `json:"entries"`
	Summary aggregate.ActivitySummary `json:"summary"`
}

// handleActivity lists the log, optionally filtered with ?kind=. The
// summary always covers the whole log.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Activity(core.ActivityKind(r.URL.Query().Get("kind")))
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	NewJSONResponse().Data(activityResponse{
		Entries: entries,
		Summary: s.svc.ActivitySummary(),
	}).Write(w)
}

func (s *Server) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	n, err := parseIntParam(r.URL.Query(), "n", aggregate.DefaultRecent)
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	NewJSONResponse().Data(s.svc.RecentActivity(int(n))).Write(w)
}

func (s *Server) handleActivityMonths(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.ActivityMonths()).Write(w)
}
