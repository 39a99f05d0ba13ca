package http

import (
	"errors"
	"net/http"

	"finanzas/internal/core"
)

type profilesResponse struct {
	Profiles        []core.Profile `json:"profiles"`
	ActiveProfileID int64          `json:"active_profile_id"`
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(profilesResponse{
		Profiles:        s.svc.Profiles(),
		ActiveProfileID: s.svc.ActiveProfile().ID,
	}).Write(w)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	p, err := s.svc.AddProfile(r.Context(), sanitizeInput(req.Name))
	s.respond(w, r, Result(http.StatusCreated, p, err), err)
}

type updateProfileRequest struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

// handleUpdateProfile renames and/or sets the avatar. At least one field
// is required.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	if req.Name == nil && req.Avatar == nil {
		err := core.Invalid("body", errors.New("name or avatar is required"))
		s.respond(w, r, FromError(err), err)
		return
	}

	var (
		p       core.Profile
		persist error
	)
	if req.Name != nil {
		p, err = s.svc.RenameProfile(r.Context(), id, sanitizeInput(*req.Name))
		if err != nil && !isPersistenceOnly(err) {
			s.respond(w, r, FromError(err), err)
			return
		}
		persist = errors.Join(persist, err)
	}
	if req.Avatar != nil {
		p, err = s.svc.SetAvatar(r.Context(), id, sanitizeInput(*req.Avatar))
		if err != nil && !isPersistenceOnly(err) {
			s.respond(w, r, FromError(err), err)
			return
		}
		persist = errors.Join(persist, err)
	}
	s.respond(w, r, Result(http.StatusOK, p, persist), persist)
}

func (s *Server) handleActivateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	p, err := s.svc.SwitchProfile(r.Context(), id)
	s.respond(w, r, Result(http.StatusOK, p, err), err)
}

type incomeRequest struct {
	Base  Amount `json:"base"`
	Extra Amount `json:"extra"`
}

// handleAddIncome adds to the profile's accumulated income.
func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	id, req, err := s.incomeInput(w, r)
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	p, err := s.svc.AddIncome(r.Context(), id, int64(req.Base), int64(req.Extra))
	s.respond(w, r, Result(http.StatusOK, p, err), err)
}

// handleSetIncome replaces the recurring base and extra income.
func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	id, req, err := s.incomeInput(w, r)
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	p, err := s.svc.SetRecurringIncome(r.Context(), id, int64(req.Base), int64(req.Extra))
	s.respond(w, r, Result(http.StatusOK, p, err), err)
}

func (s *Server) incomeInput(w http.ResponseWriter, r *http.Request) (int64, incomeRequest, error) {
	var req incomeRequest
	id, err := pathID(r, "id")
	if err != nil {
		return 0, req, err
	}
	return id, req, decodeJSON(w, r, &req)
}

type setResponse struct {
	Name  string   `json:"name"`
	Added bool     `json:"added"`
	Items []string `json:"items"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.Categories()).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	name := sanitizeInput(req.Name)
	added, err := s.svc.AddCategory(r.Context(), name)
	s.respond(w, r, setResult(name, added, s.svc.Categories(), err), err)
}

func (s *Server) handleListNecessities(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.Necessities()).Write(w)
}

func (s *Server) handleAddNecessity(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	name := sanitizeInput(req.Name)
	added, err := s.svc.AddNecessityLevel(r.Context(), name)
	s.respond(w, r, setResult(name, added, s.svc.Necessities(), err), err)
}

// setResult answers 201 for a new member and 200 for an existing one.
func setResult(name string, added bool, items []string, err error) *JSONResponseBuilder {
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	return Result(status, setResponse{Name: name, Added: added, Items: items}, err)
}

type resetResponse struct {
	Version int64 `json:"version"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	err := s.svc.ResetAll(r.Context())
	s.respond(w, r, Result(http.StatusOK, resetResponse{Version: s.svc.Version()}, err), err)
}

func (s *Server) handleFactoryReset(w http.ResponseWriter, r *http.Request) {
	err := s.svc.FactoryReset(r.Context())
	s.respond(w, r, Result(http.StatusOK, resetResponse{Version: s.svc.Version()}, err), err)
}
