package http

import (
	"net/http"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/services"
)

func isPersistenceOnly(err error) bool { return services.IsPersistenceOnly(err) }

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	NewJSONResponse().Data(s.svc.Transactions(f)).Write(w)
}

type createTransactionRequest struct {
	Date        string `json:"date"`
	ProfileID   int64  `json:"profile_id"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Amount      Amount `json:"amount"`
	Category    string `json:"category"`
	Necessity   string `json:"necessity"`
	Items       string `json:"items"`
	Notes       string `json:"notes"`
}

func (req createTransactionRequest) toNew() (ledger.NewTransaction, error) {
	in := ledger.NewTransaction{
		ProfileID:   req.ProfileID,
		Kind:        core.TransactionKind(strings.TrimSpace(req.Kind)),
		Description: sanitizeInput(req.Description),
		Amount:      int64(req.Amount),
		Category:    sanitizeInput(req.Category),
		Necessity:   sanitizeInput(req.Necessity),
		Items:       sanitizeInput(req.Items),
		Notes:       sanitizeInput(req.Notes),
	}
	if d := strings.TrimSpace(req.Date); d != "" {
		date, err := core.ParseDate(d)
		if err != nil {
			return in, core.Invalid("date", err)
		}
		in.Date = date
	}
	return in, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	in, err := req.toNew()
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	tx, err := s.svc.AddTransaction(r.Context(), in)
	s.respond(w, r, Result(http.StatusCreated, tx, err), err)
}

type quickRequest struct {
	Description string `json:"description"`
	Amount      Amount `json:"amount"`
	Category    string `json:"category"`
}

func (s *Server) handleQuickTransaction(w http.ResponseWriter, r *http.Request) {
	var req quickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	tx, err := s.svc.AddQuickTransaction(r.Context(), ledger.QuickEntry{
		Description: sanitizeInput(req.Description),
		Amount:      int64(req.Amount),
		Category:    sanitizeInput(req.Category),
	})
	s.respond(w, r, Result(http.StatusCreated, tx, err), err)
}

type patchTransactionRequest struct {
	Amount      *Amount `json:"amount"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Quick       *bool   `json:"quick"`
}

func (req patchTransactionRequest) toPatch() ledger.TransactionPatch {
	var p ledger.TransactionPatch
	if req.Amount != nil {
		v := int64(*req.Amount)
		p.Amount = &v
	}
	if req.Description != nil {
		v := sanitizeInput(*req.Description)
		p.Description = &v
	}
	if req.Category != nil {
		v := sanitizeInput(*req.Category)
		p.Category = &v
	}
	p.Quick = req.Quick
	return p
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	var req patchTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	tx, err := s.svc.EditTransaction(r.Context(), id, req.toPatch())
	s.respond(w, r, Result(http.StatusOK, tx, err), err)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respond(w, r, FromError(err), err)
		return
	}
	tx, err := s.svc.DeleteTransaction(r.Context(), id)
	s.respond(w, r, Result(http.StatusOK, tx, err), err)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.Suggestions()).Write(w)
}
