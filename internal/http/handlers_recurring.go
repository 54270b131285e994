package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type recurringRequest struct {
	AccountID   int64  `json:"account_id"`
	CategoryID  *int64 `json:"category_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	NextDue     string `json:"next_due"`
}

func (req recurringRequest) toRecurring(userID int64) (*core.RecurringTransaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	nextDue, err := parseDate(req.NextDue, time.Time{}, false)
	if err != nil {
		return nil, err
	}
	return &core.RecurringTransaction{
		UserID:      userID,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        core.TransactionType(req.Type),
		Amount:      amount,
		Description: req.Description,
		Frequency:   core.Frequency(req.Frequency),
		NextDue:     nextDue,
	}, nil
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request, userID int64) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	rt, err := req.toRecurring(userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := rt.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Repo.CreateRecurring(r.Context(), rt); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toRecurringJSON(rt))
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request, userID int64) {
	templates, err := s.deps.Repo.ListRecurring(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]recurringJSON, len(templates))
	for i := range templates {
		out[i] = toRecurringJSON(&templates[i])
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	rt, err := s.deps.Repo.GetRecurring(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRecurringJSON(rt))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req recurringRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	rt, err := req.toRecurring(userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rt.ID = id
	if err := rt.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Repo.UpdateRecurring(r.Context(), rt); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRecurringJSON(rt))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.deps.Repo.DeleteRecurring(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
