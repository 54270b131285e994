package http

import (
	"net/http"

	"fintrack/internal/core"
)

type accountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// balanceCents parses the opening balance. Unlike transaction amounts a
// balance may legitimately be zero or negative (credit cards).
func (req accountRequest) balanceCents() (int64, error) {
	if req.Balance == "" || req.Balance == "0" {
		return 0, nil
	}
	raw := req.Balance
	neg := false
	if raw[0] == '-' {
		neg = true
		raw = raw[1:]
	}
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		return 0, err
	}
	if neg {
		cents = -cents
	}
	return cents, nil
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	var req accountRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	balance, err := req.balanceCents()
	if err != nil {
		badRequest(w, "invalid balance")
		return
	}

	account := &core.Account{
		UserID:   userID,
		Name:     req.Name,
		Type:     core.AccountType(req.Type),
		Balance:  core.Money{Cents: balance},
		Currency: req.Currency,
	}
	if err := account.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Repo.CreateAccount(r.Context(), account); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toAccountJSON(account))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, userID int64) {
	accounts, err := s.deps.Repo.ListAccounts(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAccountsJSON(accounts))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	account, err := s.deps.Repo.GetAccount(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAccountJSON(account))
}

// handleUpdateAccount renames or retypes an account. The balance is not
// editable here; it only moves through transactions.
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req accountRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}

	account, err := s.deps.Repo.GetAccount(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name != "" {
		account.Name = req.Name
	}
	if req.Type != "" {
		account.Type = core.AccountType(req.Type)
	}
	if req.Currency != "" {
		account.Currency = req.Currency
	}
	if err := account.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Repo.UpdateAccount(r.Context(), account); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toAccountJSON(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.deps.Repo.DeactivateAccount(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
