package http

import (
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type splitRequest struct {
	CategoryID  int64  `json:"category_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type transactionRequest struct {
	AccountID   int64          `json:"account_id"`
	CategoryID  *int64         `json:"category_id"`
	Type        string         `json:"type"`
	Amount      string         `json:"amount"`
	Description string         `json:"description"`
	Date        string         `json:"date"`
	Notes       string         `json:"notes"`
	Splits      []splitRequest `json:"splits"`
	TagIDs      []int64        `json:"tag_ids"`
}

func (req transactionRequest) toTransaction(userID int64, now time.Time) (*core.Transaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date, now, true)
	if err != nil {
		return nil, err
	}

	t := &core.Transaction{
		UserID:      userID,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        core.TransactionType(req.Type),
		Amount:      amount,
		Description: req.Description,
		Date:        date,
		Notes:       req.Notes,
	}
	for _, sp := range req.Splits {
		spAmount, err := parseAmount(sp.Amount)
		if err != nil {
			return nil, err
		}
		t.Splits = append(t.Splits, core.TransactionSplit{
			CategoryID:  sp.CategoryID,
			Amount:      spAmount,
			Description: sp.Description,
		})
	}
	for _, tagID := range req.TagIDs {
		t.Tags = append(t.Tags, core.Tag{ID: tagID})
	}
	return t, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	t, err := req.toTransaction(userID, time.Now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Transactions.Create(r.Context(), t); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, t.Date)
	respondJSON(w, http.StatusCreated, toTransactionJSON(t))
}

// parseTransactionFilter reads list narrowing from the query string.
func parseTransactionFilter(r *http.Request) (storage.TransactionFilter, error) {
	var f storage.TransactionFilter
	q := r.URL.Query()

	for name, dst := range map[string]**int64{
		"account_id":  &f.AccountID,
		"category_id": &f.CategoryID,
	} {
		if raw := q.Get(name); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return f, core.ErrInvalidType
			}
			*dst = &id
		}
	}
	f.Type = core.TransactionType(q.Get("type"))
	if f.Type != "" && !f.Type.Valid() {
		return f, core.ErrInvalidType
	}
	for name, dst := range map[string]**core.Date{"from": &f.From, "to": &f.To} {
		if raw := q.Get(name); raw != "" {
			d, err := parseDate(raw, time.Time{}, false)
			if err != nil {
				return f, err
			}
			*dst = &d
		}
	}
	if raw := q.Get("limit"); raw != "" {
		f.Limit, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("offset"); raw != "" {
		f.Offset, _ = strconv.Atoi(raw)
	}
	return f, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID int64) {
	filter, err := parseTransactionFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	txns, err := s.deps.Transactions.List(r.Context(), userID, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionsJSON(txns))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	t, err := s.deps.Transactions.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionJSON(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	t, err := req.toTransaction(userID, time.Now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	t.ID = id
	if err := s.deps.Transactions.Update(r.Context(), t); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, t.Date)
	respondJSON(w, http.StatusOK, toTransactionJSON(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	// Load first so the right month's dashboard gets invalidated.
	t, err := s.deps.Transactions.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Transactions.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, t.Date)
	respondJSON(w, http.StatusNoContent, nil)
}

type transferRequest struct {
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Description   string `json:"description"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request, userID int64) {
	var req transferRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	date, err := parseDate(req.Date, time.Now(), true)
	if err != nil {
		respondError(w, r, err)
		return
	}

	transferID, err := s.deps.Transactions.Transfer(r.Context(),
		userID, req.FromAccountID, req.ToAccountID, amount, date, req.Description)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, date)
	respondJSON(w, http.StatusCreated, map[string]string{"transfer_id": transferID})
}

// handleImportCSV ingests a bank CSV as multipart form data. The account
// comes from the account_id form field, the rows from the file field.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request, userID int64) {
	if err := r.ParseMultipartForm(maxBackupBodyBytes); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	accountID, err := strconv.ParseInt(r.FormValue("account_id"), 10, 64)
	if err != nil || accountID < 1 {
		badRequest(w, "invalid account_id")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file field")
		return
	}
	defer file.Close()

	result, err := s.deps.Importer.ImportCSV(r.Context(), userID, accountID, file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, core.DateOf(time.Now()))
	respondJSON(w, http.StatusOK, result)
}

// invalidateDashboard drops the cached month containing the write. The
// current month is dropped too; most writes land there.
func (s *Server) invalidateDashboard(userID int64, date core.Date) {
	if s.deps.Dashboard == nil {
		return
	}
	s.deps.Dashboard.Invalidate(userID, date.Time)
	s.deps.Dashboard.Invalidate(userID, time.Now())
}
