package http

import (
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/core"
)

type budgetRequest struct {
	CategoryID int64  `json:"category_id"`
	Amount     string `json:"amount"`
	PeriodType string `json:"period_type"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

// budgetAmountCents parses the target. Zero is a valid target: it tracks a
// category without allowing any spend.
func budgetAmountCents(raw string) (core.Money, error) {
	if raw == "" || raw == "0" {
		return core.Money{}, nil
	}
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, userID int64) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	amount, err := budgetAmountCents(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}

	budget := &core.Budget{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Amount:     amount,
		Period: core.Period{
			Type:  core.PeriodType(req.PeriodType),
			Year:  req.Year,
			Month: req.Month,
		},
	}
	if err := s.deps.Budgets.Create(r.Context(), budget); err != nil {
		respondError(w, r, err)
		return
	}

	st, err := s.deps.Budgets.Status(r.Context(), userID, budget.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, core.DateOf(time.Now()))
	respondJSON(w, http.StatusCreated, toBudgetJSON(st))
}

// parsePeriodQuery reads an optional period filter: period_type plus year,
// plus month for monthly periods.
func parsePeriodQuery(r *http.Request) (*core.Period, error) {
	q := r.URL.Query()
	if q.Get("period_type") == "" && q.Get("year") == "" {
		return nil, nil
	}

	kind := core.PeriodType(q.Get("period_type"))
	if kind == "" {
		kind = core.PeriodMonthly
	}
	if !kind.Valid() {
		return nil, core.ErrInvalidType
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		return nil, core.ErrInvalidYear
	}
	period := &core.Period{Type: kind, Year: year}
	if kind == core.PeriodMonthly {
		if period.Month, err = strconv.Atoi(q.Get("month")); err != nil {
			return nil, core.ErrInvalidMonth
		}
	}
	return period, nil
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, userID int64) {
	period, err := parsePeriodQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	statuses, err := s.deps.Budgets.ListStatuses(r.Context(), userID, period)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toBudgetsJSON(statuses))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	st, err := s.deps.Budgets.Status(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toBudgetJSON(st))
}

// handleUpdateBudget changes the target amount. Category and period are
// immutable; delete and recreate to move a budget.
func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req struct {
		Amount string `json:"amount"`
	}
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	amount, err := budgetAmountCents(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Budgets.UpdateAmount(r.Context(), userID, id, amount); err != nil {
		respondError(w, r, err)
		return
	}

	st, err := s.deps.Budgets.Status(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, core.DateOf(time.Now()))
	respondJSON(w, http.StatusOK, toBudgetJSON(st))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.deps.Budgets.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, core.DateOf(time.Now()))
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request, userID int64) {
	recs, err := s.deps.Recommender.Recommend(r.Context(), userID, time.Now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toRecommendationsJSON(recs))
}

// handleApplyRecommendations turns a recommendation into a current-month
// budget. With a category_id the given amount becomes that category's
// budget; without one every open recommendation is applied at once.
func (s *Server) handleApplyRecommendations(w http.ResponseWriter, r *http.Request, userID int64) {
	var req struct {
		CategoryID int64  `json:"category_id"`
		Amount     string `json:"amount"`
	}
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	now := time.Now()
	period := core.PeriodForDate(now, core.PeriodMonthly)

	if req.CategoryID > 0 {
		amount, err := budgetAmountCents(req.Amount)
		if err != nil {
			respondError(w, r, err)
			return
		}
		budget := &core.Budget{UserID: userID, CategoryID: req.CategoryID, Amount: amount, Period: period}
		if err := s.deps.Budgets.Create(r.Context(), budget); err != nil {
			respondError(w, r, err)
			return
		}
		st, err := s.deps.Budgets.Status(r.Context(), userID, budget.ID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		s.invalidateDashboard(userID, core.DateOf(now))
		respondJSON(w, http.StatusCreated, toBudgetJSON(st))
		return
	}

	created, err := s.deps.Recommender.Apply(r.Context(), userID, period, now)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, core.DateOf(now))
	respondJSON(w, http.StatusOK, map[string]int{"created": created})
}
