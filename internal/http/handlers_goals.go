package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type goalRequest struct {
	Name          string `json:"name"`
	Target        string `json:"target"`
	TargetDate    string `json:"target_date"`
	CategoryLabel string `json:"category_label"`
}

func (req goalRequest) toGoal(userID int64) (*core.Goal, error) {
	target, err := parseAmount(req.Target)
	if err != nil {
		return nil, err
	}
	g := &core.Goal{
		UserID:        userID,
		Name:          req.Name,
		Target:        target,
		CategoryLabel: req.CategoryLabel,
	}
	if req.TargetDate != "" {
		d, err := parseDate(req.TargetDate, time.Time{}, false)
		if err != nil {
			return nil, err
		}
		g.TargetDate = &d
	}
	return g, nil
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, userID int64) {
	var req goalRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	goal, err := req.toGoal(userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Goals.Create(r.Context(), goal); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, core.DateOf(time.Now()))
	respondJSON(w, http.StatusCreated, toGoalJSON(goal))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, userID int64) {
	goals, err := s.deps.Goals.List(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]goalJSON, len(goals))
	for i := range goals {
		out[i] = toGoalJSON(&goals[i])
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	goal, err := s.deps.Goals.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGoalJSON(goal))
}

// handleUpdateGoal edits name, target and dates. The running total only
// moves through contributions, and completion never un-latches.
func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	goal, err := req.toGoal(userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	goal.ID = id
	if err := s.deps.Goals.Update(r.Context(), goal); err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := s.deps.Goals.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, core.DateOf(time.Now()))
	respondJSON(w, http.StatusOK, toGoalJSON(updated))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.deps.Goals.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, core.DateOf(time.Now()))
	respondJSON(w, http.StatusNoContent, nil)
}

type contributionRequest struct {
	Amount string `json:"amount"`
	Note   string `json:"note"`
	Date   string `json:"date"`
}

// handleContribute appends to the goal's ledger and returns the goal with
// its updated total.
func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req contributionRequest
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

	goal, err := s.deps.Goals.Contribute(r.Context(), &core.GoalContribution{
		GoalID: id,
		UserID: userID,
		Amount: amount,
		Note:   req.Note,
		Date:   date,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateDashboard(userID, date)
	respondJSON(w, http.StatusCreated, toGoalJSON(goal))
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	contributions, err := s.deps.Goals.Contributions(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]contributionJSON, len(contributions))
	for i := range contributions {
		out[i] = toContributionJSON(&contributions[i])
	}
	respondJSON(w, http.StatusOK, out)
}
