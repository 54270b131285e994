package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type reminderRequest struct {
	CategoryID  *int64 `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
	Recurring   bool   `json:"recurring"`
	Frequency   string `json:"frequency"`
}

func (req reminderRequest) toReminder(userID int64) (*core.Reminder, error) {
	dueDate, err := parseDate(req.DueDate, time.Time{}, false)
	if err != nil {
		return nil, err
	}
	rem := &core.Reminder{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Recurring:   req.Recurring,
		Frequency:   core.Frequency(req.Frequency),
	}
	if req.Amount != "" {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		rem.Amount = &amount
	}
	return rem, nil
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request, userID int64) {
	var req reminderRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	rem, err := req.toReminder(userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Reminders.Create(r.Context(), rem); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toReminderJSON(rem))
}

// handleListReminders returns open reminders; include_completed=true adds
// the history.
func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request, userID int64) {
	includeCompleted := r.URL.Query().Get("include_completed") == "true"
	reminders, err := s.deps.Reminders.List(r.Context(), userID, includeCompleted)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]reminderJSON, len(reminders))
	for i := range reminders {
		out[i] = toReminderJSON(&reminders[i])
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	rem, err := s.deps.Reminders.Get(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toReminderJSON(rem))
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req reminderRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	rem, err := req.toReminder(userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rem.ID = id
	if err := s.deps.Reminders.Update(r.Context(), rem); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toReminderJSON(rem))
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.deps.Reminders.Delete(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// handleCompleteReminder marks a reminder done. Recurring reminders spawn
// their next occurrence, returned under "next".
func (s *Server) handleCompleteReminder(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	next, err := s.deps.Reminders.Complete(r.Context(), userID, id, time.Now())
	if err != nil {
		respondError(w, r, err)
		return
	}

	body := map[string]any{"completed": true}
	if next != nil {
		body["next"] = toReminderJSON(next)
	}
	respondJSON(w, http.StatusOK, body)
}
