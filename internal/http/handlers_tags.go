package http

import (
	"net/http"

	"fintrack/internal/core"
)

type tagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request, userID int64) {
	var req tagRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	tag := &core.Tag{UserID: userID, Name: req.Name, Color: req.Color}
	if err := tag.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Repo.CreateTag(r.Context(), tag); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTagJSON(tag))
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request, userID int64) {
	tags, err := s.deps.Repo.ListTags(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]tagJSON, len(tags))
	for i := range tags {
		out[i] = toTagJSON(&tags[i])
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req tagRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	tag := &core.Tag{ID: id, UserID: userID, Name: req.Name, Color: req.Color}
	if err := tag.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Repo.UpdateTag(r.Context(), tag); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTagJSON(tag))
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.deps.Repo.DeleteTag(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type savedFilterRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Filters string `json:"filters"`
}

// handleCreateSavedFilter stores a client filter blob verbatim. The server
// never interprets the payload.
func (s *Server) handleCreateSavedFilter(w http.ResponseWriter, r *http.Request, userID int64) {
	var req savedFilterRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, r, core.ErrEmptyName)
		return
	}
	filter := &core.SavedFilter{
		UserID:  userID,
		Name:    req.Name,
		Type:    req.Type,
		Filters: req.Filters,
	}
	if err := s.deps.Repo.CreateSavedFilter(r.Context(), filter); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, savedFilterJSON{
		ID: filter.ID, Name: filter.Name, Type: filter.Type, Filters: filter.Filters,
	})
}

func (s *Server) handleListSavedFilters(w http.ResponseWriter, r *http.Request, userID int64) {
	filters, err := s.deps.Repo.ListSavedFilters(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]savedFilterJSON, len(filters))
	for i, f := range filters {
		out[i] = savedFilterJSON{ID: f.ID, Name: f.Name, Type: f.Type, Filters: f.Filters}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteSavedFilter(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.deps.Repo.DeleteSavedFilter(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
