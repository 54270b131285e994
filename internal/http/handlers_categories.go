package http

import (
	"net/http"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, userID int64) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}

	category := &core.Category{
		UserID: &userID,
		Name:   req.Name,
		Type:   core.CategoryType(req.Type),
		Color:  req.Color,
	}
	if err := category.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Repo.CreateCategory(r.Context(), category); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCategoryJSON(category))
}

// handleListCategories returns the globals plus the caller's own categories.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, userID int64) {
	categories, err := s.deps.Repo.ListCategories(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCategoriesJSON(categories))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		badRequest(w, err.Error())
		return
	}

	category, err := s.deps.Repo.GetCategory(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.Name != "" {
		category.Name = req.Name
	}
	if req.Color != "" {
		category.Color = req.Color
	}
	if err := category.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.deps.Repo.UpdateCategory(r.Context(), category); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCategoryJSON(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.deps.Repo.DeactivateCategory(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
