package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"expensed/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.backend.ListCategories(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeList(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name := strings.TrimSpace(payload.Name)
	if errs := core.ValidateCategoryName(name); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	cat, err := s.backend.CreateCategory(r.Context(), name)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeRecord(w, http.StatusCreated, cat)
}
