package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"expensed/internal/core"
	"expensed/internal/events"
)

const summaryCacheKey = "summary-by-category"

// expenseID reads the {id} path segment. A non-integer id is outside
// the id space, so it reads as not found rather than bad request.
func expenseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// afterMutation invalidates memoized aggregations and emits the audit
// event. Publishing is best-effort off the request path; a broker
// failure never fails the request.
func (s *Server) afterMutation(ctx context.Context, action string, id int64) {
	s.summaryCache.Clear()

	if s.publisher == nil {
		return
	}
	event := events.NewExpenseEvent(action, id)
	go func(ctx context.Context) {
		if err := s.publisher.PublishExpenseEvent(ctx, event); err != nil {
			slog.ErrorContext(ctx, "Failed publishing expense event",
				"error", err,
				"action", action,
				"expense_id", id)
		}
	}(context.WithoutCancel(ctx))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	records, err := s.backend.List(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeList(w, http.StatusOK, records)
}

func (s *Server) handleSearchExpenses(w http.ResponseWriter, r *http.Request) {
	query, err := parseSearchQuery(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	records, err := s.backend.List(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeList(w, http.StatusOK, core.Filter(records, query))
}

func (s *Server) handleSummaryByCategory(w http.ResponseWriter, r *http.Request) {
	if rows, ok := s.summaryCache.Get(summaryCacheKey); ok {
		slog.DebugContext(r.Context(), "Summary cache hit")
		writeList(w, http.StatusOK, rows)
		return
	}

	records, err := s.backend.List(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	rows := core.SummaryByCategory(records)
	s.summaryCache.Set(summaryCacheKey, rows)
	writeList(w, http.StatusOK, rows)
}

func (s *Server) handleAverageDaily(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	records, err := s.backend.List(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	summary, err := core.AverageDaily(records, start, end)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeRecord(w, http.StatusOK, summary)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}

	record, err := s.backend.Get(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	writeRecord(w, http.StatusOK, record)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	fields, err := payload.fields()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	record, err := s.backend.Create(r.Context(), fields)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.afterMutation(r.Context(), events.ActionCreated, record.ID)
	writeRecord(w, http.StatusCreated, record)
}

func (s *Server) handleReplaceExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	payload, err := decodePayload(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	fields, err := payload.fields()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	record, err := s.backend.Replace(r.Context(), id, fields)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.afterMutation(r.Context(), events.ActionReplaced, record.ID)
	writeRecord(w, http.StatusOK, record)
}

func (s *Server) handlePatchExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	payload, err := decodePayload(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	patch, err := payload.patch()
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	record, err := s.backend.MergePatch(r.Context(), id, patch)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.afterMutation(r.Context(), events.ActionPatched, record.ID)
	writeRecord(w, http.StatusOK, record)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}

	deleted, err := s.backend.Delete(r.Context(), id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.afterMutation(r.Context(), events.ActionDeleted, deleted.ID)
	writeRecord(w, http.StatusOK, deleted)
}
