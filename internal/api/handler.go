// Package api exposes the journal over a loopback HTTP API. All handlers
// speak JSON; errors use a typed envelope so clients can branch on the
// error type rather than parse messages.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/shizuku/internal/analysis"
	"github.com/kalambet/shizuku/internal/chat"
	"github.com/kalambet/shizuku/internal/insights"
	"github.com/kalambet/shizuku/internal/journal"
	"github.com/kalambet/shizuku/internal/profile"
	"github.com/kalambet/shizuku/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps carries everything the HTTP handlers need.
type Deps struct {
	Store    *storage.Store
	Journal  *journal.Service
	Profile  *profile.Manager
	Runner   *analysis.Runner
	Reporter *analysis.Reporter
	Chat     *chat.Service
	Token    string
}

// NewHandler builds the full route tree behind bearer auth.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(BearerAuth(deps.Token))

	r.Get("/health", handleHealth)

	r.Post("/entries", handleCreateEntry(deps))
	r.Get("/entries", handleListEntries(deps))
	r.Get("/entries/{id}", handleGetEntry(deps))
	r.Delete("/entries/{id}", handleDeleteEntry(deps))
	r.Post("/entries/{id}/report", handleEntryReport(deps))

	r.Get("/calendar", handleCalendar(deps))
	r.Get("/trend", handleTrend(deps))

	r.Post("/analysis", handleRunAnalysis(deps))
	r.Get("/analysis", handleAnalysisStatus(deps))
	r.Post("/analysis/report", handleDetailedReport(deps))

	r.Get("/profile", handleGetProfile(deps))
	r.Patch("/profile", handlePatchProfile(deps))

	r.Post("/chat", handleChat(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleCreateEntry(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req journal.NewEntryInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		entry, err := deps.Journal.Create(req)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(entry)
	}
}

func handleListEntries(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		entries, err := deps.Journal.List(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "persistence_failure", "failed to list entries: %v", err)
			return
		}
		if entries == nil {
			entries = []storage.Entry{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}

func handleGetEntry(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		entry, err := deps.Journal.Get(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "entry not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "persistence_failure", "failed to get entry: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entry)
	}
}

func handleDeleteEntry(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Journal.Delete(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "entry not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "persistence_failure", "failed to delete entry: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

// handleEntryReport summarizes a conversation and attaches the report to
// the entry.
func handleEntryReport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			History []chat.Message `json:"history"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(req.History) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "history is required and must not be empty")
			return
		}

		if _, err := deps.Journal.Get(id); errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "entry not found")
			return
		} else if err != nil {
			httpError(w, http.StatusInternalServerError, "persistence_failure", "failed to get entry: %v", err)
			return
		}

		report := deps.Chat.Report(r.Context(), req.History)
		if err := deps.Journal.AttachChatReport(id, report); err != nil {
			httpError(w, http.StatusInternalServerError, "persistence_failure", "failed to save report: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"report": report})
	}
}

func handleCalendar(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		year := parseIntParam(r, "year", now.Year(), 0)
		month := parseIntParam(r, "month", int(now.Month()), 12)
		if month < 1 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "month must be between 1 and 12")
			return
		}

		entries, err := deps.Journal.List(0, 0)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "persistence_failure", "failed to list entries: %v", err)
			return
		}

		cells := insights.MonthGrid(entries, year, time.Month(month), now)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"year":  year,
			"month": month,
			"cells": cells,
		})
	}
}

func handleTrend(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := deps.Journal.List(0, 0)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "persistence_failure", "failed to list entries: %v", err)
			return
		}

		trend := insights.ComputeTrend(entries, time.Now())

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(trend)
	}
}

func handleRunAnalysis(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := deps.Runner.Run(r.Context())
		var provErr *analysis.ErrProvider
		if errors.As(err, &provErr) {
			httpError(w, http.StatusBadGateway, "provider_failure", "%v", provErr)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "persistence_failure", "analysis failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func handleAnalysisStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := deps.Runner.Status()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "persistence_failure", "failed to load analysis status: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}

func handleDetailedReport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			Type analysis.ReportType `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if !analysis.ValidReportType(req.Type) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown report type %q", req.Type)
			return
		}

		status, err := deps.Runner.Status()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "persistence_failure", "failed to load analysis status: %v", err)
			return
		}
		if status.State != analysis.StateSucceeded || status.Result == nil {
			httpError(w, http.StatusConflict, "insufficient_data", "run analysis before requesting a detailed report")
			return
		}

		entries, err := deps.Journal.List(30, 0)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "persistence_failure", "failed to list entries: %v", err)
			return
		}

		report := deps.Reporter.Report(r.Context(), req.Type, *status.Result, analysis.SummaryLines(entries, 30))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"type": string(req.Type), "report": report})
	}
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Profile.GetProfile()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "persistence_failure", "failed to get profile: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}
}

func handlePatchProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var fields map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		for key, value := range fields {
			if err := deps.Profile.SetField(key, value); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "failed to set field %q: %v", key, err)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
	}
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			History []chat.Message `json:"history"`
			Message string         `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		reply := deps.Chat.Send(r.Context(), req.History, req.Message)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"reply": reply})
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
