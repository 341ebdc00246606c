// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/praise/auth"
	"github.com/danielhkuo/praise/cliparse"
	"github.com/danielhkuo/praise/lifecycle"
	"github.com/danielhkuo/praise/middleware"
	"github.com/danielhkuo/praise/models"
)

type PeriodHandler struct {
	svc *lifecycle.Service
	cfg cliparse.Config
}

func NewPeriodHandler(svc *lifecycle.Service, cfg cliparse.Config) *PeriodHandler {
	return &PeriodHandler{svc: svc, cfg: cfg}
}

// CreatePeriod handles POST /periods
func (h *PeriodHandler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePeriodRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p, err := h.svc.CreatePeriod(r.Context(), req)
	if err != nil {
		writeError(w, err, "Failed to create period")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePeriodResponse{
		PeriodID: p.ID,
		AdminKey: auth.GenerateAdminKey(p.ID, h.cfg.AdminKeySalt),
	})
}

// GetPeriod handles GET /periods/{id}
func (h *PeriodHandler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	periodID := r.PathValue("id")
	if periodID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "period_id is required")
		return
	}

	p, err := h.svc.GetPeriod(r.Context(), periodID)
	if err != nil {
		writeError(w, err, "Failed to load period", "period_id", periodID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, p)
}

// StartQuantification handles POST /periods/{id}/quantify
func (h *PeriodHandler) StartQuantification(w http.ResponseWriter, r *http.Request) {
	periodID := r.PathValue("id")
	if !requireAdmin(w, r, h.cfg, periodID) {
		return
	}

	var req models.StartQuantificationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Quantifiers) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "quantifiers are required")
		return
	}

	summary, err := h.svc.StartQuantification(r.Context(), periodID, req.Quantifiers, req.Seed)
	if err != nil {
		writeError(w, err, "Failed to start quantification", "period_id", periodID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, assignmentResponse(summary))
}

// RedoAssignment handles POST /periods/{id}/assignment/redo
// An empty body reuses the current quantifier pool.
func (h *PeriodHandler) RedoAssignment(w http.ResponseWriter, r *http.Request) {
	periodID := r.PathValue("id")
	if !requireAdmin(w, r, h.cfg, periodID) {
		return
	}

	var req models.StartQuantificationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	summary, err := h.svc.RedoAssignment(r.Context(), periodID, req.Quantifiers, req.Seed)
	if err != nil {
		writeError(w, err, "Failed to redo assignment", "period_id", periodID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, assignmentResponse(summary))
}

func assignmentResponse(s lifecycle.AssignmentSummary) models.StartQuantificationResponse {
	return models.StartQuantificationResponse{
		Status:      s.Status,
		Seed:        s.Seed,
		Assignments: s.Result.ByQuantifier,
	}
}

// ClosePeriod handles POST /periods/{id}/close
func (h *PeriodHandler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	periodID := r.PathValue("id")
	if !requireAdmin(w, r, h.cfg, periodID) {
		return
	}

	resp, err := h.svc.ClosePeriod(r.Context(), periodID)
	if err != nil {
		if statusFor(err) != http.StatusInternalServerError {
			slog.Warn("close rejected", "period_id", periodID, "error", err)
		}
		writeError(w, err, "Failed to close period", "period_id", periodID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetResults handles GET /periods/{id}/results
// Results are sealed until the period closes.
func (h *PeriodHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	periodID := r.PathValue("id")
	if periodID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "period_id is required")
		return
	}

	results, err := h.svc.Results(r.Context(), periodID)
	if err != nil {
		writeError(w, err, "Failed to load results", "period_id", periodID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}
