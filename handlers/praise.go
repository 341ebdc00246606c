// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/praise/cliparse"
	"github.com/danielhkuo/praise/lifecycle"
	"github.com/danielhkuo/praise/middleware"
	"github.com/danielhkuo/praise/models"
)

type PraiseHandler struct {
	svc *lifecycle.Service
	cfg cliparse.Config
}

func NewPraiseHandler(svc *lifecycle.Service, cfg cliparse.Config) *PraiseHandler {
	return &PraiseHandler{svc: svc, cfg: cfg}
}

// CreatePraise handles POST /periods/{id}/praise
func (h *PraiseHandler) CreatePraise(w http.ResponseWriter, r *http.Request) {
	periodID := r.PathValue("id")
	if periodID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "period_id is required")
		return
	}

	var req models.CreatePraiseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	item, err := h.svc.CreatePraise(r.Context(), periodID, req)
	if err != nil {
		writeError(w, err, "Failed to create praise", "period_id", periodID)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePraiseResponse{PraiseID: item.ID})
}

// ListPraise handles GET /periods/{id}/praise
// Quantifications are hidden until the period closes.
func (h *PraiseHandler) ListPraise(w http.ResponseWriter, r *http.Request) {
	periodID := r.PathValue("id")

	items, err := h.svc.ListPraise(r.Context(), periodID)
	if err != nil {
		writeError(w, err, "Failed to list praise", "period_id", periodID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, items)
}

// GetAssignments handles GET /periods/{id}/quantifiers/{qid}/assignments
func (h *PraiseHandler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	periodID := r.PathValue("id")
	qid := r.PathValue("qid")
	if qid == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "quantifier id is required")
		return
	}

	items, err := h.svc.Assignments(r.Context(), periodID, qid)
	if err != nil {
		writeError(w, err, "Failed to load assignments", "period_id", periodID, "quantifier_id", qid)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, items)
}

// SubmitQuantification handles POST /praise/{id}/quantifications
// The quantifier is identified by the X-Quantifier-ID header. Resubmitting
// replaces the earlier judgment.
func (h *PraiseHandler) SubmitQuantification(w http.ResponseWriter, r *http.Request) {
	praiseID := r.PathValue("id")
	if praiseID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "praise_id is required")
		return
	}
	qid, ok := quantifierID(w, r)
	if !ok {
		return
	}

	var req models.SubmitQuantificationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	j, err := models.JudgmentFromRequest(req)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	q, err := h.svc.SubmitQuantification(r.Context(), praiseID, qid, j)
	if err != nil {
		writeError(w, err, "Failed to submit quantification", "praise_id", praiseID, "quantifier_id", qid)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SubmitQuantificationResponse{
		PraiseID:     q.PraiseID,
		QuantifierID: q.QuantifierID,
		Kind:         q.Kind,
	})
}
