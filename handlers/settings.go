// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/praise/auth"
	"github.com/danielhkuo/praise/cliparse"
	"github.com/danielhkuo/praise/lifecycle"
	"github.com/danielhkuo/praise/middleware"
	"github.com/danielhkuo/praise/models"
)

type SettingsHandler struct {
	svc *lifecycle.Service
	cfg cliparse.Config
}

func NewSettingsHandler(svc *lifecycle.Service, cfg cliparse.Config) *SettingsHandler {
	return &SettingsHandler{svc: svc, cfg: cfg}
}

// ListSettings handles GET /settings
// With ?period_id= the period's overrides are included.
func (h *SettingsHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	periodID := r.URL.Query().Get("period_id")

	rows, err := h.svc.ListSettings(r.Context(), periodID)
	if err != nil {
		writeError(w, err, "Failed to list settings", "period_id", periodID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, rows)
}

// PutGlobalSetting handles PUT /settings/{key}
func (h *SettingsHandler) PutGlobalSetting(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r, h.cfg, auth.GlobalScope) {
		return
	}

	setting, ok := parseSetting(w, r)
	if !ok {
		return
	}

	if err := h.svc.SetGlobalSetting(r.Context(), setting); err != nil {
		writeError(w, err, "Failed to update setting", "key", setting.Key)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, setting)
}

// PutPeriodSetting handles PUT /periods/{id}/settings/{key}
// Overrides are only accepted while the period is open.
func (h *SettingsHandler) PutPeriodSetting(w http.ResponseWriter, r *http.Request) {
	periodID := r.PathValue("id")
	if !requireAdmin(w, r, h.cfg, periodID) {
		return
	}

	setting, ok := parseSetting(w, r)
	if !ok {
		return
	}

	if err := h.svc.SetPeriodSetting(r.Context(), periodID, setting); err != nil {
		writeError(w, err, "Failed to update setting", "period_id", periodID, "key", setting.Key)
		return
	}

	setting.PeriodID = periodID
	middleware.JSONResponse(w, http.StatusOK, setting)
}

func parseSetting(w http.ResponseWriter, r *http.Request) (models.Setting, bool) {
	var req models.PutSettingRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return models.Setting{}, false
	}
	return models.Setting{Key: r.PathValue("key"), Value: req.Value, Type: req.Type}, true
}
