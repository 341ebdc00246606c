// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/praise/assignment"
	"github.com/danielhkuo/praise/auth"
	"github.com/danielhkuo/praise/cliparse"
	"github.com/danielhkuo/praise/duplicates"
	"github.com/danielhkuo/praise/lifecycle"
	"github.com/danielhkuo/praise/middleware"
	"github.com/danielhkuo/praise/models"
	"github.com/danielhkuo/praise/scoring"
	"github.com/danielhkuo/praise/settings"
)

var statusByErr = []struct {
	err    error
	status int
}{
	{lifecycle.ErrPeriodLockConflict, http.StatusServiceUnavailable},
	{lifecycle.ErrResultsSealed, http.StatusForbidden},

	// Validation
	{models.ErrEmptyJudgment, http.StatusBadRequest},
	{models.ErrAmbiguousJudgment, http.StatusBadRequest},
	{lifecycle.ErrInvalidPeriod, http.StatusBadRequest},
	{lifecycle.ErrInvalidPraise, http.StatusBadRequest},
	{lifecycle.ErrInvalidScore, http.StatusBadRequest},
	{lifecycle.ErrSelfQuantification, http.StatusBadRequest},
	{lifecycle.ErrNotAssigned, http.StatusBadRequest},
	{lifecycle.ErrInvalidDuplicate, http.StatusBadRequest},
	{settings.ErrInvalidSetting, http.StatusBadRequest},
	{settings.ErrInvalidSettingType, http.StatusBadRequest},
	{assignment.ErrInvalidPerItem, http.StatusBadRequest},

	// Missing records
	{lifecycle.ErrPeriodNotFound, http.StatusNotFound},
	{lifecycle.ErrPraiseNotFound, http.StatusNotFound},

	// State and consistency
	{lifecycle.ErrPeriodNotOpen, http.StatusConflict},
	{lifecycle.ErrInvalidTransition, http.StatusConflict},
	{lifecycle.ErrAssignmentAlreadyExists, http.StatusConflict},
	{lifecycle.ErrPeriodNotOpenForQuantification, http.StatusConflict},
	{lifecycle.ErrVersionConflict, http.StatusConflict},
	{assignment.ErrInsufficientQuantifiers, http.StatusConflict},
	{duplicates.ErrAmbiguousDuplicateStatus, http.StatusConflict},
	{scoring.ErrRootNotScored, http.StatusConflict},
	{settings.ErrSettingNotFound, http.StatusConflict},
}

// statusFor maps a service error onto an HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	for _, e := range statusByErr {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeError translates err into a JSON error response. Internal errors are
// logged and not echoed to the client.
func writeError(w http.ResponseWriter, err error, msg string, args ...any) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(msg, append(args, "error", err)...)
		middleware.ErrorResponse(w, status, msg)
		return
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	middleware.ErrorResponse(w, status, err.Error())
}

// requireAdmin checks the X-Admin-Key header against scope
func requireAdmin(w http.ResponseWriter, r *http.Request, cfg cliparse.Config, scope string) bool {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(scope, adminKey, cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return false
	}
	return true
}

// quantifierID reads the X-Quantifier-ID header
func quantifierID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get("X-Quantifier-ID")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Quantifier-ID header required")
		return "", false
	}
	return id, true
}
