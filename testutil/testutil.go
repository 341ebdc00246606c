// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/praise/auth"
	"github.com/danielhkuo/praise/cliparse"
	"github.com/danielhkuo/praise/db"
	"github.com/danielhkuo/praise/models"
	"github.com/danielhkuo/praise/settings"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema
// and the default global settings. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "=", "_").Replace(t.Name())
	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// A shared in-memory database lives as long as one connection does
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	defaults, err := settings.Defaults()
	if err != nil {
		t.Fatalf("Failed to load default settings: %v", err)
	}
	if err := db.NewStore(conn).SeedSettings(context.Background(), defaults, false); err != nil {
		t.Fatalf("Failed to seed settings: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "file::memory:",
		DatabaseType: "sqlite",
		AdminKeySalt: "test-admin-salt",
		CloseRetries: 3,
	}
}

// SetSetting writes a global setting row directly.
func SetSetting(t *testing.T, conn *sql.DB, key, value, typ string) {
	t.Helper()
	err := db.NewStore(conn).SeedSettings(context.Background(), []models.Setting{{Key: key, Value: value, Type: typ}}, true)
	if err != nil {
		t.Fatalf("Failed to set setting %s: %v", key, err)
	}
}

// CreateTestPeriod creates a period in the database and returns its ID and admin key
// status should be "open", "quantify", or "closed"
func CreateTestPeriod(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string) (periodID, adminKey string) {
	t.Helper()

	periodID = auth.NewID()
	adminKey = auth.GenerateAdminKey(periodID, cfg.AdminKeySalt)

	var closedAt *time.Time
	if status == models.StatusClosed {
		now := time.Now()
		closedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO period (id, name, status, closed_at, created_at)
		VALUES ($1, 'Test Period', $2, $3, $4)
	`, periodID, status, closedAt, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test period: %v", err)
	}

	return periodID, adminKey
}

// AddTestPraise adds a praise item to a period and returns its ID
func AddTestPraise(t *testing.T, conn *sql.DB, periodID, giver, receiver string) string {
	t.Helper()

	praiseID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO praise (id, period_id, giver_id, receiver_id, reason, created_at)
		VALUES ($1, $2, $3, $4, 'Test praise', $5)
	`, praiseID, periodID, giver, receiver, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test praise: %v", err)
	}

	return praiseID
}

// AssignTestQuantifier adds a pending quantification row and pool membership
func AssignTestQuantifier(t *testing.T, conn *sql.DB, periodID, praiseID, quantifierID string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO period_quantifier (period_id, quantifier_id) VALUES ($1, $2)
		ON CONFLICT (period_id, quantifier_id) DO NOTHING
	`, periodID, quantifierID)
	if err != nil {
		t.Fatalf("Failed to add quantifier: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO quantification (praise_id, quantifier_id, kind, updated_at)
		VALUES ($1, $2, 'pending', $3)
	`, praiseID, quantifierID, time.Now())
	if err != nil {
		t.Fatalf("Failed to assign quantifier: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
