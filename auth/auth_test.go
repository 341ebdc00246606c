// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewID(t *testing.T) {
	id := NewID()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("NewID() = %q, not a uuid: %v", id, err)
	}

	// Test randomness - two IDs should be different
	if NewID() == NewID() {
		t.Error("NewID() produced duplicate IDs (extremely unlikely)")
	}
}

func TestGenerateAdminKey(t *testing.T) {
	tests := []struct {
		name  string
		scope string
		salt  string
	}{
		{"standard", "period123", "secret-salt"},
		{"global scope", GlobalScope, "salt"},
		{"empty scope", "", "salt"},
		{"empty salt", "period456", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := GenerateAdminKey(tt.scope, tt.salt)

			// Should not be empty
			if key == "" {
				t.Error("GenerateAdminKey() returned empty string")
			}

			// Should be deterministic
			key2 := GenerateAdminKey(tt.scope, tt.salt)
			if key != key2 {
				t.Error("GenerateAdminKey() is not deterministic")
			}

			// Different inputs should produce different keys
			if tt.scope != "" && tt.salt != "" {
				differentKey := GenerateAdminKey(tt.scope+"x", tt.salt)
				if key == differentKey {
					t.Error("GenerateAdminKey() produced same key for different scopes")
				}
			}

			// Should be URL-safe (no padding)
			if strings.Contains(key, "=") {
				t.Error("GenerateAdminKey() contains padding characters")
			}
		})
	}
}

func TestValidateAdminKey(t *testing.T) {
	periodID := "test-period-123"
	salt := "test-salt"
	validKey := GenerateAdminKey(periodID, salt)

	tests := []struct {
		name     string
		scope    string
		adminKey string
		salt     string
		wantErr  bool
	}{
		{"valid key", periodID, validKey, salt, false},
		{"wrong key", periodID, "wrong-key", salt, true},
		{"wrong period id", "different-period", validKey, salt, true},
		{"global key on period", GlobalScope, validKey, salt, true},
		{"wrong salt", periodID, validKey, "different-salt", true},
		{"empty key", periodID, "", salt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.scope, tt.adminKey, tt.salt)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidAdminKey {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, ErrInvalidAdminKey)
			}
		})
	}
}
