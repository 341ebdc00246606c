// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package settings

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/praise/models"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type document struct {
	Settings []models.Setting `yaml:"settings"`
}

// Defaults returns the built-in global settings.
func Defaults() ([]models.Setting, error) {
	return Parse(defaultsYAML)
}

// Parse decodes a settings document and validates every row.
func Parse(data []byte) ([]models.Setting, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	for _, s := range doc.Settings {
		if s.Key == "" {
			return nil, fmt.Errorf("%w: setting without key", ErrInvalidSettingType)
		}
		if err := Validate(s); err != nil {
			return nil, err
		}
	}
	return doc.Settings, nil
}

// ReadFile parses the settings document at path.
func ReadFile(path string) ([]models.Setting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return Parse(data)
}
