package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/plt-aachen/mensabot/internal/logging"
)

// GlobalDefaultsKey is the overrides entry applied to all canteens.
const GlobalDefaultsKey = "default"

// Built-in menu settings used when no overrides file is configured.
// The excluded categories are the permanent self-service counters that
// never change and would only pad the table.
var builtinDefaults = CanteenOverride{
	ExcludedCategories:    []string{"Pizza Classics", "Burger Classics", "Fingerfood", "Ofenkartoffel"},
	MainSideCategory:      "Hauptbeilagen",
	SecondarySideCategory: "Nebenbeilage",
}

// CanteenOverride holds per-canteen menu settings. Zero-valued fields
// inherit from the default entry (and ultimately from the built-ins).
type CanteenOverride struct {
	// ExcludedCategories are menu categories left out of the posted table.
	ExcludedCategories []string `yaml:"excludedCategories,omitempty"`

	// MainSideCategory is the side-dish category listed first in the
	// "Dazu:" footer.
	MainSideCategory string `yaml:"mainSideCategory,omitempty"`

	// SecondarySideCategory is the side-dish category listed second.
	SecondarySideCategory string `yaml:"secondarySideCategory,omitempty"`
}

// Validate checks for invalid override values.
func (o *CanteenOverride) Validate() error {
	for _, cat := range o.ExcludedCategories {
		if cat == "" {
			return fmt.Errorf("excludedCategories must not contain empty entries")
		}
	}
	return nil
}

// CanteenOverrideData maps canteen IDs (or GlobalDefaultsKey) to their
// overrides.
type CanteenOverrideData map[string]CanteenOverride

// LoadOverridesFile reads a YAML overrides file. An empty path yields
// only the built-in defaults.
func LoadOverridesFile(path string) (CanteenOverrideData, error) {
	if path == "" {
		return make(CanteenOverrideData), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading overrides file %s: %w", path, err)
	}
	return ParseOverrides(raw)
}

// ParseOverrides parses the overrides document. The document is a map of
// canteen ID (or "default") to override entry. Invalid entries are
// skipped with a log so one bad entry cannot take the bot down.
func ParseOverrides(raw []byte) (CanteenOverrideData, error) {
	var entries map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing overrides: %w", err)
	}

	out := make(CanteenOverrideData)
	for key, node := range entries {
		var override CanteenOverride
		if err := node.Decode(&override); err != nil {
			logging.Log.Info("Failed to parse canteen override entry, skipping",
				"key", key,
				"error", err.Error())
			continue
		}
		if err := override.Validate(); err != nil {
			logging.Log.Info("Invalid canteen override entry, skipping",
				"key", key,
				"error", err.Error())
			continue
		}
		out[key] = override
	}

	logging.Log.V(logging.DEBUG).Info("Parsed canteen overrides", "entryCount", len(out))
	return out, nil
}

// ForCanteen returns the effective settings for a canteen: the built-ins,
// overlaid with the default entry, overlaid with the canteen's own entry.
func (data CanteenOverrideData) ForCanteen(canteenID string) CanteenOverride {
	result := builtinDefaults

	for _, key := range []string{GlobalDefaultsKey, canteenID} {
		override, ok := data[key]
		if !ok {
			continue
		}
		if override.ExcludedCategories != nil {
			result.ExcludedCategories = override.ExcludedCategories
		}
		if override.MainSideCategory != "" {
			result.MainSideCategory = override.MainSideCategory
		}
		if override.SecondarySideCategory != "" {
			result.SecondarySideCategory = override.SecondarySideCategory
		}
	}

	return result
}
