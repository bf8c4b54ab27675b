// Package valuation estimates the fee value of a case from its practice area
// and probability tier. Base fees ship as built-in defaults and can be
// replaced per deployment through a YAML override file.
package valuation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Probability tiers recognized on intake.
const (
	TierLow    = "low"
	TierMedium = "medium"
	TierHigh   = "high"
)

var defaultBaseFees = map[string]float64{
	"familia":    3000,
	"consumidor": 2000,
	"bancario":   3500,
	"saude":      4000,
	"aereo":      2500,
}

const defaultFee = 2000

// tier multipliers applied on top of the area base fee
var tierMultipliers = map[string]float64{
	TierLow:    0.7,
	TierMedium: 1.0,
	TierHigh:   1.3,
}

// Table maps practice areas to base fee values.
type Table struct {
	fees map[string]float64
}

type tableFile struct {
	BaseFees map[string]float64 `yaml:"base_fees"`
}

// NewTable returns the built-in fee table.
func NewTable() *Table {
	fees := make(map[string]float64, len(defaultBaseFees))
	for area, fee := range defaultBaseFees {
		fees[area] = fee
	}
	return &Table{fees: fees}
}

// LoadTable reads a YAML fee table from path. Areas present in the file
// override the defaults; absent areas keep their built-in value. An empty
// path returns the defaults unchanged.
func LoadTable(path string) (*Table, error) {
	table := NewTable()
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fee table: %w", err)
	}

	var file tableFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse fee table: %w", err)
	}

	for area, fee := range file.BaseFees {
		if fee < 0 {
			return nil, fmt.Errorf("fee table: negative fee for area %q", area)
		}
		table.fees[strings.ToLower(strings.TrimSpace(area))] = fee
	}

	return table, nil
}

// Estimate returns the estimated fee for an area and probability tier.
// Unknown areas fall back to a conservative default; unknown tiers are
// treated as medium.
func (t *Table) Estimate(area, tier string) float64 {
	base, ok := t.fees[strings.ToLower(strings.TrimSpace(area))]
	if !ok {
		base = defaultFee
	}

	mult, ok := tierMultipliers[tier]
	if !ok {
		mult = tierMultipliers[TierMedium]
	}

	return base * mult
}

// ValidTier reports whether tier is one of the recognized probability tiers.
func ValidTier(tier string) bool {
	_, ok := tierMultipliers[tier]
	return ok
}
