package valuation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEstimate(t *testing.T) {
	table := NewTable()

	tests := []struct {
		name string
		area string
		tier string
		want float64
	}{
		{name: "familia medium", area: "familia", tier: TierMedium, want: 3000},
		{name: "consumidor high", area: "consumidor", tier: TierHigh, want: 2600},
		{name: "bancario low", area: "bancario", tier: TierLow, want: 2450},
		{name: "saude medium", area: "saude", tier: TierMedium, want: 4000},
		{name: "aereo high", area: "aereo", tier: TierHigh, want: 3250},
		{name: "unknown area uses default fee", area: "tributario", tier: TierMedium, want: 2000},
		{name: "unknown tier treated as medium", area: "familia", tier: "certain", want: 3000},
		{name: "area is case insensitive", area: "  Familia ", tier: TierMedium, want: 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Estimate(tt.area, tt.tier)
			if got != tt.want {
				t.Errorf("Estimate(%q, %q) = %v, want %v", tt.area, tt.tier, got, tt.want)
			}
		})
	}
}

func TestLoadTableOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fees.yaml")
	content := "base_fees:\n  familia: 5000\n  trabalhista: 1500\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	if got := table.Estimate("familia", TierMedium); got != 5000 {
		t.Errorf("overridden familia = %v, want 5000", got)
	}
	if got := table.Estimate("trabalhista", TierMedium); got != 1500 {
		t.Errorf("new area trabalhista = %v, want 1500", got)
	}
	if got := table.Estimate("saude", TierMedium); got != 4000 {
		t.Errorf("untouched saude = %v, want 4000 from defaults", got)
	}
}

func TestLoadTableErrors(t *testing.T) {
	if _, err := LoadTable("/nonexistent/fees.yaml"); err == nil {
		t.Error("expected error for missing file")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("base_fees:\n  familia: -10\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTable(path); err == nil {
		t.Error("expected error for negative fee")
	}
}

func TestValidTier(t *testing.T) {
	for _, tier := range []string{TierLow, TierMedium, TierHigh} {
		if !ValidTier(tier) {
			t.Errorf("ValidTier(%q) = false, want true", tier)
		}
	}
	if ValidTier("guaranteed") {
		t.Error("ValidTier(\"guaranteed\") = true, want false")
	}
}
