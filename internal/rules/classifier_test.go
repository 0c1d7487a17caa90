package rules

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/leolech14/statement-refinery/internal/domain"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	engine, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}
	return NewClassifier(engine)
}

func TestClassify_AdjustmentBand(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name   string
		amount string
		want   domain.Category
	}{
		{"at threshold", "0.30", domain.CategoryAdjustment},
		{"negative at threshold", "-0.30", domain.CategoryAdjustment},
		{"just above", "0.31", domain.CategorySupermarket},
		{"well above", "88.50", domain.CategorySupermarket},
		{"zero is not adjustment", "0.00", domain.CategorySupermarket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify("SUPERMERCADO ZAFFARI", decimal.RequireFromString(tt.amount))
			if got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.amount, got, tt.want)
			}
		})
	}
}

func TestClassify_AmountBandBeatsRules(t *testing.T) {
	c := newTestClassifier(t)

	// Even a description with a strong payment signal stays an adjustment
	// inside the micro-amount band.
	got := c.Classify("PAGAMENTO 7117", decimal.RequireFromString("0.05"))
	if got != domain.CategoryAdjustment {
		t.Errorf("Classify() = %s, want %s", got, domain.CategoryAdjustment)
	}
}

func TestClassify_FallbackAndMissHook(t *testing.T) {
	c := newTestClassifier(t)

	var missed []string
	c.MissHook = func(desc string) { missed = append(missed, desc) }

	got := c.Classify("XYZZY QWERTY 42", decimal.RequireFromString("99.00"))
	if got != domain.CategoryMisc {
		t.Errorf("Classify() = %s, want %s", got, domain.CategoryMisc)
	}
	if len(missed) != 1 || missed[0] != "XYZZY QWERTY 42" {
		t.Errorf("MissHook calls = %v, want the missed description once", missed)
	}

	// Matched descriptions never trigger the hook.
	c.Classify("UBER TRIP", decimal.RequireFromString("34.90"))
	if len(missed) != 1 {
		t.Errorf("MissHook fired for a matched description")
	}
}
