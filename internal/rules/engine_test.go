package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leolech14/statement-refinery/internal/domain"
)

func TestNewEngine_ValidRules(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Pharmacy chains"
    pattern: "FARMAC"
    match_type: "contains"
    priority: 570
    category: "FARMÁCIA"
`
	engine, err := NewEngine([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	if len(engine.rules) != 1 {
		t.Fatalf("NewEngine() rules count = %d, want 1", len(engine.rules))
	}
	rule := engine.rules[0]
	if rule.Name != "Pharmacy chains" {
		t.Errorf("rule.Name = %s, want Pharmacy chains", rule.Name)
	}
	if rule.Priority != 570 {
		t.Errorf("rule.Priority = %d, want 570", rule.Priority)
	}
	if rule.Category != string(domain.CategoryPharmacy) {
		t.Errorf("rule.Category = %s, want %s", rule.Category, domain.CategoryPharmacy)
	}
}

func TestNewEngine_InvalidCategory(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Invalid Category"
    pattern: "TEST"
    match_type: "contains"
    priority: 100
    category: "groceries"
`
	if _, err := NewEngine([]byte(rulesYAML)); err == nil {
		t.Error("NewEngine() expected error for invalid category")
	}
}

func TestNewEngine_InvalidPriority(t *testing.T) {
	tests := []struct {
		name     string
		priority string
	}{
		{"negative priority", "-1"},
		{"priority too high", "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rulesYAML := `
rules:
  - name: "Invalid Priority"
    pattern: "TEST"
    match_type: "contains"
    priority: ` + tt.priority + `
    category: "DIVERSOS"
`
			if _, err := NewEngine([]byte(rulesYAML)); err == nil {
				t.Error("NewEngine() expected error for out-of-range priority")
			}
		})
	}
}

func TestNewEngine_InvalidMatchType(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Bad Match Type"
    pattern: "TEST"
    match_type: "regex"
    priority: 100
    category: "DIVERSOS"
`
	if _, err := NewEngine([]byte(rulesYAML)); err == nil {
		t.Error("NewEngine() expected error for invalid match_type")
	}
}

func TestNewEngine_EmptyPattern(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Empty Pattern"
    pattern: "   "
    match_type: "contains"
    priority: 100
    category: "DIVERSOS"
`
	if _, err := NewEngine([]byte(rulesYAML)); err == nil {
		t.Error("NewEngine() expected error for blank pattern")
	}
}

func TestMatch_PriorityOrder(t *testing.T) {
	rulesYAML := `
rules:
  - name: "Generic stores"
    pattern: "LOJA"
    match_type: "contains"
    priority: 100
    category: "VESTUÁRIO"
  - name: "Pharmacy wins over store"
    pattern: "FARMAC"
    match_type: "contains"
    priority: 570
    category: "FARMÁCIA"
`
	engine, err := NewEngine([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	result, ok := engine.Match("LOJA FARMACIA CENTRAL")
	if !ok {
		t.Fatal("Match() = false, want match")
	}
	if result.Category != domain.CategoryPharmacy {
		t.Errorf("Match() category = %s, want %s (higher priority)", result.Category, domain.CategoryPharmacy)
	}
	if result.RuleName != "Pharmacy wins over store" {
		t.Errorf("Match() rule = %s", result.RuleName)
	}
}

func TestMatch_EqualPriorityKeepsFileOrder(t *testing.T) {
	rulesYAML := `
rules:
  - name: "First"
    pattern: "UBER"
    match_type: "contains"
    priority: 540
    category: "TRANSPORTE"
  - name: "Second"
    pattern: "UBER"
    match_type: "contains"
    priority: 540
    category: "DIVERSOS"
`
	engine, err := NewEngine([]byte(rulesYAML))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	result, ok := engine.Match("UBER TRIP SAO PAULO")
	if !ok {
		t.Fatal("Match() = false, want match")
	}
	if result.RuleName != "First" {
		t.Errorf("Match() rule = %s, want First (stable order)", result.RuleName)
	}
}

func TestMatch_AccentFolding(t *testing.T) {
	engine, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	tests := []struct {
		desc string
		want domain.Category
	}{
		{"FARMÁCIA POPULAR", domain.CategoryPharmacy},
		{"farmacia sao joao", domain.CategoryPharmacy},
		{"SUPERMERCADO ZAFFARI", domain.CategorySupermarket},
		{"POSTO IPIRANGA LTDA", domain.CategoryFuel},
		{"UBER TRIP", domain.CategoryTransport},
		{"ESTORNO COMPRA", domain.CategoryAdjustment},
		{"SumUp *BOTISRL", domain.CategoryFX},
		{"OPENAI CHATGPT SUBSCR", domain.CategoryFX},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result, ok := engine.Match(tt.desc)
			if !ok {
				t.Fatalf("Match(%q) = false, want match", tt.desc)
			}
			if result.Category != tt.want {
				t.Errorf("Match(%q) = %s, want %s", tt.desc, result.Category, tt.want)
			}
		})
	}
}

func TestMatch_NoMatch(t *testing.T) {
	engine, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	if _, ok := engine.Match("XYZZY QWERTY 42"); ok {
		t.Error("Match() = true for gibberish, want false")
	}
}

func TestLoadEmbedded_AllCategoriesValid(t *testing.T) {
	engine, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	for _, rule := range engine.GetRules() {
		if !domain.ValidateCategory(domain.Category(rule.Category)) {
			t.Errorf("embedded rule %q has invalid category %q", rule.Name, rule.Category)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	rulesYAML := `
rules:
  - name: "Custom"
    pattern: "PADARIA"
    match_type: "contains"
    priority: 400
    category: "ALIMENTAÇÃO"
`
	if err := os.WriteFile(path, []byte(rulesYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	engine, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	result, ok := engine.Match("PADARIA DO BAIRRO")
	if !ok || result.Category != domain.CategoryFood {
		t.Errorf("Match() = %v, %v, want ALIMENTAÇÃO match", result, ok)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFromFile() expected error for missing file")
	}
}

func TestGetRules_Copy(t *testing.T) {
	engine, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error = %v", err)
	}

	rules := engine.GetRules()
	if len(rules) == 0 {
		t.Fatal("GetRules() returned no rules")
	}
	rules[0].Category = "tampered"

	fresh := engine.GetRules()
	if fresh[0].Category == "tampered" {
		t.Error("GetRules() does not copy; engine state was mutated")
	}
}
