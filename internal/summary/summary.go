// Package summary extracts the statement's own printed totals. These figures
// are the bank's ground truth; reconciliation compares the parsed rows
// against them, so this package never looks at transaction lines.
package summary

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/leolech14/statement-refinery/internal/domain"
	"github.com/leolech14/statement-refinery/internal/money"
	"github.com/leolech14/statement-refinery/internal/transform"
)

// field identifies a slot in StatementTotals so that two labels feeding the
// same slot (the bank renamed "TOTAL A PAGAR" between layouts) cannot
// overwrite each other.
type field int

const (
	fieldTotalDue field = iota
	fieldDomestic
	fieldForeign
	fieldPayments
	fieldCredits
	fieldFees
)

// label pairs a printed summary label with the totals slot it fills. Labels
// are matched accent-folded, so "CRÉDITOS" and "CREDITOS" are the same.
type label struct {
	key   string
	field field
}

var labels = []label{
	{"TOTAL A PAGAR", fieldTotalDue},
	{"TOTAL DESTA FATURA", fieldTotalDue},
	{"COMPRAS NACIONAIS", fieldDomestic},
	{"COMPRAS INTERNACIONAIS", fieldForeign},
	{"PAGAMENTOS EFETUADOS", fieldPayments},
	{"CREDITOS / AJUSTES", fieldCredits},
	{"JUROS E ENCARGOS", fieldFees},
}

var reTrailingAmount = regexp.MustCompile(`(-?\s*\d{1,3}(?:\.\d{3})*,\d{2})\s*$`)

// Extract scans the statement lines for printed summary figures. Only the
// first figure per slot is kept; later repeats come from the "next bill"
// projection section and would overwrite real figures.
func Extract(lines []string) domain.StatementTotals {
	var totals domain.StatementTotals
	seen := make(map[field]bool)

	for _, raw := range lines {
		line := transform.CleanLine(raw)
		if line == "" {
			continue
		}
		key := transform.FoldKey(line)

		for _, l := range labels {
			if seen[l.field] || !strings.Contains(key, l.key) {
				continue
			}
			m := reTrailingAmount.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			v, err := money.ParseAmount(strings.ReplaceAll(m[1], " ", ""))
			if err != nil {
				continue
			}
			assign(&totals, l.field, v)
			seen[l.field] = true
		}
	}
	return totals
}

func assign(t *domain.StatementTotals, f field, v decimal.Decimal) {
	switch f {
	case fieldTotalDue:
		t.TotalDue = &v
	case fieldDomestic:
		t.DomesticTotal = &v
	case fieldForeign:
		t.ForeignTotal = &v
	case fieldPayments:
		t.PaymentsTotal = &v
	case fieldCredits:
		t.CreditsTotal = &v
	case fieldFees:
		t.FeesTotal = &v
	}
}
