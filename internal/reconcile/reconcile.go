// Package reconcile scores parsed statements against ground truth. The hard
// tier compares output byte-for-byte against a golden CSV; the soft tier
// evaluates structural invariants that hold for every real statement, so a
// statement without goldens still gets a quality score.
package reconcile

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leolech14/statement-refinery/internal/domain"
)

// Tolerance is the widest acceptable gap between the summed rows and the
// statement's printed total. One cent absorbs the bank's own rounding.
var Tolerance = decimal.New(1, -2)

// MaxRows bounds a plausible single-statement row count. More rows than this
// means the parser is re-reading sections.
const MaxRows = 250

// CheckStatus is the outcome of one soft invariant.
type CheckStatus string

const (
	StatusPassed CheckStatus = "passed"
	StatusFailed CheckStatus = "failed"
	// StatusUnknown means the ground truth needed by the check was not in
	// the statement. Unknown checks never count against the score.
	StatusUnknown CheckStatus = "unknown"
)

// Check is one evaluated invariant.
type Check struct {
	Name   string
	Status CheckStatus
	Detail string
}

// Report holds the soft-tier outcome for one statement.
type Report struct {
	RunID     string
	Statement string
	Checks    []Check
}

// NewRunID returns a fresh identifier for one reconciliation run.
func NewRunID() string {
	return uuid.New().String()
}

// Evaluate runs the soft invariants over one parsed statement.
func Evaluate(runID, statement string, transactions []domain.Transaction, totals domain.StatementTotals) *Report {
	r := &Report{
		RunID:     runID,
		Statement: statement,
	}
	r.Checks = append(r.Checks,
		checkFinancialTotal(transactions, totals),
		checkRowCount(transactions),
		checkNoDuplicates(transactions),
		checkCategories(transactions),
	)
	return r
}

// Score is 100 times the share of applicable checks that passed. A report
// with no applicable checks scores 100: nothing contradicted it.
func (r *Report) Score() float64 {
	passed, applicable := 0, 0
	for _, c := range r.Checks {
		if c.Status == StatusUnknown {
			continue
		}
		applicable++
		if c.Status == StatusPassed {
			passed++
		}
	}
	if applicable == 0 {
		return 100
	}
	return 100 * float64(passed) / float64(applicable)
}

// Passed reports whether every applicable check passed.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFailed {
			return false
		}
	}
	return true
}

// MeanScore averages per-statement scores across a run.
func MeanScore(reports []*Report) float64 {
	if len(reports) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reports {
		sum += r.Score()
	}
	return sum / float64(len(reports))
}

func checkFinancialTotal(transactions []domain.Transaction, totals domain.StatementTotals) Check {
	c := Check{Name: "financial-total"}
	if totals.TotalDue == nil {
		c.Status = StatusUnknown
		c.Detail = "statement carries no printed total"
		return c
	}

	sum := decimal.Zero
	for _, tx := range transactions {
		sum = sum.Add(tx.AmountBRL)
	}
	delta := sum.Sub(*totals.TotalDue).Abs()
	if delta.LessThanOrEqual(Tolerance) {
		c.Status = StatusPassed
		c.Detail = fmt.Sprintf("sum %s within %s of printed total %s", sum.StringFixed(2), Tolerance.StringFixed(2), totals.TotalDue.StringFixed(2))
	} else {
		c.Status = StatusFailed
		c.Detail = fmt.Sprintf("sum %s differs from printed total %s by %s", sum.StringFixed(2), totals.TotalDue.StringFixed(2), delta.StringFixed(2))
	}
	return c
}

func checkRowCount(transactions []domain.Transaction) Check {
	c := Check{Name: "row-count"}
	n := len(transactions)
	switch {
	case n < 1:
		c.Status = StatusFailed
		c.Detail = "no transactions parsed"
	case n > MaxRows:
		c.Status = StatusFailed
		c.Detail = fmt.Sprintf("%d rows exceeds plausible maximum %d", n, MaxRows)
	default:
		c.Status = StatusPassed
		c.Detail = fmt.Sprintf("%d rows", n)
	}
	return c
}

// checkNoDuplicates flags repeated (date, description, amount) tuples. The
// deduplicator already guarantees distinct ledger hashes, so the check works
// on the raw tuple instead: a repeat here means either duplicate extraction
// or a same-day repeat purchase worth a human look.
func checkNoDuplicates(transactions []domain.Transaction) Check {
	c := Check{Name: "no-duplicates"}
	seen := make(map[string]bool, len(transactions))
	for _, tx := range transactions {
		key := fmt.Sprintf("%s|%s|%s", tx.PostDate, tx.Description, tx.AmountBRL.StringFixed(2))
		if seen[key] {
			c.Status = StatusFailed
			c.Detail = fmt.Sprintf("%s %s %s appears more than once", tx.PostDate, tx.Description, tx.AmountBRL.StringFixed(2))
			return c
		}
		seen[key] = true
	}
	c.Status = StatusPassed
	c.Detail = fmt.Sprintf("%d distinct rows", len(seen))
	return c
}

func checkCategories(transactions []domain.Transaction) Check {
	c := Check{Name: "valid-categories"}
	for _, tx := range transactions {
		if !domain.ValidateCategory(tx.Category) {
			c.Status = StatusFailed
			c.Detail = fmt.Sprintf("invalid category %q on %s", tx.Category, tx.Description)
			return c
		}
	}
	c.Status = StatusPassed
	return c
}

// CompareGolden byte-compares produced output against a golden file. On
// mismatch the report names the first differing line, which is almost always
// enough to localize a formatting or classification regression.
func CompareGolden(got, want []byte) (bool, string) {
	if bytes.Equal(got, want) {
		return true, ""
	}

	gotLines := bytes.Split(got, []byte("\n"))
	wantLines := bytes.Split(want, []byte("\n"))
	n := len(gotLines)
	if len(wantLines) < n {
		n = len(wantLines)
	}
	for i := 0; i < n; i++ {
		if !bytes.Equal(gotLines[i], wantLines[i]) {
			return false, fmt.Sprintf("line %d differs:\n  got:  %s\n  want: %s", i+1, gotLines[i], wantLines[i])
		}
	}
	return false, fmt.Sprintf("line count differs: got %d, want %d", len(gotLines), len(wantLines))
}

// SubtotalDeltas measures parsed sums against the statement's printed
// subtotals, grouped the way the statement prints them: domestic purchase
// categories, FX, payments, fees and credits. A nil printed subtotal omits
// the group from the result.
func SubtotalDeltas(transactions []domain.Transaction, totals domain.StatementTotals) map[string]decimal.Decimal {
	var domestic, foreign, payments, fees, credits decimal.Decimal
	for _, tx := range transactions {
		switch {
		case tx.Category == domain.CategoryFX:
			foreign = foreign.Add(tx.AmountBRL)
		case tx.Category == domain.CategoryPayment:
			payments = payments.Add(tx.AmountBRL)
		case tx.Category == domain.CategoryFees:
			fees = fees.Add(tx.AmountBRL)
		case tx.Category == domain.CategoryAdjustment:
			credits = credits.Add(tx.AmountBRL)
		default:
			if _, ok := domain.DomesticCategories[tx.Category]; ok {
				domestic = domestic.Add(tx.AmountBRL)
			}
		}
	}
	deltas := make(map[string]decimal.Decimal)
	set := func(group string, sum decimal.Decimal, printed *decimal.Decimal) {
		if printed != nil {
			deltas[group] = sum.Sub(*printed)
		}
	}
	set("domestic", domestic, totals.DomesticTotal)
	set("international", foreign, totals.ForeignTotal)
	set("payments", payments, totals.PaymentsTotal)
	set("fees", fees, totals.FeesTotal)
	set("credits", credits, totals.CreditsTotal)
	return deltas
}

// CategoryDeltas sums parsed amounts per category and subtracts the expected
// figures. Categories present on either side appear in the result.
func CategoryDeltas(transactions []domain.Transaction, expected map[domain.Category]decimal.Decimal) map[domain.Category]decimal.Decimal {
	sums := make(map[domain.Category]decimal.Decimal)
	for _, tx := range transactions {
		sums[tx.Category] = sums[tx.Category].Add(tx.AmountBRL)
	}

	deltas := make(map[domain.Category]decimal.Decimal)
	for cat, got := range sums {
		deltas[cat] = got.Sub(expected[cat])
	}
	for cat, want := range expected {
		if _, ok := sums[cat]; !ok {
			deltas[cat] = want.Neg()
		}
	}
	return deltas
}

// Fitness collapses a delta map into a single figure to maximize:
// zero is perfect and every cent of disagreement pushes it further negative.
// It accepts both the per-category and the printed-subtotal delta maps.
func Fitness[K comparable](deltas map[K]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range deltas {
		total = total.Sub(d.Abs())
	}
	return total
}
