// Package dedup suppresses re-derivations of the same statement line while
// keeping legitimate repeats (identical recurring charges) apart from
// parser-induced duplicates.
package dedup

import (
	"fmt"

	"github.com/leolech14/statement-refinery/internal/domain"
	"github.com/shopspring/decimal"
)

// FXKey is the structural identity of a foreign-currency purchase. Repeat
// occurrences of the same key within one run are legitimate duplicates (two
// identical subscription charges), not extraction artifacts.
type FXKey struct {
	Description string
	Date        string
	AmountBRL   string
	AmountOrig  string
	Rate        string
}

// NewFXKey builds the structural key from the aggregated FX fields. Amounts
// are fixed to two digits so scale differences cannot split a key.
func NewFXKey(description, date string, amountBRL, amountOrig, rate decimal.Decimal) FXKey {
	return FXKey{
		Description: description,
		Date:        date,
		AmountBRL:   amountBRL.StringFixed(2),
		AmountOrig:  amountOrig.StringFixed(2),
		Rate:        rate.String(),
	}
}

// Set is the per-run deduplication state. Construct one per statement and
// discard it afterwards; there is no cross-run persistence.
type Set struct {
	seenHashes map[string]struct{}
	seenFX     map[FXKey]int
	rows       []domain.Transaction

	// DupHook, when set, receives a diagnostic for every suppressed
	// re-derivation and every confirmed legitimate repeat.
	DupHook func(msg string)
}

// NewSet creates an empty per-run deduplication set.
func NewSet() *Set {
	return &Set{
		seenHashes: make(map[string]struct{}),
		seenFX:     make(map[FXKey]int),
	}
}

// ObserveFX records one occurrence of an FX structural key and returns the
// number of times it was seen before. Occurrences after the first are logged
// as confirmed legitimate duplicates; callers keep them, salting the ledger
// hash with the occurrence index so the no-shared-hash invariant holds.
func (s *Set) ObserveFX(key FXKey) int {
	prior := s.seenFX[key]
	s.seenFX[key]++
	if prior > 0 && s.DupHook != nil {
		s.DupHook(fmt.Sprintf("confirmed legitimate duplicate: %s | %s | %s", key.Description, key.Date, key.AmountBRL))
	}
	return prior
}

// Append adds a transaction unless its ledger hash was already emitted this
// run; the first occurrence wins.
func (s *Set) Append(tx domain.Transaction) bool {
	if _, dup := s.seenHashes[tx.LedgerHash]; dup {
		if s.DupHook != nil {
			s.DupHook(fmt.Sprintf("duplicate row suppressed: %s | %s | %s", tx.Description, tx.PostDate, tx.AmountBRL.StringFixed(2)))
		}
		return false
	}
	s.seenHashes[tx.LedgerHash] = struct{}{}
	s.rows = append(s.rows, tx)
	return true
}

// MergeTax folds a trailing tax amount into the most recently appended record
// when that record is FX-categorized. Returns false when there is no such
// record; the caller then handles the tax line on its own.
func (s *Set) MergeTax(amount decimal.Decimal) bool {
	if len(s.rows) == 0 {
		return false
	}
	last := &s.rows[len(s.rows)-1]
	if last.Category != domain.CategoryFX {
		return false
	}
	last.IOFBRL = last.IOFBRL.Add(amount)
	return true
}

// Rows returns the accepted transactions in append order. The returned slice
// is the set's backing storage; callers take ownership after the run ends.
func (s *Set) Rows() []domain.Transaction {
	return s.rows
}

// Len returns the number of accepted transactions.
func (s *Set) Len() int {
	return len(s.rows)
}
