// Package domain defines the canonical transaction record and the closed
// category set shared by every stage of the parsing pipeline.
package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Category is the closed set of statement categories.
// Use ValidateCategory to ensure validity before use.
type Category string

const (
	CategoryPayment     Category = "PAGAMENTO"
	CategoryAdjustment  Category = "AJUSTE"
	CategoryFees        Category = "ENCARGOS"
	CategoryServices    Category = "SERVIÇOS"
	CategorySupermarket Category = "SUPERMERCADO"
	CategoryPharmacy    Category = "FARMÁCIA"
	CategoryRestaurant  Category = "RESTAURANTE"
	CategoryFuel        Category = "POSTO"
	CategoryTransport   Category = "TRANSPORTE"
	CategoryTourism     Category = "TURISMO"
	CategoryFood        Category = "ALIMENTAÇÃO"
	CategoryHealth      Category = "SAÚDE"
	CategoryVehicles    Category = "VEÍCULOS"
	CategoryApparel     Category = "VESTUÁRIO"
	CategoryEducation   Category = "EDUCAÇÃO"
	CategoryHobby       Category = "HOBBY"
	CategoryFX          Category = "FX"
	CategoryMisc        Category = "DIVERSOS"
)

var validCategories = map[Category]struct{}{
	CategoryPayment: {}, CategoryAdjustment: {}, CategoryFees: {},
	CategoryServices: {}, CategorySupermarket: {}, CategoryPharmacy: {},
	CategoryRestaurant: {}, CategoryFuel: {}, CategoryTransport: {},
	CategoryTourism: {}, CategoryFood: {}, CategoryHealth: {},
	CategoryVehicles: {}, CategoryApparel: {}, CategoryEducation: {},
	CategoryHobby: {}, CategoryFX: {}, CategoryMisc: {},
}

// ValidateCategory checks if category is a member of the closed set.
func ValidateCategory(c Category) bool {
	_, ok := validCategories[c]
	return ok
}

// Categories returns the closed label set. The slice is a copy; callers may
// reorder it freely.
func Categories() []Category {
	out := make([]Category, 0, len(validCategories))
	for c := range validCategories {
		out = append(out, c)
	}
	return out
}

// DomesticCategories are the labels grouped as domestic purchases when
// reconciling against the statement's printed subtotals.
var DomesticCategories = map[Category]struct{}{
	CategoryFood: {}, CategoryHealth: {}, CategoryApparel: {},
	CategoryVehicles: {}, CategoryPharmacy: {}, CategorySupermarket: {},
	CategoryFuel: {}, CategoryRestaurant: {}, CategoryTourism: {},
}

// CardSentinel is used when no card-identifying token has been seen yet.
const CardSentinel = "0000"

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Transaction is the canonical record produced by the builder. Amounts are in
// the statement's home currency (BRL) unless the field name says otherwise.
// Sign convention: negative for payments/credits, positive for charges.
type Transaction struct {
	CardLast4      string
	PostDate       string // YYYY-MM-DD
	Description    string
	AmountBRL      decimal.Decimal
	InstallmentSeq int
	InstallmentTot int
	FXRate         decimal.Decimal
	IOFBRL         decimal.Decimal
	Category       Category
	MerchantCity   string
	LedgerHash     string
	PrevBillAmount decimal.Decimal
	InterestAmount decimal.Decimal
	AmountOrig     decimal.Decimal
	CurrencyOrig   string
	AmountUSD      decimal.Decimal
}

// Validate checks the emit invariants: a parseable ISO date, a category from
// the closed set and a populated ledger hash.
func (t *Transaction) Validate() error {
	if !isoDateRe.MatchString(t.PostDate) {
		return fmt.Errorf("post date %q is not YYYY-MM-DD", t.PostDate)
	}
	if !ValidateCategory(t.Category) {
		return fmt.Errorf("invalid category %q", t.Category)
	}
	if t.LedgerHash == "" {
		return fmt.Errorf("ledger hash cannot be empty")
	}
	return nil
}

// ComputeLedgerHash derives the content identity key for a transaction.
// Format: SHA1("{card}|{date}|{desc}|{amount}|{category}"), amount with two
// fractional digits so re-derivations of the same source line collide.
func ComputeLedgerHash(card, date, desc string, amount decimal.Decimal, category Category) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s", card, date, desc, amount.StringFixed(2), category)
	sum := sha1.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}

// StatementTotals holds the figures printed in the statement's own summary
// section. It is ground truth for reconciliation and never mutated by the
// transaction pipeline. A nil field means the label was not found.
type StatementTotals struct {
	TotalDue      *decimal.Decimal
	DomesticTotal *decimal.Decimal
	ForeignTotal  *decimal.Decimal
	PaymentsTotal *decimal.Decimal
	FeesTotal     *decimal.Decimal
	CreditsTotal  *decimal.Decimal
}

// ParserState carries the order-dependent context threaded through a single
// statement parse: the card backfill value, the last transaction date seen
// (standalone fee lines inherit it) and the payment block position.
type ParserState struct {
	CurrentCard string
	LastDate    string
	PaymentSeq  int
}

// NewParserState returns the state for a fresh statement.
func NewParserState() *ParserState {
	return &ParserState{CurrentCard: CardSentinel}
}

// Stats counts per-run parsing outcomes. Keys follow the pipeline counters:
// lines, hdr_drop, regex_miss, fx, pagamento, iof, encargos plus one key per
// emitted category.
type Stats map[string]int

// Add increments a counter.
func (s Stats) Add(key string) { s[key]++ }

// Coverage returns the share of effective lines (total minus header drops)
// that matched some pattern, as a percentage.
func (s Stats) Coverage() float64 {
	eff := s["lines"] - s["hdr_drop"]
	if eff <= 0 {
		return 0
	}
	return 100 * float64(eff-s["regex_miss"]) / float64(eff)
}
