// Package parser turns the cleaned text of an Itaú credit-card statement
// into typed transactions. Recognition is a single forward pass over the
// lines with a fixed precedence of pattern rules; international purchases
// consume their rate and tax disclosure lines as one chunk.
package parser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/leolech14/statement-refinery/internal/dedup"
	"github.com/leolech14/statement-refinery/internal/domain"
	"github.com/leolech14/statement-refinery/internal/money"
	"github.com/leolech14/statement-refinery/internal/rules"
	"github.com/leolech14/statement-refinery/internal/transform"
)

// prevBillMarkers flag a payment that settles the previous bill rather than
// the current one. Detection is keyword based; position in the statement is
// not a reliable signal.
var prevBillMarkers = []string{"FATURA ANTERIOR", "PAGT ANTERIOR", "REF."}

// Result is the outcome of parsing one statement.
type Result struct {
	Transactions []domain.Transaction
	Stats        domain.Stats

	// PrevBill is the amount of the previous-bill payoff when one was
	// recognized, nil otherwise.
	PrevBill *decimal.Decimal

	// Misses holds cleaned lines no pattern recognized, for rule-table work.
	Misses []string
}

// StatementParser parses one statement. It is not safe for concurrent use;
// build one per statement.
type StatementParser struct {
	year       int
	classifier *rules.Classifier
	state      *domain.ParserState
	stats      domain.Stats
	set        *dedup.Set

	// fallbackDate stamps fee lines seen before any dated transaction.
	fallbackDate string

	strayIOF []domain.Transaction
	prevBill *decimal.Decimal
	misses   []string
}

// New builds a parser for a statement of the given reference year and month.
// The month is only used as a fallback date for undated fee lines; every
// transaction line carries its own day and month.
func New(year, month int, engine *rules.Engine) *StatementParser {
	p := &StatementParser{
		year:         year,
		classifier:   rules.NewClassifier(engine),
		state:        domain.NewParserState(),
		stats:        make(domain.Stats),
		set:          dedup.NewSet(),
		fallbackDate: fmt.Sprintf("%04d-%02d-01", year, month),
	}
	p.classifier.MissHook = func(string) { p.stats.Add("rule_miss") }
	return p
}

// Parse runs the recognition pass over the statement lines. Fatal errors are
// reserved for programming mistakes; malformed input lines are counted and
// skipped, never returned as errors.
func (p *StatementParser) Parse(rawLines []string) (*Result, error) {
	lines := make([]string, 0, len(rawLines))
	for _, raw := range rawLines {
		if line := transform.CleanLine(raw); line != "" {
			lines = append(lines, line)
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		p.stats.Add("lines")

		if last4, rem, ok := transform.ExtractCard(line); ok {
			p.state.CurrentCard = last4
			line = strings.TrimSpace(rem)
			if line == "" {
				continue
			}
		}

		if transform.IsHeaderNoise(line) {
			p.stats.Add("hdr_drop")
			continue
		}
		if reDoubleCurrency.MatchString(line) {
			p.stats.Add("regex_miss")
			continue
		}

		end := i + 3
		if end > len(lines) {
			end = len(lines)
		}
		consumed := 0
		for _, rule := range patternRules {
			if n := rule.extract(p, line, lines[i+1:end]); n > 0 {
				consumed = n
				break
			}
		}
		if consumed == 0 {
			p.stats.Add("regex_miss")
			p.misses = append(p.misses, line)
			continue
		}
		i += consumed - 1
	}

	// Tax pass-throughs that had no adjacent international purchase are
	// reported at the end of the statement, never interleaved.
	for _, tx := range p.strayIOF {
		if p.set.Append(tx) {
			p.stats.Add(string(tx.Category))
		}
	}

	return &Result{
		Transactions: p.set.Rows(),
		Stats:        p.stats,
		PrevBill:     p.prevBill,
		Misses:       p.misses,
	}, nil
}

func (p *StatementParser) extractFXChunk(line string, lookahead []string) int {
	chunk, ok := parseFXChunk(line, lookahead)
	if !ok {
		return 0
	}
	tx, err := chunk.toTransaction(p)
	if err != nil {
		return 0
	}
	key := dedup.NewFXKey(chunk.Desc, tx.PostDate, chunk.AmountBRL, chunk.AmountOrig, chunk.Rate)
	occurrence := p.set.ObserveFX(key)
	tx = p.finish(tx, occurrence)
	if p.set.Append(tx) {
		p.stats.Add("fx")
		p.stats.Add(string(tx.Category))
	}
	p.state.LastDate = tx.PostDate
	return chunk.Lines
}

func (p *StatementParser) extractPayment(line string, _ []string) int {
	m := rePayStrict.FindStringSubmatch(line)
	if m == nil {
		m = rePayAny.FindStringSubmatch(line)
	}
	if m == nil {
		return 0
	}
	amount, err := money.ParseAmount(strings.ReplaceAll(m[3], " ", ""))
	if err != nil {
		return 0
	}
	if amount.IsPositive() {
		// A positive "payment" is an extraction artifact, not a credit.
		p.stats.Add("payment_pos_drop")
		return 1
	}
	iso, err := money.ToISODate(m[1], p.year)
	if err != nil {
		return 0
	}
	tx := domain.Transaction{
		CardLast4:   p.state.CurrentCard,
		PostDate:    iso,
		Description: strings.TrimSpace(m[2]),
		AmountBRL:   amount,
		Category:    domain.CategoryPayment,
	}
	if isPrevBill(tx.Description) {
		abs := amount.Abs()
		tx.PrevBillAmount = abs
		p.prevBill = &abs
	}
	tx = p.finish(tx, p.state.PaymentSeq)
	p.state.PaymentSeq++
	if p.set.Append(tx) {
		p.stats.Add("pagamento")
		p.stats.Add(string(tx.Category))
	}
	p.state.LastDate = iso
	return 1
}

func (p *StatementParser) extractDomestic(line string, _ []string) int {
	if !reLeadDate.MatchString(line) {
		return 0
	}
	m := reDomStrict.FindStringSubmatch(line)
	if m == nil {
		m = reDomTolerant.FindStringSubmatch(line)
	}
	if m == nil {
		return 0
	}
	if !money.ValidDayMonth(m[1]) {
		return 0
	}
	amount, err := money.ParseAmount(m[3])
	if err != nil {
		return 0
	}
	desc := strings.TrimSpace(m[2])
	tx, keep, err := p.buildDomestic(m[1], desc, amount)
	if err != nil {
		return 0
	}
	if !keep {
		return 1
	}
	tx = p.finish(tx, 0)
	if p.set.Append(tx) {
		p.stats.Add(string(tx.Category))
	}
	return 1
}

func (p *StatementParser) extractIOF(line string, _ []string) int {
	amount, ok := parseIOFDisclosure(line)
	if !ok {
		return 0
	}
	if p.set.MergeTax(amount) {
		p.stats.Add("iof")
		return 1
	}
	// No adjacent international purchase to fold into. Surface the tax as
	// its own charge row at the end of the statement.
	tx := domain.Transaction{
		CardLast4:   p.state.CurrentCard,
		PostDate:    p.lastOrFallbackDate(),
		Description: "REPASSE DE IOF",
		AmountBRL:   amount,
		IOFBRL:      amount,
		Category:    domain.CategoryFees,
	}
	tx = p.finish(tx, len(p.strayIOF))
	p.strayIOF = append(p.strayIOF, tx)
	p.stats.Add("iof")
	return 1
}

func (p *StatementParser) extractFee(line string, _ []string) int {
	if !reFeeLine.MatchString(line) || reLeadDate.MatchString(line) {
		return 0
	}
	raw := reAnyAmount.FindString(line)
	if raw == "" {
		return 0
	}
	amount, err := money.ParseAmount(raw)
	if err != nil {
		return 0
	}
	tx := domain.Transaction{
		CardLast4:      p.state.CurrentCard,
		PostDate:       p.lastOrFallbackDate(),
		Description:    strings.TrimSpace(strings.Replace(line, raw, "", 1)),
		AmountBRL:      amount,
		InterestAmount: amount,
		Category:       domain.CategoryFees,
	}
	tx = p.finish(tx, 0)
	if p.set.Append(tx) {
		p.stats.Add("encargos")
		p.stats.Add(string(tx.Category))
	}
	return 1
}

func (p *StatementParser) lastOrFallbackDate() string {
	if p.state.LastDate != "" {
		return p.state.LastDate
	}
	return p.fallbackDate
}

func isPrevBill(description string) bool {
	key := transform.FoldKey(description)
	for _, marker := range prevBillMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}
