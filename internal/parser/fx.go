package parser

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/leolech14/statement-refinery/internal/domain"
	"github.com/leolech14/statement-refinery/internal/money"
	"github.com/leolech14/statement-refinery/internal/transform"
)

// fxChunk is a fully assembled international purchase: the header line plus
// whatever rate and tax disclosures followed it.
type fxChunk struct {
	Date       string
	Desc       string
	AmountOrig decimal.Decimal
	AmountBRL  decimal.Decimal
	Currency   string
	Rate       decimal.Decimal
	IOF        decimal.Decimal
	City       string
	Lines      int // lines consumed from the input, including the header
}

// parseFXChunk assembles an international purchase from the header line and
// up to two lookahead lines. Itaú prints the disclosures in either order
// (IOF then rate, or rate then IOF) and sometimes omits the tax line. A
// three-line read is only committed when both a tax and a rate were found;
// otherwise a two-line read is attempted, which requires the rate. Lines
// that match neither disclosure are left for the main loop.
func parseFXChunk(header string, lookahead []string) (fxChunk, bool) {
	m := reFXHeader.FindStringSubmatch(header)
	if m == nil {
		return fxChunk{}, false
	}
	orig, err := money.ParseAmount(m[3])
	if err != nil {
		return fxChunk{}, false
	}
	brl, err := money.ParseAmount(m[4])
	if err != nil {
		return fxChunk{}, false
	}
	c := fxChunk{
		Date:       m[1],
		Desc:       strings.TrimSpace(m[2]),
		AmountOrig: orig,
		AmountBRL:  brl,
		Currency:   "USD",
		Lines:      1,
	}

	var haveRate, haveTax bool
	tryLine := func(line string) bool {
		if !haveTax {
			if tax, ok := parseIOFDisclosure(line); ok {
				c.IOF = tax
				haveTax = true
				return true
			}
		}
		if !haveRate {
			if cur, rate, city, ok := parseRateDisclosure(line); ok {
				c.Rate = rate
				c.City = city
				if cur != "" {
					c.Currency = cur
				}
				haveRate = true
				return true
			}
		}
		return false
	}

	if len(lookahead) >= 2 {
		if tryLine(lookahead[0]) {
			if tryLine(lookahead[1]) && haveRate && haveTax {
				c.Lines = 3
				return c, true
			}
			// Second lookahead did not belong to this chunk. Keep the
			// single disclosure only if it was the rate.
			if haveRate {
				c.Lines = 2
				return c, true
			}
			return fxChunk{}, false
		}
	} else if len(lookahead) == 1 {
		if tryLine(lookahead[0]) && haveRate {
			c.Lines = 2
			return c, true
		}
		return fxChunk{}, false
	}
	return fxChunk{}, false
}

// parseRateDisclosure recognizes both rate forms. The equality form names the
// currency and may carry the merchant city after "BRL"; the prose form is
// always dollars.
func parseRateDisclosure(line string) (currency string, rate decimal.Decimal, city string, ok bool) {
	if m := reFXRateEq.FindStringSubmatch(line); m != nil {
		unit, err := money.ParseRate(m[2])
		if err != nil || unit.IsZero() {
			return "", decimal.Zero, "", false
		}
		brl, err := money.ParseRate(m[3])
		if err != nil {
			return "", decimal.Zero, "", false
		}
		return m[1], brl.Div(unit), strings.TrimSpace(m[4]), true
	}
	if m := reFXRateProse.FindStringSubmatch(line); m != nil {
		r, err := money.ParseRate(m[1])
		if err != nil {
			return "", decimal.Zero, "", false
		}
		return "USD", r, "", true
	}
	return "", decimal.Zero, "", false
}

// parseIOFDisclosure extracts the tax amount from a "Repasse de IOF" line.
func parseIOFDisclosure(line string) (decimal.Decimal, bool) {
	if !reIOFLine.MatchString(line) {
		return decimal.Zero, false
	}
	m := reAnyAmount.FindString(line)
	if m == "" {
		return decimal.Zero, false
	}
	amt, err := money.ParseAmount(m)
	if err != nil {
		return decimal.Zero, false
	}
	return amt, true
}

// toTransaction converts the assembled chunk into a transaction. The USD
// column is only filled when the origin currency is dollars; for other
// currencies the statement gives no dollar figure.
func (c fxChunk) toTransaction(p *StatementParser) (domain.Transaction, error) {
	iso, err := money.ToISODate(c.Date, p.year)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx := domain.Transaction{
		CardLast4:    p.state.CurrentCard,
		PostDate:     iso,
		Description:  c.Desc,
		AmountBRL:    c.AmountBRL,
		Category:     domain.CategoryFX,
		MerchantCity: c.City,
		AmountOrig:   c.AmountOrig,
		CurrencyOrig: c.Currency,
		FXRate:       c.Rate,
		IOFBRL:       c.IOF,
	}
	if strings.EqualFold(c.Currency, "USD") {
		tx.AmountUSD = c.AmountOrig
	}
	if seq, tot := transform.ExtractInstallment(c.Desc); seq > 0 {
		tx.InstallmentSeq, tx.InstallmentTot = seq, tot
	}
	return tx, nil
}
