package parser

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/leolech14/statement-refinery/internal/domain"
	"github.com/leolech14/statement-refinery/internal/money"
	"github.com/leolech14/statement-refinery/internal/transform"
)

// buildDomestic turns a matched domestic line into a transaction. The date is
// validated against the real calendar, installment markers are lifted from
// the description, and the category comes from the tiered classifier. A
// second-chance denylist check fires here because some summary rows only
// reveal themselves after cleaning (a date token rescued them from the
// header filter, but the description is still a statement total).
func (p *StatementParser) buildDomestic(date, desc string, amount decimal.Decimal) (domain.Transaction, bool, error) {
	if transform.ContainsDenylisted(desc) {
		p.stats.Add("hdr_drop")
		return domain.Transaction{}, false, nil
	}
	iso, err := money.ToISODate(date, p.year)
	if err != nil {
		return domain.Transaction{}, false, err
	}
	tx := domain.Transaction{
		CardLast4:   p.state.CurrentCard,
		PostDate:    iso,
		Description: desc,
		AmountBRL:   amount,
	}
	if seq, tot := transform.ExtractInstallment(desc); seq > 0 {
		tx.InstallmentSeq, tx.InstallmentTot = seq, tot
	}
	tx.Category = p.classifier.Classify(desc, amount)
	p.state.LastDate = iso
	return tx, true, nil
}

// finish stamps the ledger hash, salted by the occurrence index so that
// confirmed legitimate duplicates (two identical FX purchases on the same
// day) survive deduplication while true re-reads of the same line do not.
func (p *StatementParser) finish(tx domain.Transaction, occurrence int) domain.Transaction {
	desc := tx.Description
	if occurrence > 0 {
		desc = fmt.Sprintf("%s#%d", desc, occurrence)
	}
	tx.LedgerHash = domain.ComputeLedgerHash(tx.CardLast4, tx.PostDate, desc, tx.AmountBRL, tx.Category)
	return tx
}
