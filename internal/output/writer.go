// Package output serializes parsed transactions to the canonical CSV layout.
// The layout is stable: golden-file comparison depends on byte-exact output,
// so column order, delimiter and number formatting never vary between runs.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/leolech14/statement-refinery/internal/domain"
)

// Delimiter separates CSV fields. Semicolon, because Brazilian locales use
// the comma as the decimal separator in spreadsheet imports.
const Delimiter = ';'

// Header is the canonical column order.
var Header = []string{
	"card_last4",
	"post_date",
	"desc_raw",
	"amount_brl",
	"installment_seq",
	"installment_tot",
	"fx_rate",
	"iof_brl",
	"category",
	"merchant_city",
	"ledger_hash",
	"prev_bill_amount",
	"interest_amount",
	"amount_orig",
	"currency_orig",
	"amount_usd",
}

// WriteOptions configures where the CSV goes.
type WriteOptions struct {
	FilePath string // Output path (empty = stdout)
}

// WriteCSV serializes transactions in the canonical column order.
func WriteCSV(transactions []domain.Transaction, w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, tx := range transactions {
		if err := cw.Write(Record(tx)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteCSVToFile writes transactions to file or stdout based on options.
func WriteCSVToFile(transactions []domain.Transaction, opts WriteOptions) (err error) {
	if opts.FilePath == "" {
		return WriteCSV(transactions, os.Stdout)
	}

	f, err := os.Create(opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.FilePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", opts.FilePath, closeErr)
		}
	}()

	if err = WriteCSV(transactions, f); err != nil {
		return fmt.Errorf("failed to write transactions to %s: %w", opts.FilePath, err)
	}
	return nil
}

// Record converts a transaction to its CSV row. Amounts always carry two
// decimal places; the rate carries four. Optional fields are empty rather
// than zero so spreadsheet sums stay honest.
func Record(tx domain.Transaction) []string {
	return []string{
		tx.CardLast4,
		tx.PostDate,
		tx.Description,
		tx.AmountBRL.StringFixed(2),
		formatInstallment(tx.InstallmentSeq),
		formatInstallment(tx.InstallmentTot),
		formatRate(tx.FXRate),
		formatOptionalAmount(tx.IOFBRL),
		string(tx.Category),
		tx.MerchantCity,
		tx.LedgerHash,
		formatOptionalAmount(tx.PrevBillAmount),
		formatOptionalAmount(tx.InterestAmount),
		formatOptionalAmount(tx.AmountOrig),
		tx.CurrencyOrig,
		formatOptionalAmount(tx.AmountUSD),
	}
}

func formatInstallment(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func formatRate(rate decimal.Decimal) string {
	if rate.IsZero() {
		return ""
	}
	return rate.StringFixed(4)
}

func formatOptionalAmount(amount decimal.Decimal) string {
	if amount.IsZero() {
		return ""
	}
	return amount.StringFixed(2)
}
