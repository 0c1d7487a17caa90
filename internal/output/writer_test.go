package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/leolech14/statement-refinery/internal/domain"
)

func sampleTx() domain.Transaction {
	amt := decimal.RequireFromString("21.73")
	tx := domain.Transaction{
		CardLast4:      "6853",
		PostDate:       "2024-09-28",
		Description:    "FARMACIA SAO JOAO 01/04",
		AmountBRL:      amt,
		InstallmentSeq: 1,
		InstallmentTot: 4,
		Category:       domain.CategoryPharmacy,
	}
	tx.LedgerHash = domain.ComputeLedgerHash(tx.CardLast4, tx.PostDate, tx.Description, amt, tx.Category)
	return tx
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV([]domain.Transaction{sampleTx()}, &buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row", len(lines))
	}
	if lines[0] != strings.Join(Header, ";") {
		t.Errorf("header = %q", lines[0])
	}

	fields := strings.Split(lines[1], ";")
	if len(fields) != len(Header) {
		t.Fatalf("row has %d fields, want %d", len(fields), len(Header))
	}
	if fields[0] != "6853" || fields[1] != "2024-09-28" {
		t.Errorf("row = %q", lines[1])
	}
	if fields[3] != "21.73" {
		t.Errorf("amount_brl = %q, want 21.73", fields[3])
	}
	if fields[4] != "1" || fields[5] != "4" {
		t.Errorf("installments = %q/%q, want 1/4", fields[4], fields[5])
	}
	if fields[8] != string(domain.CategoryPharmacy) {
		t.Errorf("category = %q", fields[8])
	}
}

func TestWriteCSV_Deterministic(t *testing.T) {
	txs := []domain.Transaction{sampleTx()}

	var first, second bytes.Buffer
	if err := WriteCSV(txs, &first); err != nil {
		t.Fatal(err)
	}
	if err := WriteCSV(txs, &second); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("two writes of the same rows differ")
	}
}

func TestRecord_OptionalFieldsEmpty(t *testing.T) {
	tx := domain.Transaction{
		CardLast4:   domain.CardSentinel,
		PostDate:    "2025-04-11",
		Description: "SUPERMERCADO ZAFFARI",
		AmountBRL:   decimal.RequireFromString("88.50"),
		Category:    domain.CategorySupermarket,
		LedgerHash:  "abc",
	}

	fields := Record(tx)
	for _, idx := range []int{4, 5, 6, 7, 11, 12, 13, 15} {
		if fields[idx] != "" {
			t.Errorf("field %s = %q, want empty", Header[idx], fields[idx])
		}
	}
}

func TestRecord_FXFields(t *testing.T) {
	tx := domain.Transaction{
		CardLast4:    "1234",
		PostDate:     "2025-04-10",
		Description:  "SumUp *BOTISRL",
		AmountBRL:    decimal.RequireFromString("56.12"),
		Category:     domain.CategoryFX,
		MerchantCity: "Milano",
		AmountOrig:   decimal.RequireFromString("7.90"),
		CurrencyOrig: "EUR",
		FXRate:       decimal.RequireFromString("6.27"),
		IOFBRL:       decimal.RequireFromString("2.10"),
		LedgerHash:   "def",
	}

	fields := Record(tx)
	if fields[6] != "6.2700" {
		t.Errorf("fx_rate = %q, want 6.2700", fields[6])
	}
	if fields[7] != "2.10" {
		t.Errorf("iof_brl = %q, want 2.10", fields[7])
	}
	if fields[13] != "7.90" || fields[14] != "EUR" {
		t.Errorf("origin = %q %q", fields[13], fields[14])
	}
	if fields[9] != "Milano" {
		t.Errorf("merchant_city = %q", fields[9])
	}
}

func TestWriteCSVToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	err := WriteCSVToFile([]domain.Transaction{sampleTx()}, WriteOptions{FilePath: path})
	if err != nil {
		t.Fatalf("WriteCSVToFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "card_last4;") {
		t.Errorf("file does not start with header: %q", string(data[:20]))
	}
}

func TestWriteCSVToFile_BadPath(t *testing.T) {
	err := WriteCSVToFile(nil, WriteOptions{FilePath: "/nonexistent/dir/out.csv"})
	if err == nil {
		t.Error("expected error for unwritable path")
	}
}
