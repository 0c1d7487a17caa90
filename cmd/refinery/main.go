package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/leolech14/statement-refinery/internal/domain"
	"github.com/leolech14/statement-refinery/internal/extract"
	"github.com/leolech14/statement-refinery/internal/output"
	"github.com/leolech14/statement-refinery/internal/parser"
	"github.com/leolech14/statement-refinery/internal/reconcile"
	"github.com/leolech14/statement-refinery/internal/rules"
	"github.com/leolech14/statement-refinery/internal/scanner"
	"github.com/leolech14/statement-refinery/internal/summary"
	"github.com/leolech14/statement-refinery/internal/ui"
)

const (
	version = "0.1.0"
)

var (
	versionFlag = flag.Bool("version", false, "Show version")

	inputDir = flag.String("input", "", "Directory to scan for statements (alternative to file arguments)")
	year     = flag.Int("year", 0, "Reference year when the filename carries no period token")
	month    = flag.Int("month", 0, "Reference month when the filename carries no period token")
	verbose  = flag.Bool("verbose", false, "Show detailed parsing logs")

	outputFile = flag.String("output", "", "Output CSV file (default: stdout)")
	rulesFile  = flag.String("rules", "", "Category rules file (default: embedded rules)")
	goldenFile = flag.String("golden", "", "Golden CSV to compare the output against byte-for-byte")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `refinery - Itaú credit-card statement parser

Usage:
  refinery [flags] [statement.pdf ...]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Parse one statement to stdout
  refinery Itau_202504.pdf

  # Scan a directory and write the combined CSV
  refinery -input ~/faturas -output transactions.csv

  # Regression-check against a golden file
  refinery Itau_202504.pdf -golden testdata/202504.csv

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("refinery version %s\n", version)
		os.Exit(0)
	}

	if *inputDir == "" && flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: pass statement files or -input directory\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	files, err := discover()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no statement files found\n\nPlease check:\n  - Paths are correct\n  - Files have supported extensions (.pdf, .txt)\n  - You have read permissions")
	}

	if !*verbose {
		ui.Header("Refining Credit-Card Statements")
		ui.Step(1, 4, "Loading category rules")
	}

	engine, err := loadEngine()
	if err != nil {
		return err
	}

	if !*verbose {
		ui.Step(2, 4, fmt.Sprintf("Parsing %d statement(s)", len(files)))
	}

	runID := reconcile.NewRunID()
	var (
		allRows    []domain.Transaction
		reports    []*reconcile.Report
		runFitness decimal.Decimal
		missCount  int
	)

	for i, file := range files {
		if *verbose {
			fmt.Fprintf(os.Stderr, "  Parsing %s (period %04d-%02d)\n", file.Path, file.Metadata.Year, file.Metadata.Month)
		} else {
			fmt.Fprintf(os.Stderr, "\r  Progress: %d/%d files...", i+1, len(files))
		}

		lines, err := extract.Lines(file.Path)
		if err != nil {
			return fmt.Errorf("extraction failed for %s: %w", file.Path, err)
		}

		p := parser.New(file.Metadata.Year, file.Metadata.Month, engine)
		result, err := p.Parse(lines)
		if err != nil {
			return fmt.Errorf("parse failed for %s: %w", file.Path, err)
		}

		totals := summary.Extract(lines)
		report := reconcile.Evaluate(runID, file.Path, result.Transactions, totals)
		reports = append(reports, report)
		allRows = append(allRows, result.Transactions...)

		deltas := reconcile.SubtotalDeltas(result.Transactions, totals)
		runFitness = runFitness.Add(reconcile.Fitness(deltas))
		missCount += len(result.Misses)

		if *verbose {
			printStatementDetail(file.Path, result, report, deltas)
		}
	}
	if !*verbose {
		fmt.Fprintf(os.Stderr, "\r  Progress: %d/%d files - Complete!\n", len(files), len(files))
		ui.Step(3, 4, "Reconciling")
	}

	score := reconcile.MeanScore(reports)
	if *verbose {
		fmt.Fprintf(os.Stderr, "\nReconciliation score: %.1f%% across %d statement(s), fitness %s\n", score, len(reports), runFitness.StringFixed(2))
	} else {
		ui.Info(fmt.Sprintf("Reconciliation score: %.1f%%", score))
		ui.BlueText(fmt.Sprintf("  Subtotal fitness: %s (0.00 is perfect)", runFitness.StringFixed(2)))
		if missCount > 0 {
			ui.YellowText(fmt.Sprintf("  %d unrecognized line(s); run with -verbose to list them", missCount))
		}
		for _, r := range reports {
			if !r.Passed() {
				ui.Warning(fmt.Sprintf("%s failed soft checks (run with -verbose for details)", r.Statement))
			}
		}
	}

	if !*verbose {
		ui.Step(4, 4, "Writing output")
	}

	if *goldenFile != "" {
		return compareGolden(allRows)
	}

	opts := output.WriteOptions{FilePath: *outputFile}
	if err := output.WriteCSVToFile(allRows, opts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if *outputFile != "" {
		if *verbose {
			fmt.Fprintf(os.Stderr, "Output written to %s\n", *outputFile)
		} else {
			ui.Success(fmt.Sprintf("Output written to %s (%d rows)", *outputFile, len(allRows)))
		}
	}
	return nil
}

// discover resolves the statement list from positional arguments or the
// -input directory. Explicit -year/-month override the filename period.
func discover() ([]scanner.ScanResult, error) {
	var files []scanner.ScanResult

	if *inputDir != "" {
		s := scanner.New(*inputDir)
		found, err := s.Scan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", *inputDir, err)
		}
		files = found
	}
	for _, arg := range flag.Args() {
		files = append(files, scanner.ScanResult{
			Path:     arg,
			Metadata: scanner.ExtractMetadata(arg),
		})
	}

	for i := range files {
		if *year != 0 {
			files[i].Metadata.Year = *year
		}
		if *month != 0 {
			files[i].Metadata.Month = *month
		}
		if !files[i].Metadata.HasPeriod() {
			return nil, fmt.Errorf("cannot derive the statement period for %s: name it with a YYYYMM token or pass -year and -month", files[i].Path)
		}
	}
	return files, nil
}

func loadEngine() (*rules.Engine, error) {
	if *rulesFile != "" {
		engine, err := rules.LoadFromFile(*rulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules file: %w", err)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Loaded %d custom rules from %s\n", len(engine.GetRules()), *rulesFile)
		}
		return engine, nil
	}
	engine, err := rules.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules: %w", err)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "Loaded %d embedded rules\n", len(engine.GetRules()))
	}
	return engine, nil
}

func printStatementDetail(path string, result *parser.Result, report *reconcile.Report, deltas map[string]decimal.Decimal) {
	fmt.Fprintf(os.Stderr, "  %s:\n", path)
	fmt.Fprintf(os.Stderr, "    Rows: %d, coverage: %.1f%%\n", len(result.Transactions), result.Stats.Coverage())
	if result.PrevBill != nil {
		fmt.Fprintf(os.Stderr, "    Previous-bill payoff: %s\n", result.PrevBill.StringFixed(2))
	}
	if n := len(result.Misses); n > 0 {
		fmt.Fprintf(os.Stderr, "    Unrecognized lines: %d\n", n)
		for i, miss := range result.Misses {
			if i >= 5 {
				fmt.Fprintf(os.Stderr, "      ... and %d more\n", n-5)
				break
			}
			fmt.Fprintf(os.Stderr, "      - %s\n", miss)
		}
	}
	for group, delta := range deltas {
		fmt.Fprintf(os.Stderr, "    Subtotal delta (%s): %s\n", group, delta.StringFixed(2))
	}
	if len(deltas) > 0 {
		fmt.Fprintf(os.Stderr, "    Fitness: %s\n", reconcile.Fitness(deltas).StringFixed(2))
	}
	for _, c := range report.Checks {
		fmt.Fprintf(os.Stderr, "    [%s] %s: %s\n", c.Status, c.Name, c.Detail)
	}
}

// compareGolden renders the rows and byte-compares them against the golden
// CSV instead of writing output.
func compareGolden(rows []domain.Transaction) error {
	want, err := os.ReadFile(*goldenFile)
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}

	var got bytes.Buffer
	if err := output.WriteCSV(rows, &got); err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}

	ok, diff := reconcile.CompareGolden(got.Bytes(), want)
	if !ok {
		if expected := goldenCategorySums(want); len(expected) > 0 {
			deltas := reconcile.CategoryDeltas(rows, expected)
			return fmt.Errorf("output differs from golden %s:\n%s\ncategory fitness: %s", *goldenFile, diff, reconcile.Fitness(deltas).StringFixed(2))
		}
		return fmt.Errorf("output differs from golden %s:\n%s", *goldenFile, diff)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "Output matches golden %s\n", *goldenFile)
	} else {
		ui.Success(fmt.Sprintf("Output matches golden %s", *goldenFile))
	}
	return nil
}

// goldenCategorySums reads per-category amount sums back out of a golden CSV.
// Malformed rows are skipped; a golden that yields no rows returns nil.
func goldenCategorySums(golden []byte) map[domain.Category]decimal.Decimal {
	r := csv.NewReader(bytes.NewReader(golden))
	r.Comma = ';'
	r.FieldsPerRecord = -1

	sums := make(map[domain.Category]decimal.Decimal)
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if first {
			first = false
			continue
		}
		if len(record) < 9 {
			continue
		}
		amount, err := decimal.NewFromString(record[3])
		if err != nil {
			continue
		}
		cat := domain.Category(record[8])
		sums[cat] = sums[cat].Add(amount)
	}
	if len(sums) == 0 {
		return nil
	}
	return sums
}
