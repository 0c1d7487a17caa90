package parser

import "regexp"

// amountToken is a Brazilian-formatted amount: optional sign, dot-grouped
// thousands, mandatory two-digit decimal part.
const amountToken = `-?\d{1,3}(?:\.\d{3})*,\d{2}`

var (
	// Domestic purchase, strict form: date, description, one amount at end of
	// line. The tolerant form relaxes the amount shape for lines where
	// extraction mangled the thousands grouping.
	reDomStrict   = regexp.MustCompile(`^(\d{1,2}/\d{1,2})\s+(.+?)\s+(` + amountToken + `)$`)
	reDomTolerant = regexp.MustCompile(`^(\d{1,2}/\d{1,2})\s+(.+?)\s+(-?[\d.]+,\d{2})$`)

	// FX purchase header: date, description, origin-currency amount,
	// home-currency amount.
	reFXHeader = regexp.MustCompile(`^(\d{2}/\d{2})\s+(.+?)\s+(` + amountToken + `)\s+(` + amountToken + `)$`)

	// Rate disclosure, equality form: "EUR 1,00 = 6,27 BRL Milano".
	reFXRateEq = regexp.MustCompile(`^([A-Z]{3})\s+([\d.,]+)\s*=\s*([\d.,]+)\s*BRL(?:\s+(.+))?$`)

	// Rate disclosure, prose form: "Dólar de Conversão R$ 5,4321".
	reFXRateProse = regexp.MustCompile(`(?i)^D[óo]lar de Convers[ãa]o\s*(?:R\$)?\s*(\d+,\d{2,4})`)

	// IOF pass-through tax line.
	reIOFLine = regexp.MustCompile(`(?i)Repasse de IOF`)

	// Payment lines. The strict form carries the 7117 network code; the
	// tolerant form accepts any trailing amount after the keyword.
	rePayStrict = regexp.MustCompile(`(?i)^(\d{1,2}/\d{1,2})(?:/\d{4})?\s+(PAGAMENTO(?:\s+EFETUADO)?\s+7117)\s*[-\t ]+(-\s*[\d.]*,\d{2})\s*$`)
	rePayAny    = regexp.MustCompile(`(?i)^(\d{1,2}/\d{1,2})(?:/\d{4})?\s+(PAGAMENTO\S*(?:\s+\S+)*?)\s+(-?\s*[\d.]*,\d{2})\s*$`)

	// First BRL amount anywhere in a line, for fee/tax lines that carry no
	// date column.
	reAnyAmount = regexp.MustCompile(amountToken)

	// Two adjacent currency markers are an extraction artifact; the line is
	// corrupted and never parseable.
	reDoubleCurrency = regexp.MustCompile(`R\$\s*R\$`)

	// Standalone fee keywords.
	reFeeLine = regexp.MustCompile(`(?i)JUROS|MULTA|IOF DE FINANCIAMENTO`)

	// Leading date token, used to gate the domestic patterns.
	reLeadDate = regexp.MustCompile(`^\d{1,2}/\d{1,2}\b`)
)

// patternRule pairs a recognizer name with its extractor. extract returns the
// number of lines consumed (0 means the rule did not match and the next rule
// in the list is tried).
type patternRule struct {
	name    string
	extract func(p *StatementParser, line string, lookahead []string) int
}

// patternRules is the matcher's precedence order. Several patterns are
// structurally compatible with the same line (a domestic line with two
// amount-like tokens also resembles an FX header), so the most constrained
// recognizer is always consulted first and no rule falls through once an
// earlier one succeeds.
var patternRules = []patternRule{
	{"fx-chunk", (*StatementParser).extractFXChunk},
	{"payment", (*StatementParser).extractPayment},
	{"domestic", (*StatementParser).extractDomestic},
	{"iof-passthrough", (*StatementParser).extractIOF},
	{"standalone-fee", (*StatementParser).extractFee},
}
