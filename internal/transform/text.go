package transform

import (
	"regexp"
	"strconv"
	"strings"
)

// leadGlyphs are the decorative symbols PDF extraction leaves at the start of
// statement lines.
const leadGlyphs = ">@§$Z)_•*®«» "

var (
	puaRe        = regexp.MustCompile("[-]")
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	cardRe       = regexp.MustCompile(`(?i)\bfinal\s+(\d{4})\b`)
	installRe    = regexp.MustCompile(`(\d{1,2})/(\d{1,2})$`)
	dateTokenRe  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}\b`)
)

// headerDenylist marks non-transaction statement furniture. A line containing
// one of these is dropped unless it also carries a date token, so legitimate
// transactions that happen to embed a denylisted substring survive.
var headerDenylist = []string{
	"LIMITE",
	"VENCIMENTO",
	"FATURA",
	"TOTAL",
	"LANCAMENTOS",
	"ENCARGOS",
	"PROXIMA FATURA",
	"DEMAIS FATURAS",
	"PARCELAMENTO DA FATURA",
	"SIMULACAO",
	"PONTOS",
	"CASHBACK",
	"OUTROS LANCAMENTOS",
	"SALDO FINANCIADO",
	"PRODUTOS E SERVICOS",
	"COMPRAS PARCELADAS",
}

// CleanLine strips private-use-area glyphs, decorative lead symbols and
// collapsed whitespace from a raw extracted line.
func CleanLine(raw string) string {
	s := puaRe.ReplaceAllString(raw, "")
	s = strings.TrimLeft(s, leadGlyphs)
	s = strings.ReplaceAll(s, "_", " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsHeaderNoise reports whether a cleaned line is statement furniture rather
// than transaction content. Lines with a date token are never treated as
// noise.
func IsHeaderNoise(line string) bool {
	if dateTokenRe.MatchString(line) {
		return false
	}
	key := FoldKey(line)
	for _, word := range headerDenylist {
		if strings.Contains(key, word) {
			return true
		}
	}
	return false
}

// ContainsDenylisted reports whether a parsed description still carries a
// denylisted keyword. This is the second-chance filter applied after record
// construction.
func ContainsDenylisted(description string) bool {
	key := FoldKey(description)
	for _, word := range headerDenylist {
		if strings.Contains(key, word) {
			return true
		}
	}
	return false
}

// ExtractCard finds an embedded "final NNNN" card token. It returns the four
// digits and the line with the token removed; ok is false when no token is
// present.
func ExtractCard(line string) (last4, remainder string, ok bool) {
	m := cardRe.FindStringSubmatchIndex(line)
	if m == nil {
		return "", line, false
	}
	last4 = line[m[2]:m[3]]
	remainder = strings.TrimSpace(multiSpaceRe.ReplaceAllString(line[:m[0]]+" "+line[m[1]:], " "))
	return last4, remainder, true
}

// ExtractInstallment parses a trailing "NN/MM" installment suffix from a
// description. Both values are zero when the description is not an
// installment purchase or the sequence lies outside the total.
func ExtractInstallment(description string) (seq, total int) {
	m := installRe.FindStringSubmatch(strings.TrimSpace(description))
	if m == nil {
		return 0, 0
	}
	seq, _ = strconv.Atoi(m[1])
	total, _ = strconv.Atoi(m[2])
	if seq == 0 || total == 0 || seq > total {
		return 0, 0
	}
	return seq, total
}
