package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLines_Snapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Itau_202504.txt")
	content := "FATURA ITAU\r\n28/09 FARMACIA SAO JOAO 21,73\nTOTAL A PAGAR 21,73\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := Lines(path)
	if err != nil {
		t.Fatalf("Lines() error = %v", err)
	}
	if len(lines) < 3 {
		t.Fatalf("got %d lines, want at least 3", len(lines))
	}
	if lines[0] != "FATURA ITAU" {
		t.Errorf("lines[0] = %q, CRLF not normalized", lines[0])
	}
	if lines[1] != "28/09 FARMACIA SAO JOAO 21,73" {
		t.Errorf("lines[1] = %q", lines[1])
	}
}

func TestLines_UnsupportedExtension(t *testing.T) {
	_, err := Lines("statement.csv")
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("Lines(.csv) error = %v, want unsupported format", err)
	}
}

func TestLines_MissingSnapshot(t *testing.T) {
	_, err := Lines(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Error("Lines() expected error for missing file")
	}
}

func TestIsReadableText(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  bool
	}{
		{
			"real statement text",
			[]string{"FATURA ITAU UNICLASS\nTOTAL A PAGAR R$ 4.327,18\n28/09 FARMACIA SAO JOAO 21,73"},
			true,
		},
		{
			"too short",
			[]string{"fatura"},
			false,
		},
		{
			"readable but no statement vocabulary",
			[]string{strings.Repeat("the quick brown fox jumps over the lazy dog ", 3)},
			false,
		},
		{
			"binary garbage",
			[]string{strings.Repeat("\x01\x02", 50) + " fatura"},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isReadableText(tt.pages); got != tt.want {
				t.Errorf("isReadableText() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTextQuality(t *testing.T) {
	if q := textQuality([]string{"FATURA 21,73 R$"}); q < 0.9 {
		t.Errorf("clean text quality = %v, want >= 0.9", q)
	}
	if q := textQuality([]string{strings.Repeat("", 100)}); q > 0.1 {
		t.Errorf("garbage quality = %v, want <= 0.1", q)
	}
	if q := textQuality(nil); q != 0 {
		t.Errorf("empty quality = %v, want 0", q)
	}
}
