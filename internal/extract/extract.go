// Package extract turns statement files into raw text lines. PDFs go through
// a multi-method text extraction; .txt files are pre-extracted snapshots and
// pass straight through. Downstream parsing never sees page structure, only
// lines in reading order.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Lines reads a statement file and returns its text lines in reading order.
// The source format is chosen by extension.
func Lines(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return readSnapshot(path)
	case ".pdf":
		pages, err := ExtractText(path)
		if err != nil {
			return nil, err
		}
		return splitPages(pages), nil
	default:
		return nil, fmt.Errorf("unsupported statement format %q (want .pdf or .txt)", filepath.Ext(path))
	}
}

// readSnapshot loads a pre-extracted text snapshot.
func readSnapshot(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(text, "\n"), nil
}

func splitPages(pages []string) []string {
	var lines []string
	for _, page := range pages {
		lines = append(lines, strings.Split(page, "\n")...)
	}
	return lines
}
