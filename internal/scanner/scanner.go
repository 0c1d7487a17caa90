// Package scanner walks a directory tree and finds statement files to parse,
// deriving each statement's reference period from its name.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Metadata describes a discovered statement file.
type Metadata struct {
	FilePath   string
	Year       int
	Month      int
	DetectedAt time.Time
}

// HasPeriod reports whether a reference period was derived from the filename.
func (m Metadata) HasPeriod() bool {
	return m.Year > 0 && m.Month >= 1 && m.Month <= 12
}

// Scanner walks a directory tree and finds statement files.
type Scanner struct {
	rootDir string
}

// New creates a scanner rooted at rootDir.
func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// ScanResult is one discovered statement file.
type ScanResult struct {
	Path     string
	Metadata Metadata
}

// Scan walks the directory tree and returns every statement file found.
func (s *Scanner) Scan() ([]ScanResult, error) {
	var results []ScanResult

	rootDir := s.expandHome(s.rootDir)

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !s.isStatementFile(path) {
			return nil
		}

		results = append(results, ScanResult{
			Path:     path,
			Metadata: ExtractMetadata(path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	return results, nil
}

// isStatementFile checks if file is a known statement format. PDFs are the
// bank's native export; .txt files are pre-extracted text snapshots.
func (s *Scanner) isStatementFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pdf" || ext == ".txt"
}

var (
	// "Itau_202504.pdf" style compact token. The token must not sit inside a
	// longer digit run (account and card numbers embed year-like digits).
	reCompactPeriod = regexp.MustCompile(`(?:\A|[^\d])(20\d{2})(0[1-9]|1[0-2])(?:[^\d]|\z)`)
	// "2025-04" style dashed token.
	reDashedPeriod = regexp.MustCompile(`(?:\A|[^\d])(20\d{2})-(0[1-9]|1[0-2])(?:[^\d]|\z)`)
)

// ExtractMetadata derives the reference period from the file name. Itaú
// exports carry a YYYYMM token; normalized archives use YYYY-MM. Files whose
// names carry neither get zero Year/Month and the caller must supply the
// period explicitly.
func ExtractMetadata(filePath string) Metadata {
	meta := Metadata{
		FilePath:   filePath,
		DetectedAt: time.Now(),
	}

	base := filepath.Base(filePath)
	m := reCompactPeriod.FindStringSubmatch(base)
	if m == nil {
		m = reDashedPeriod.FindStringSubmatch(base)
	}
	if m == nil {
		return meta
	}

	meta.Year, _ = strconv.Atoi(m[1])
	meta.Month, _ = strconv.Atoi(m[2])
	return meta
}

// expandHome expands ~ to home directory
func (s *Scanner) expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
