package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_Scan(t *testing.T) {
	tmpDir := t.TempDir()

	// tmpDir/
	//   2025/
	//     Itau_202504.pdf
	//   snapshots/
	//     fatura-2025-03.txt
	//   ignored/
	//     notes.md
	//     export.csv

	yearDir := filepath.Join(tmpDir, "2025")
	require.NoError(t, os.MkdirAll(yearDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(yearDir, "Itau_202504.pdf"), []byte("test"), 0644))

	snapDir := filepath.Join(tmpDir, "snapshots")
	require.NoError(t, os.MkdirAll(snapDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(snapDir, "fatura-2025-03.txt"), []byte("test"), 0644))

	ignoredDir := filepath.Join(tmpDir, "ignored")
	require.NoError(t, os.MkdirAll(ignoredDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ignoredDir, "notes.md"), []byte("test"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(ignoredDir, "export.csv"), []byte("test"), 0644))

	scanner := New(tmpDir)
	results, err := scanner.Scan()
	require.NoError(t, err)

	assert.Len(t, results, 2, "should find 2 statement files")

	foundPDF := false
	foundTXT := false
	for _, result := range results {
		switch filepath.Base(result.Path) {
		case "Itau_202504.pdf":
			foundPDF = true
			assert.Equal(t, 2025, result.Metadata.Year)
			assert.Equal(t, 4, result.Metadata.Month)
			assert.True(t, result.Metadata.HasPeriod())
		case "fatura-2025-03.txt":
			foundTXT = true
			assert.Equal(t, 2025, result.Metadata.Year)
			assert.Equal(t, 3, result.Metadata.Month)
		}
		assert.NotEmpty(t, result.Metadata.FilePath)
		assert.False(t, result.Metadata.DetectedAt.IsZero())
	}
	assert.True(t, foundPDF, "should find the PDF export")
	assert.True(t, foundTXT, "should find the text snapshot")
}

func TestScanner_Scan_NonExistentDirectory(t *testing.T) {
	scanner := New("/nonexistent/directory/path")
	results, err := scanner.Scan()

	assert.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "scan failed")
}

func TestScanner_Scan_EmptyDirectory(t *testing.T) {
	scanner := New(t.TempDir())
	results, err := scanner.Scan()

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExtractMetadata(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantYear  int
		wantMonth int
	}{
		{"compact token", "/base/Itau_202504.pdf", 2025, 4},
		{"dashed token", "/base/fatura-2025-03.txt", 2025, 3},
		{"compact december", "/base/202412_itau.pdf", 2024, 12},
		{"no period token", "/base/statement.pdf", 0, 0},
		{"month out of range", "/base/Itau_202513.pdf", 0, 0},
		{"year-like digits inside longer number", "/base/card-9920250477.pdf", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ExtractMetadata(tt.filePath)

			assert.Equal(t, tt.wantYear, meta.Year)
			assert.Equal(t, tt.wantMonth, meta.Month)
			assert.Equal(t, tt.filePath, meta.FilePath)
			assert.False(t, meta.DetectedAt.IsZero())
		})
	}
}

func TestMetadata_HasPeriod(t *testing.T) {
	assert.True(t, Metadata{Year: 2025, Month: 4}.HasPeriod())
	assert.False(t, Metadata{Year: 2025}.HasPeriod())
	assert.False(t, Metadata{Month: 4}.HasPeriod())
	assert.False(t, Metadata{}.HasPeriod())
}

func TestIsStatementFile(t *testing.T) {
	scanner := New("")

	tests := []struct {
		path     string
		expected bool
	}{
		{"statement.pdf", true},
		{"statement.txt", true},
		{"STATEMENT.PDF", true},
		{"Statement.Txt", true},
		{"export.csv", false},
		{"data.json", false},
		{"noextension", false},
		{"", false},
		{"/path/to/Itau_202504.pdf", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, scanner.isStatementFile(tt.path))
		})
	}
}

func TestExpandHome(t *testing.T) {
	scanner := New("")

	homeDir, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(homeDir, "statements"), scanner.expandHome("~/statements"))
	assert.Equal(t, "/absolute/path", scanner.expandHome("/absolute/path"))
	assert.Equal(t, "relative/path", scanner.expandHome("relative/path"))
	assert.Equal(t, "", scanner.expandHome(""))
	assert.Equal(t, "~", scanner.expandHome("~"))
}

func TestScanner_Scan_IgnoresDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "statement.pdf"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "real.pdf"), []byte("test"), 0644))

	scanner := New(tmpDir)
	results, err := scanner.Scan()

	require.NoError(t, err)
	assert.Len(t, results, 1, "should only find the file, not the directory")
	assert.Contains(t, results[0].Path, "real.pdf")
}
