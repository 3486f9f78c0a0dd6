package report

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/John-Robertt/AFO/internal/domain"
	"github.com/John-Robertt/AFO/internal/testsupport"
)

func sample() []domain.FileRecord {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []domain.FileRecord{
		{Name: "a.pdf", Ext: ".pdf", Type: "application/pdf", Size: 3 * 1024 * 1024, Modified: ts, Created: ts},
		{Name: "README", Ext: "", Type: "text/plain", Size: 512, Modified: ts, Created: ts},
	}
}

func TestCSV_Layout(t *testing.T) {
	out := CSV(sample())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,extension,type,size_mb,modified,created", lines[0])
	assert.Equal(t, "a.pdf,.pdf,application/pdf,3.00,2024-03-01T12:00:00Z,2024-03-01T12:00:00Z", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "README,,text/plain,0.00,"))
}

func TestCSV_Empty(t *testing.T) {
	assert.Equal(t, "name,extension,type,size_mb,modified,created\n", CSV(nil))
}

func TestWriteCSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, zaptest.NewLogger(t))

	require.True(t, s.WriteCSV(sample(), "/out/reports/files.csv"))
	b, err := afero.ReadFile(fs, "/out/reports/files.csv")
	require.NoError(t, err)
	assert.Equal(t, CSV(sample()), string(b))
}

func TestWriteCSV_FailureReturnsFalse(t *testing.T) {
	ffs := testsupport.NewFaultFs(afero.NewMemMapFs())
	ffs.CrossDevice(true)
	s := New(ffs, zaptest.NewLogger(t))

	assert.False(t, s.WriteCSV(sample(), "/out/files.csv"))
	assert.False(t, testsupport.Exists(t, ffs, "/out/files.csv"))
	assert.False(t, s.WriteCSV(sample(), "  "))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(sample())
	assert.Contains(t, out, "a.pdf")
	assert.Contains(t, out, "3.0 MiB")
	assert.Contains(t, strings.ToLower(out), "2 files")
}
