package scan

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/John-Robertt/AFO/internal/classify"
	"github.com/John-Robertt/AFO/internal/testsupport"
)

func TestScanDir_DirectChildrenOnly(t *testing.T) {
	fs := afero.NewMemMapFs()
	mtime := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	testsupport.WriteFile(t, fs, "/src/b.unknownext", testsupport.PNGBytes, mtime)
	testsupport.WriteFile(t, fs, "/src/A.PDF", testsupport.PDFBytes, mtime)
	// 子目录中的文件不参与本次扫描。
	testsupport.WriteFile(t, fs, "/src/nested/deep.pdf", testsupport.PDFBytes, mtime)

	got, err := ScanDir(fs, "/src", classify.New(fs, zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.Len(t, got, 2)

	// 稳定排序：按文件名字典序（大写在前）。
	assert.Equal(t, "A.PDF", got[0].Name)
	assert.Equal(t, "/src/A.PDF", got[0].Path)
	assert.Equal(t, ".pdf", got[0].Ext)
	assert.Equal(t, "application/pdf", got[0].Type)
	assert.Equal(t, int64(len(testsupport.PDFBytes)), got[0].Size)
	assert.True(t, got[0].Modified.Equal(mtime))
	assert.False(t, got[0].Created.IsZero())

	assert.Equal(t, "b.unknownext", got[1].Name)
	assert.Equal(t, "image/png", got[1].Type)
}

func TestScanDir_Empty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/src", 0o755))

	got, err := ScanDir(fs, "/src", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanDir_MissingRootIsError(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := ScanDir(fs, "/nope", nil)
	assert.Error(t, err)
}

func TestScanDir_RootIsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	testsupport.WriteFile(t, fs, "/src", []byte("x"), time.Time{})
	_, err := ScanDir(fs, "/src", nil)
	assert.Error(t, err)
}

func TestScanDir_NilClassifierUsesUnknown(t *testing.T) {
	fs := afero.NewMemMapFs()
	testsupport.WriteFile(t, fs, "/src/x.bin", testsupport.OpaqueBytes, time.Time{})

	got, err := ScanDir(fs, "/src", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, classify.TypeUnknown, got[0].Type)
}
