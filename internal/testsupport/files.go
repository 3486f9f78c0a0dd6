package testsupport

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// Fixture 内容：足以被 magic bytes 识别的最小文件头。
var (
	PDFBytes    = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
	PNGBytes    = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	OpaqueBytes = []byte("\x01\x9f\x13\x37\x00\xaa\x00\x42\x00\x17")
)

// WriteFile 在 fs 上创建 path（含父目录），并把修改时间固定为 mtime（零值则不设置）。
func WriteFile(t testing.TB, fs afero.Fs, path string, data []byte, mtime time.Time) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
	if !mtime.IsZero() {
		if err := fs.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("设置时间失败：%v", err)
		}
	}
}

// Exists 判断 path 是否存在。
func Exists(t testing.TB, fs afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("Stat 失败：%v", err)
	}
	return ok
}
