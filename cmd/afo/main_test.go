package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/AFO/internal/domain"
	"github.com/John-Robertt/AFO/internal/testsupport"
)

// isolate 把 HOME 指向临时目录，避免读写真实配置与日志。
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	return home
}

func seed(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), testsupport.PDFBytes, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.unknownext"), testsupport.PNGBytes, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.xyz"), testsupport.OpaqueBytes, 0o644))
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLI_Run_NoTTY_StdoutOnlyResultJSON(t *testing.T) {
	home := isolate(t)
	src := filepath.Join(home, "in")
	dst := filepath.Join(home, "out")
	seed(t, src)

	code, stdout, stderr := run(t, "run", src, dst)
	require.Equal(t, 0, code, "stderr=%s", stderr)

	dec := json.NewDecoder(strings.NewReader(stdout))
	var res map[string]any
	require.NoError(t, dec.Decode(&res), "stdout 不是合法 JSON：%q", stdout)
	_, err := dec.Token()
	assert.ErrorIs(t, err, io.EOF, "stdout 只能包含一个 JSON")

	assert.EqualValues(t, 3, res["total_files"])
	assert.EqualValues(t, 3, res["organized"])
	assert.EqualValues(t, 0, res["failures"])
	assert.Equal(t, domain.ModeMove, res["operation_mode"])
	assert.Contains(t, res, "execution_time")
	assert.Contains(t, stderr, "完成（move）")

	assert.FileExists(t, filepath.Join(dst, "documents", "a.pdf"))
	assert.FileExists(t, filepath.Join(dst, "images", "b.unknownext"))
	assert.FileExists(t, filepath.Join(dst, "others", "c.xyz"))
	assert.NoFileExists(t, filepath.Join(src, "a.pdf"))
}

func TestCLI_Run_KeepDryRunAndReport(t *testing.T) {
	home := isolate(t)
	src := filepath.Join(home, "in")
	dst := filepath.Join(home, "out")
	seed(t, src)

	code, stdout, stderr := run(t, "run", src, dst, "--dry-run")
	require.Equal(t, 0, code, "stderr=%s", stderr)
	var res domain.OrganizeResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.True(t, res.DryRun)
	assert.NoDirExists(t, dst, "dry-run 不应创建目标目录")
	assert.FileExists(t, filepath.Join(src, "a.pdf"))

	reportPath := filepath.Join(home, "report.csv")
	code, _, stderr = run(t, "run", src, dst, "--keep", "--report", reportPath)
	require.Equal(t, 0, code, "stderr=%s", stderr)
	assert.FileExists(t, filepath.Join(src, "a.pdf"), "--keep 应保留源文件")
	assert.FileExists(t, filepath.Join(dst, "documents", "a.pdf"))

	b, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "name,extension,type,size_mb,modified,created\n"))
}

func TestCLI_Run_UsesConfiguredDefaults(t *testing.T) {
	home := isolate(t)
	src := filepath.Join(home, "Downloads")
	seed(t, src)

	code, _, stderr := run(t, "run")
	require.Equal(t, 0, code, "stderr=%s", stderr)
	assert.FileExists(t, filepath.Join(home, "OrganizedFiles", "documents", "a.pdf"))
}

func TestCLI_Run_MissingSource(t *testing.T) {
	home := isolate(t)
	code, stdout, stderr := run(t, "run", filepath.Join(home, "nope"), filepath.Join(home, "out"))
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "源目录不存在")
}

func TestCLI_Validate(t *testing.T) {
	home := isolate(t)
	src := filepath.Join(home, "in")
	require.NoError(t, os.MkdirAll(src, 0o755))

	code, _, stderr := run(t, "validate", src, src)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "不能相同")

	dst := filepath.Join(home, "new", "out")
	code, stdout, _ := run(t, "validate", src, dst)
	assert.Equal(t, 0, code)
	assert.Equal(t, "OK\n", stdout)
	assert.DirExists(t, dst)

	code, _, _ = run(t, "validate", src)
	assert.Equal(t, 1, code, "参数个数错误")
}

func TestCLI_ConfigLifecycle(t *testing.T) {
	home := isolate(t)
	want := filepath.Join(home, ".config", "afo", "config.toml")

	code, stdout, _ := run(t, "config", "path")
	require.Equal(t, 0, code)
	assert.Equal(t, want+"\n", stdout)

	code, _, _ = run(t, "config", "init")
	require.Equal(t, 0, code)
	assert.FileExists(t, want)

	code, _, stderr := run(t, "config", "init")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--force")

	code, stdout, _ = run(t, "config", "show")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "[ai]")
	assert.Contains(t, stdout, "gemini-2.0-flash")

	code, _, _ = run(t, "config", "reset")
	require.Equal(t, 0, code)
	assert.NoFileExists(t, want)
}

func TestCLI_ExplicitMissingConfig(t *testing.T) {
	home := isolate(t)
	code, _, stderr := run(t, "--config", filepath.Join(home, "missing.toml"), "run", home, filepath.Join(home, "o"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "config_not_found")
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", maskKey(""))
	assert.Equal(t, "****", maskKey("abc"))
	assert.Equal(t, "******cdef", maskKey("1234abcdef"))
}
