package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_ConsoleLevelFollowsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Console: &buf})
	require.NoError(t, err)
	logger.Info("quiet")
	logger.Warn("loud")
	closer()

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")

	buf.Reset()
	logger, closer, err = New(Options{Console: &buf, Debug: true})
	require.NoError(t, err)
	logger.Info("now visible")
	logger.Debug("still hidden")
	closer()

	assert.Contains(t, buf.String(), "now visible")
	assert.NotContains(t, buf.String(), "still hidden")
}

func TestNew_FileCoreWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "state", "afo.log")
	logger, closer, err := New(Options{Console: &buf, File: path})
	require.NoError(t, err)
	logger.Debug("detail", zap.String("file", "a.pdf"))
	closer()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(b))
	assert.True(t, strings.HasPrefix(line, "{"), "文件日志应为 JSON：%s", line)
	assert.Contains(t, line, `"msg":"detail"`)
	assert.Contains(t, line, `"file":"a.pdf"`)
	assert.Empty(t, buf.String(), "debug 日志不应出现在控制台")
}

func TestNew_FileLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "afo.log")
	logger, closer, err := New(Options{Console: &bytes.Buffer{}, File: path, Level: "WARN"})
	require.NoError(t, err)
	logger.Info("skip me")
	logger.Error("keep me")
	closer()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "skip me")
	assert.Contains(t, string(b), "keep me")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(Options{File: filepath.Join(t.TempDir(), "x.log"), Level: "chatty"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Info("nothing") })
}
