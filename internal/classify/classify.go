package classify

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// TypeOctetStream 表示内容可读但无法识别具体类型。
	TypeOctetStream = "application/octet-stream"
	// TypeUnknown 表示文件内容不可读，且扩展名也无法推断类型。
	TypeUnknown = "unknown"
)

// Classifier 负责给文件一个"尽力而为"的类型串。
//
// 顺序（固定）：magic bytes 嗅探 -> 扩展名推断 -> 哨兵值。
// Classify 永不返回错误：单个不可读文件不能阻塞整个流程。
type Classifier struct {
	fs     afero.Fs
	logger *zap.Logger
}

func New(fs afero.Fs, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{fs: fs, logger: logger.With(zap.String("component", "classify"))}
}

// Classify 返回 path 的类型串（例如 "image/png"）。
func (c *Classifier) Classify(path string) string {
	sniffed, err := c.sniff(path)
	if err != nil {
		c.logger.Debug("content sniffing failed, falling back to extension",
			zap.String("file", path), zap.Error(err))
	} else if sniffed != TypeOctetStream {
		return sniffed
	}

	if byExt := byExtension(filepath.Base(path)); byExt != "" {
		return byExt
	}
	if err != nil {
		c.logger.Warn("file type undetectable", zap.String("file", path), zap.Error(err))
		return TypeUnknown
	}
	return TypeOctetStream
}

func (c *Classifier) sniff(path string) (string, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// 空文件没有可嗅探的内容（mimetype 会把它报成 text/plain），按不可识别处理。
	if fi, err := f.Stat(); err == nil && fi.Size() == 0 {
		return TypeOctetStream, nil
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

func byExtension(name string) string {
	ext := Extension(name)
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}

// Extension 返回小写扩展名（含前导 '.'）。
// 形如 ".bashrc" 的隐藏文件视为无扩展名。
func Extension(name string) string {
	name = filepath.Base(name)
	trimmed := strings.TrimLeft(name, ".")
	if !strings.Contains(trimmed, ".") {
		return ""
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "." {
		return ""
	}
	return ext
}
