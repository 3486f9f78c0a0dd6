package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/John-Robertt/AFO/internal/domain"
	"github.com/John-Robertt/AFO/internal/infra/fsx"
)

// Columns 是 CSV 报表的固定列（顺序即输出顺序）。
var Columns = []string{"name", "extension", "type", "size_mb", "modified", "created"}

// Sink 把文件清单写成表格报表。失败只记录日志并返回 false，不向上抛出。
type Sink struct {
	fs     afero.Fs
	logger *zap.Logger
}

func New(fs afero.Fs, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{fs: fs, logger: logger.With(zap.String("component", "report"))}
}

// WriteCSV 原子写入 CSV 报表到 path（父目录不存在则创建）。
func (s *Sink) WriteCSV(records []domain.FileRecord, path string) bool {
	path = strings.TrimSpace(path)
	if path == "" {
		s.logger.Warn("report path is empty")
		return false
	}
	path = filepath.Clean(path)

	if err := fsx.WriteFileAtomic(s.fs, filepath.Dir(path), filepath.Base(path), []byte(CSV(records))); err != nil {
		s.logger.Error("write report failed", zap.String("file", path), zap.Error(err))
		return false
	}
	s.logger.Info("report written", zap.String("file", path), zap.Int("rows", len(records)))
	return true
}

// CSV 渲染 CSV 文本（含表头，以换行结尾）。
func CSV(records []domain.FileRecord) string {
	tw := table.NewWriter()
	tw.AppendHeader(headerRow())
	for _, r := range records {
		tw.AppendRow(table.Row{
			r.Name,
			r.Ext,
			r.Type,
			fmt.Sprintf("%.2f", r.SizeMB()),
			formatTime(r.Modified),
			formatTime(r.Created),
		})
	}
	return tw.RenderCSV() + "\n"
}

// RenderTable 渲染终端表格（大小用人类可读格式）。
func RenderTable(records []domain.FileRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(headerRow())
	var total int64
	for _, r := range records {
		total += r.Size
		tw.AppendRow(table.Row{
			r.Name,
			r.Ext,
			r.Type,
			humanize.IBytes(uint64(max(r.Size, 0))),
			humanize.Time(r.Modified),
			formatTime(r.Created),
		})
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d files", len(records)), "", "", humanize.IBytes(uint64(max(total, 0))), "", ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}

func headerRow() table.Row {
	row := make(table.Row, len(Columns))
	for i, c := range Columns {
		row[i] = c
	}
	return row
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
