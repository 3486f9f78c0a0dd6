package domain

import "time"

// FileRecord 描述一次扫描得到的文件快照（扫描时的磁盘状态，只读）。
//
// 不变量（实现必须遵守）：
// - Path 必须是 clean + absolute
// - Ext 为小写且带前导 '.'；无扩展名时为空串
// - 一次 organize 结束后即丢弃，不做持久化
type FileRecord struct {
	Name     string
	Path     string
	Size     int64
	Modified time.Time
	Created  time.Time
	Type     string // 例如 "image/png"；无法识别时为哨兵值
	Ext      string // ".pdf"
}

// SizeMB 返回以 MiB 为单位的大小（用于报表）。
func (r FileRecord) SizeMB() float64 {
	return float64(r.Size) / (1024 * 1024)
}
