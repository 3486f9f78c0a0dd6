//go:build darwin

package scan

import (
	"os"
	"syscall"
	"time"
)

// createdTime 在 darwin 上返回真实的创建时间（birth time）。
func createdTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok && st != nil {
		return time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec)
	}
	return info.ModTime()
}
