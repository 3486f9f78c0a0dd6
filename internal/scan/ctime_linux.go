//go:build linux

package scan

import (
	"os"
	"syscall"
	"time"
)

// createdTime 返回 inode change time（与 st_ctime 一致）；拿不到时退化为修改时间。
func createdTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok && st != nil {
		return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	}
	return info.ModTime()
}
