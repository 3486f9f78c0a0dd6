//go:build !linux && !darwin

package scan

import (
	"os"
	"time"
)

func createdTime(info os.FileInfo) time.Time { return info.ModTime() }
