//go:build !unix

package fsx

// 非 unix 平台：rename 跨卷失败不会以 EXDEV 形式出现，统一按普通错误处理。
func isEXDEV(err error) bool { return false }
