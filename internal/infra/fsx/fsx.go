package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/spf13/afero"
)

// PathTypeConflictError 表示目标路径类型冲突（例如期望目录但实际是文件）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示跨盘（EXDEV）导致的 rename 失败。
// MoveFile 会对它做 copy+delete 降级；直接调用 Rename 的上层可据此区分。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨盘移动失败（EXDEV）：%q -> %q：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice 判断 err 是否为跨盘（EXDEV）错误。
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename 封装 fs.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(fs afero.Fs, src, dst string) error {
	if err := fs.Rename(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// MoveFile 把 src 移动到 dst。
//
// 同盘：rename（原子）。跨盘：copy（含元数据）+ 删除源文件，不保证原子性。
// 目标同名文件会被覆盖（不做冲突处理）。
func MoveFile(fs afero.Fs, src, dst string) error {
	err := Rename(fs, src, dst)
	if err == nil || !IsCrossDevice(err) {
		return err
	}
	if err := CopyFile(fs, src, dst); err != nil {
		return fmt.Errorf("跨盘复制失败：%w", err)
	}
	if err := fs.Remove(src); err != nil {
		return fmt.Errorf("跨盘复制成功但删除源文件失败：%w", err)
	}
	return nil
}

// CopyFile 复制 src 到 dst，并尽量保留权限位与修改时间（等价于 cp -p 的最小子集）。
// 复制失败时会删除不完整的 dst。
func CopyFile(fs afero.Fs, src, dst string) error {
	fi, err := fs.Stat(src)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return &PathTypeConflictError{Path: src, Want: "regular file", Got: fi.Mode().Type().String()}
	}

	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}

	written, err := io.Copy(out, in)
	if err == nil && written != fi.Size() {
		err = fmt.Errorf("复制大小不一致：源 %d 字节，写入 %d 字节", fi.Size(), written)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = fs.Remove(dst)
		return err
	}

	if err := fs.Chmod(dst, fi.Mode().Perm()); err != nil {
		return err
	}
	return fs.Chtimes(dst, fi.ModTime(), fi.ModTime())
}

// EnsureDir 确保 dir 存在且是目录（递归创建）。
func EnsureDir(fs afero.Fs, dir string) error {
	fi, err := fs.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	return fs.MkdirAll(dir, 0o755)
}

// RemoveEmptyDirs 自底向上删除 root 下（不含 root 本身）的空目录，返回删除数量。
//
// 非空目录永远不会被删除；单个目录的失败收集到 errs 中，不中断整体清理。
func RemoveEmptyDirs(fs afero.Fs, root string) (removed int, errs []error) {
	root = filepath.Clean(root)

	dirs := make([]string, 0, 16)
	walkErr := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// 子目录不可读：记录后跳过，其余目录照常处理。
			errs = append(errs, err)
			if info != nil && info.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	// 深度优先：更深的目录先处理，父目录才可能在子目录删除后变空。
	sort.SliceStable(dirs, func(i, j int) bool { return depth(dirs[i]) > depth(dirs[j]) })

	for _, d := range dirs {
		empty, err := afero.IsEmpty(fs, d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !empty {
			continue
		}
		if err := fs.Remove(d); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errs
}

func depth(p string) int {
	n := 0
	for _, r := range p {
		if r == filepath.Separator {
			n++
		}
	}
	return n
}

// WriteFileAtomic 在 dir 下原子写入 name（临时文件 + rename），目标已存在则覆盖。
func WriteFileAtomic(fs afero.Fs, dir, name string, data []byte) error {
	return writeFileAtomic(fs, dir, name, data, 0o644)
}

func writeFileAtomic(fs afero.Fs, dir, name string, data []byte, perm os.FileMode) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 创建同目录临时文件（前缀带 '.'），保证 rename 在同一文件系统内。
	tmp, err := afero.TempFile(fs, dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fs.Chmod(tmpName, perm); err != nil {
		return err
	}

	if err := Rename(fs, tmpName, dst); err != nil {
		return err
	}

	// 目录 fsync：best-effort（不同平台/文件系统的语义差异很大）。
	_ = syncDirBestEffort(fs, dir)
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(fs afero.Fs, dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := fs.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
