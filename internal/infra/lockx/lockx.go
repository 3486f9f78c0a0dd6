package lockx

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked 表示同一源目录已有一次整理在进行。
var ErrLocked = errors.New("源目录正在被另一个进程整理")

// Lock 是按源目录区分的进程间互斥锁（flock）。
type Lock struct {
	path string
	fl   *flock.Flock
}

// PathFor 返回 source 对应的锁文件路径：<TMPDIR>/afo-<hash>.lock。
func PathFor(source string) (string, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum([]byte(abs))
	return filepath.Join(os.TempDir(), "afo-"+hex.EncodeToString(sum[:])[:12]+".lock"), nil
}

// Acquire 非阻塞地获取 source 的锁；已被占用时返回 ErrLocked。
func Acquire(source string) (*Lock, error) {
	p, err := PathFor(source)
	if err != nil {
		return nil, err
	}
	return AcquireAt(p)
}

// AcquireAt 与 Acquire 相同，但直接指定锁文件路径。
func AcquireAt(path string) (*Lock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %q: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w（%s）", ErrLocked, path)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path 返回锁文件路径（用于日志排查"源目录被占用"）。
func (l *Lock) Path() string { return l.path }

// Release 释放锁。锁文件保留在原处，供下次复用。
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
