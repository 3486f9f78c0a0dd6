// Package testsupport 提供测试用的文件系统故障注入与夹具。
package testsupport

import (
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/afero"
)

// FaultFs 包装一个 afero.Fs，按文件名（base name）注入 Rename/Remove/Open 故障。
//
// 未配置故障的调用全部透传给底层 Fs。
type FaultFs struct {
	afero.Fs

	mu           sync.Mutex
	renameErr    map[string]error
	removeErr    map[string]error
	openErr      map[string]error
	crossDevice  bool
	renameCalled int
}

func NewFaultFs(base afero.Fs) *FaultFs {
	return &FaultFs{
		Fs:        base,
		renameErr: map[string]error{},
		removeErr: map[string]error{},
		openErr:   map[string]error{},
	}
}

// FailRename 让源文件名为 name 的 Rename 返回 err（包装为 *os.LinkError）。
func (f *FaultFs) FailRename(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renameErr[name] = err
}

// FailRemove 让 base name 为 name 的 Remove 返回 err。
func (f *FaultFs) FailRemove(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeErr[name] = err
}

// FailOpen 让 base name 为 name 的 Open/OpenFile 返回 err。
func (f *FaultFs) FailOpen(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr[name] = err
}

// CrossDevice 让所有 Rename 返回 EXDEV（模拟跨盘移动）。
func (f *FaultFs) CrossDevice(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.crossDevice = on
}

// RenameCalls 返回 Rename 被调用的次数。
func (f *FaultFs) RenameCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renameCalled
}

func (f *FaultFs) Rename(oldname, newname string) error {
	f.mu.Lock()
	f.renameCalled++
	err, ok := f.renameErr[filepath.Base(oldname)]
	xdev := f.crossDevice
	f.mu.Unlock()

	if ok {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: err}
	}
	if xdev {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: syscall.EXDEV}
	}
	return f.Fs.Rename(oldname, newname)
}

func (f *FaultFs) Remove(name string) error {
	f.mu.Lock()
	err, ok := f.removeErr[filepath.Base(name)]
	f.mu.Unlock()
	if ok {
		return &os.PathError{Op: "remove", Path: name, Err: err}
	}
	return f.Fs.Remove(name)
}

func (f *FaultFs) Open(name string) (afero.File, error) {
	if err := f.openFault(name); err != nil {
		return nil, err
	}
	return f.Fs.Open(name)
}

func (f *FaultFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := f.openFault(name); err != nil {
		return nil, err
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *FaultFs) openFault(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.openErr[filepath.Base(name)]; ok {
		return &os.PathError{Op: "open", Path: name, Err: err}
	}
	return nil
}
