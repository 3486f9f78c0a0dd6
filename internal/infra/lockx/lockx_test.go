package lockx

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireAt_SecondHolderRefused(t *testing.T) {
	p := filepath.Join(t.TempDir(), "src.lock")

	l1, err := AcquireAt(p)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	if _, err := AcquireAt(p); !errors.Is(err, ErrLocked) {
		t.Fatalf("期望 ErrLocked，实际 %v", err)
	}

	if err := l1.Release(); err != nil {
		t.Fatalf("释放失败：%v", err)
	}

	l2, err := AcquireAt(p)
	if err != nil {
		t.Fatalf("释放后应可重新获取：%v", err)
	}
	_ = l2.Release()
}

func TestPathFor_StablePerSource(t *testing.T) {
	a1, err := PathFor("/data/in")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	a2, _ := PathFor("/data/in/")
	b, _ := PathFor("/data/other")

	if a1 != a2 {
		t.Fatalf("同一目录应得到同一锁文件：%q vs %q", a1, a2)
	}
	if a1 == b {
		t.Fatalf("不同目录不应共享锁文件")
	}
	if !strings.HasPrefix(filepath.Base(a1), "afo-") || filepath.Ext(a1) != ".lock" {
		t.Fatalf("锁文件命名不符合约定：%q", a1)
	}
}

func TestRelease_Nil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Fatalf("nil lock 释放不应报错：%v", err)
	}
}

func TestAcquire_PathMatchesPathFor(t *testing.T) {
	src := t.TempDir()
	want, err := PathFor(src)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	l, err := Acquire(src)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	defer func() { _ = l.Release() }()

	if l.Path() != want {
		t.Fatalf("锁文件路径不一致：%q vs %q", l.Path(), want)
	}
}
