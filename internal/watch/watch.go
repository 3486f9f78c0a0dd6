package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 2 * time.Second

// PassFunc 执行一次整理。它总是在 Run 所在的 goroutine 上被串行调用。
type PassFunc func(ctx context.Context)

// Options 是 Watcher 的可选参数。
type Options struct {
	// Debounce 是最后一个事件之后等待的时长；<=0 使用 DefaultDebounce。
	Debounce time.Duration
	// Initial 为 true 时启动后立即执行一次。
	Initial bool
	Logger  *zap.Logger
}

// Watcher 监听目录的直接子项；一批新文件落地后（防抖）触发一次整理。
type Watcher struct {
	dir      string
	pass     PassFunc
	debounce time.Duration
	initial  bool
	logger   *zap.Logger

	ready     chan struct{}
	readyOnce sync.Once
	passes    atomic.Int64
}

func New(dir string, pass PassFunc, opts Options) *Watcher {
	d := opts.Debounce
	if d <= 0 {
		d = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      filepath.Clean(dir),
		pass:     pass,
		debounce: d,
		initial:  opts.Initial,
		logger:   logger.With(zap.String("component", "watch")),
		ready:    make(chan struct{}),
	}
}

// Ready 在开始监听后关闭。
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Passes 返回已执行的整理次数。
func (w *Watcher) Passes() int64 { return w.passes.Load() }

// Run 阻塞直到 ctx 结束。无法开始监听时返回错误。
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %q: %w", w.dir, err)
	}
	w.readyOnce.Do(func() { close(w.ready) })
	w.logger.Info("watching", zap.String("dir", w.dir), zap.Duration("debounce", w.debounce))

	if w.initial {
		w.runPass(ctx)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped", zap.Int64("passes", w.Passes()))
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("event", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.runPass(ctx)
		}
	}
}

func (w *Watcher) runPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n := w.passes.Add(1)
	w.logger.Info("pass triggered", zap.Int64("pass", n))
	w.pass(ctx)
}

// relevant 只关心直接子项的新建/写入；隐藏文件（含原子写入的临时文件）忽略。
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	if filepath.Dir(filepath.Clean(ev.Name)) != w.dir {
		return false
	}
	return !strings.HasPrefix(filepath.Base(ev.Name), ".")
}
