package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/AFO/internal/app/organize"
	"github.com/John-Robertt/AFO/internal/domain"
)

var _ organize.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出。
//
// 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约；
// 长时间没有文件完成时 keepalive 会定期输出一行。
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total int
	done  int
	ok    int
	fail  int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(runID string, req organize.Request) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	mode := domain.ModeFor(req.KeepOriginals)
	if req.DryRun {
		mode += " (dry-run：不创建目录/不移动/不调用 AI)"
	}
	fmt.Fprintf(p.w, "[%s] afo run %s\n", now.Format("15:04:05"), shortID(runID))
	fmt.Fprintf(p.w, "  source: %s\n", req.Source)
	fmt.Fprintf(p.w, "  dest:   %s\n", req.Dest)
	fmt.Fprintf(p.w, "  mode:   %s\n", mode)
	fmt.Fprintf(p.w, "  ai:     %s\n", onOff(req.UseAI && !req.DryRun))
	fmt.Fprintln(p.w)
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "scan":
		p.total = intField(fields, "files")
		fmt.Fprintf(p.w, "扫描: files=%d (%s)\n", p.total, formatShortDuration(dur))
	case "categorize", "suggest":
		label := map[string]string{"categorize": "AI 分类", "suggest": "AI 建议"}[name]
		if ok, _ := fields["ok"].(bool); ok {
			fmt.Fprintf(p.w, "%s: ok (%s)\n", label, formatShortDuration(dur))
		} else {
			fmt.Fprintf(p.w, "%s: 失败，已忽略 (%s)\n", label, formatShortDuration(dur))
		}
	case "plan":
		fmt.Fprintf(p.w, "规划: %s (%s)\n\n", formatCategoryCounts(fields), formatShortDuration(dur))
		if p.total > 0 && !p.tickerStarted {
			p.startTickerLocked()
		}
	case "transfer":
		fmt.Fprintf(p.w, "\n转移: ok=%d fail=%d (%s)\n", p.ok, p.fail, formatShortDuration(dur))
	case "cleanup":
		fmt.Fprintf(p.w, "清理: removed=%d errors=%d (%s)\n",
			intField(fields, "removed"), intField(fields, "errors"), formatShortDuration(dur))
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnFileDone(idx, total int, out domain.FileOutcome, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total

	switch out.Status {
	case domain.FileStatusFailed:
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL: %s (%s)\n",
			idx, total, out.Name, truncate(out.Error, 160), formatShortDuration(dur))
	default:
		if out.Status != domain.FileStatusPlanned {
			p.ok++
		}
		fmt.Fprintf(p.w, "[%d/%d] %s -> %s %s (%s)\n",
			idx, total, out.Name, out.Category, strings.ToUpper(out.Status), formatShortDuration(dur))
	}
	p.lastPrinted = time.Now()

	// 最后一个文件完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.done >= p.total {
		p.stopTickerLocked()
	}
}

// Stop 停止 keepalive（Organize 提前返回时由调用方兜底调用）。
func (p *progressUI) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTickerLocked()
}

func (p *progressUI) stopTickerLocked() {
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	stopCh := make(chan struct{})
	p.stopCh = stopCh
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.fail, formatElapsed(time.Since(p.startedAt)))
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stopCh:
				return
			}
		}
	}()
}

func formatCategoryCounts(fields map[string]any) string {
	if len(fields) == 0 {
		return "无"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, intField(fields, k)))
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	default:
		return 0
	}
}
