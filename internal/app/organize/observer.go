package organize

import (
	"time"

	"github.com/John-Robertt/AFO/internal/domain"
)

// Observer 用于把"运行进度/阶段/单文件结果"从核心流程中解耦出来。
//
// 约束：
// - organize 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 事件在 Organize 所在的 goroutine 上同步回调；实现不应阻塞。
type Observer interface {
	// OnStart 在扫描开始前调用。
	OnStart(runID string, req Request)
	// OnPhaseDone 在阶段结束时调用（scan/categorize/plan/transfer/cleanup/suggest）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnFileDone 在单个文件处理完成时调用（idx 从 1 开始）。
	OnFileDone(idx, total int, out domain.FileOutcome, dur time.Duration)
}

type nopObserver struct{}

func (nopObserver) OnStart(string, Request) {}
func (nopObserver) OnPhaseDone(string, map[string]any, time.Duration) {}
func (nopObserver) OnFileDone(int, int, domain.FileOutcome, time.Duration) {}
