package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	ModeCopy = "copy"
	ModeMove = "move"
)

const (
	FileStatusPlanned = "planned"
	FileStatusCopied  = "copied"
	FileStatusMoved   = "moved"
	FileStatusFailed  = "failed"
)

// OrganizeResult 是一次 organize 的对外稳定输出（stdout JSON / 调用方返回值）。
type OrganizeResult struct {
	RunID  string `json:"run_id"`
	Source string `json:"source"`
	Dest   string `json:"dest"`
	Mode   string `json:"operation_mode"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Elapsed    time.Duration `json:"-"`

	Total            int `json:"total_files"`
	Succeeded        int `json:"organized"`
	Failed           int `json:"failures"`
	EmptyDirsRemoved int `json:"empty_dirs_removed"`

	Categories  CategoryMap   `json:"custom_categories"`
	Suggestions []string      `json:"suggestions"`
	Warnings    []string      `json:"warnings"`
	Files       []FileOutcome `json:"files"`

	// Records 是扫描快照，仅供报表使用，不进入 JSON。
	Records []FileRecord `json:"-"`
}

// FileOutcome 是单个文件的处理结果（成功/失败显式区分，失败不会向上抛出）。
type FileOutcome struct {
	Name     string `json:"name"`
	Src      string `json:"src"`
	Dst      string `json:"dst"`
	Category string `json:"category"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// ModeFor 把 keepOriginals 映射为 copy|move。
func ModeFor(keepOriginals bool) string {
	if keepOriginals {
		return ModeCopy
	}
	return ModeMove
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) files 稳定排序：按 name 字典序
// 3) Succeeded/Failed 由 files 计算得出（planned 不计入任何一方）
func (r *OrganizeResult) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Files, func(i, j int) bool { return r.Files[i].Name < r.Files[j].Name })

	ok, fail := 0, 0
	for _, f := range r.Files {
		switch f.Status {
		case FileStatusCopied, FileStatusMoved:
			ok++
		case FileStatusFailed:
			fail++
		}
	}
	r.Succeeded = ok
	r.Failed = fail

	// nil slice 输出为 null 对调用方不友好，统一为空数组。
	if r.Suggestions == nil {
		r.Suggestions = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	if r.Files == nil {
		r.Files = []FileOutcome{}
	}
	if r.Categories.Categories == nil {
		r.Categories.Categories = []string{}
	}
	if r.Categories.Files == nil {
		r.Categories.Files = map[string]string{}
	}
}

// ElapsedSeconds 返回保留两位小数的耗时（秒）。
func (r OrganizeResult) ElapsedSeconds() float64 {
	return float64(r.Elapsed.Milliseconds()/10) / 100
}

// MarshalJSON 额外输出 execution_time（秒），其余字段透传 encoding/json 的默认行为。
func (r OrganizeResult) MarshalJSON() ([]byte, error) {
	type Alias OrganizeResult
	return json.Marshal(struct {
		Alias
		ExecutionTime float64 `json:"execution_time"`
	}{
		Alias:         Alias(r),
		ExecutionTime: r.ElapsedSeconds(),
	})
}
