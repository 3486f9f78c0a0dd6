package planner

import (
	"path/filepath"
	"sort"

	"github.com/John-Robertt/AFO/internal/domain"
	"github.com/John-Robertt/AFO/internal/rules"
)

// Plan 为每条记录生成去向 <dest>/<category>/<name>（不做任何写入/移动）。
//
// 输出顺序与输入一致；同名目标不做冲突处理，由执行阶段覆盖。
func Plan(records []domain.FileRecord, rs rules.RuleSet, dest string) []domain.TransferPlan {
	dest = filepath.Clean(dest)
	plans := make([]domain.TransferPlan, 0, len(records))
	for _, rec := range records {
		cat := rules.Match(rec, rs)
		dir := filepath.Join(dest, cat)
		plans = append(plans, domain.TransferPlan{
			Record:   rec,
			Category: cat,
			DstDir:   dir,
			DstAbs:   filepath.Join(dir, rec.Name),
		})
	}
	return plans
}

// CategoryCount 是某类目下计划转移的文件数。
type CategoryCount struct {
	Category string
	Files    int
}

// Summarize 按类目聚合计划（按文件数降序，数量相同按类目名升序）。
func Summarize(plans []domain.TransferPlan) []CategoryCount {
	counts := make(map[string]int, 8)
	for _, p := range plans {
		counts[p.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CategoryCount{Category: c, Files: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Files != out[j].Files {
			return out[i].Files > out[j].Files
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Dirs 返回计划涉及的目标目录（去重、升序），供执行阶段预先创建。
func Dirs(plans []domain.TransferPlan) []string {
	seen := make(map[string]struct{}, 8)
	out := make([]string, 0, 8)
	for _, p := range plans {
		if _, ok := seen[p.DstDir]; ok {
			continue
		}
		seen[p.DstDir] = struct{}{}
		out = append(out, p.DstDir)
	}
	sort.Strings(out)
	return out
}
