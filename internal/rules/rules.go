package rules

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/AFO/internal/domain"
)

// FallbackCategory 是兜底类目：保证 Match 对任意输入都有且仅有一个结果。
const FallbackCategory = "others"

// typeCategories 是按类型前缀兜底时识别的固定集合。
var typeCategories = map[string]string{
	"image": "images",
	"video": "videos",
	"audio": "audios",
	"text":  "texts",
}

// Rule 是一条"类目 -> 扩展名集合"规则。
type Rule struct {
	Category   string   `toml:"category" json:"category"`
	Extensions []string `toml:"extensions" json:"extensions"`
}

// RuleSet 是有序规则表。
//
// 迭代顺序即配置顺序；同一扩展名出现在多个类目时，排在前面的类目胜出（tie-break 契约）。
type RuleSet struct {
	rules []Rule
	index map[string]int // ext -> 首个命中规则的下标
}

// New 规范化并构建 RuleSet：类目名 trim，扩展名统一为小写 + 前导 '.'，空值丢弃。
//
// 类目名重复视为配置错误（否则 tie-break 语义会变得含糊）。
func New(rs ...Rule) (RuleSet, error) {
	out := RuleSet{
		rules: make([]Rule, 0, len(rs)),
		index: make(map[string]int, 64),
	}
	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		cat := strings.TrimSpace(r.Category)
		if cat == "" {
			return RuleSet{}, fmt.Errorf("规则类目名不能为空")
		}
		key := strings.ToLower(cat)
		if _, dup := seen[key]; dup {
			return RuleSet{}, fmt.Errorf("重复的规则类目：%q", cat)
		}
		seen[key] = struct{}{}

		exts := make([]string, 0, len(r.Extensions))
		for _, e := range r.Extensions {
			e = NormalizeExt(e)
			if e == "" {
				continue
			}
			exts = append(exts, e)
			if _, ok := out.index[e]; !ok {
				out.index[e] = len(out.rules)
			}
		}
		out.rules = append(out.rules, Rule{Category: cat, Extensions: exts})
	}
	return out, nil
}

// MustNew 与 New 相同，但出错时 panic（仅用于内置默认值与测试）。
func MustNew(rs ...Rule) RuleSet {
	s, err := New(rs...)
	if err != nil {
		panic(err)
	}
	return s
}

// NormalizeExt 把 "PDF" / ".Pdf" / " .pdf " 统一为 ".pdf"。
func NormalizeExt(e string) string {
	e = strings.ToLower(strings.TrimSpace(e))
	if e == "" || e == "." {
		return ""
	}
	if !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}

// Rules 返回规则副本（按配置顺序）。
func (s RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = Rule{Category: r.Category, Extensions: append([]string(nil), r.Extensions...)}
	}
	return out
}

// Len 返回规则条数。
func (s RuleSet) Len() int { return len(s.rules) }

// Lookup 按扩展名（大小写不敏感）查找类目；多个类目都包含该扩展名时返回配置顺序中的第一个。
func (s RuleSet) Lookup(ext string) (string, bool) {
	ext = NormalizeExt(ext)
	if ext == "" {
		return "", false
	}
	idx, ok := s.index[ext]
	if !ok {
		return "", false
	}
	return s.rules[idx].Category, true
}

// Match 为文件确定唯一的目标类目：
// 1) 扩展名精确匹配（大小写不敏感，配置顺序优先）
// 2) 类型前缀 image|video|audio|text -> 复数形式
// 3) 兜底 others
func Match(rec domain.FileRecord, s RuleSet) string {
	if cat, ok := s.Lookup(rec.Ext); ok {
		return cat
	}
	if cat, ok := typeCategories[typePrefix(rec.Type)]; ok {
		return cat
	}
	return FallbackCategory
}

// typePrefix 取类型串第一段（"image/png; x=y" -> "image"）。
func typePrefix(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if i := strings.IndexAny(t, "/;"); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}
