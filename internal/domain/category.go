package domain

// CategoryMap 是 AI 给出的分类建议：类目列表 + 文件名到类目的映射。
//
// 仅作参考信息写入结果，不参与 Rule Matcher 的决策。
type CategoryMap struct {
	Categories []string          `json:"categories"`
	Files      map[string]string `json:"files"`
}

// Empty 表示没有任何可用的建议。
func (m CategoryMap) Empty() bool {
	return len(m.Categories) == 0 && len(m.Files) == 0
}
