package suggest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/John-Robertt/AFO/internal/domain"
)

const (
	// MaxCategorizeFiles 是分类建议 prompt 中最多携带的文件数。
	MaxCategorizeFiles = 20
	// MaxSuggestFiles 是整理建议 prompt 中最多携带的文件数。
	MaxSuggestFiles = 5
)

// ErrEmptyReply 表示模型没有返回任何文本。
var ErrEmptyReply = errors.New("AI 返回为空")

// Prompt 是一次模型调用的输入。
type Prompt struct {
	System string
	User   string
	// JSON 为 true 时要求模型以 application/json 回复。
	JSON bool
}

// Generator 是对底层模型的最小抽象（便于测试替换）。
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Cache 保存模型的原始回复，按 prompt 摘要寻址。
type Cache interface {
	Read(kind, key string) ([]byte, bool, error)
	Write(kind, key string, b []byte) error
}

// Client 负责组 prompt 与解析回复；网络与鉴权由 Generator 负责。
type Client struct {
	gen    Generator
	logger *zap.Logger

	cache Cache
	scope string
}

func New(gen Generator, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{gen: gen, logger: logger.With(zap.String("component", "suggest"))}
}

// WithCache 打开回复缓存。scope（通常是模型名）参与缓存键，换模型即失效。
func (c *Client) WithCache(cache Cache, scope string) *Client {
	c.cache = cache
	c.scope = scope
	return c
}

// generate 先查缓存；只有能被解析的回复才会写回缓存（由 accept 判定）。
func (c *Client) generate(ctx context.Context, kind string, p Prompt, accept func(string) error) (string, error) {
	key := c.key(p)
	if c.cache != nil {
		b, ok, err := c.cache.Read(kind, key)
		switch {
		case err != nil:
			c.logger.Warn("cache read failed", zap.String("kind", kind), zap.Error(err))
		case ok && accept(string(b)) == nil:
			c.logger.Debug("cache hit", zap.String("kind", kind), zap.String("key", key))
			return string(b), nil
		}
	}

	reply, err := c.gen.Generate(ctx, p)
	if err != nil {
		return "", err
	}
	if err := accept(reply); err != nil {
		return "", err
	}
	if c.cache != nil {
		if err := c.cache.Write(kind, key, []byte(reply)); err != nil {
			c.logger.Warn("cache write failed", zap.String("kind", kind), zap.Error(err))
		}
	}
	return reply, nil
}

func (c *Client) key(p Prompt) string {
	h := sha256.New()
	for _, part := range []string{c.scope, p.System, p.User, fmt.Sprint(p.JSON)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateCategories 请模型为 records（最多 MaxCategorizeFiles 条）设计目录结构。
func (c *Client) GenerateCategories(ctx context.Context, records []domain.FileRecord) (domain.CategoryMap, error) {
	if c == nil || c.gen == nil {
		return domain.CategoryMap{}, errors.New("suggest client 未初始化")
	}
	if len(records) > MaxCategorizeFiles {
		records = records[:MaxCategorizeFiles]
	}

	reply, err := c.generate(ctx, "categories", Prompt{
		System: "You are a helpful assistant that suggests logical folder structures for organizing files.",
		User: "Based on these files, suggest a folder structure that would make sense for organization.\n" +
			"Files:\n" + describe(records) + "\n\n" +
			"Please respond with a JSON object containing a 'categories' key with an array of category names,\n" +
			"and a 'files' key that maps each filename to one of these categories.",
		JSON: true,
	}, func(r string) error {
		_, err := ParseCategories(r)
		return err
	})
	if err != nil {
		return domain.CategoryMap{}, fmt.Errorf("生成分类建议失败：%w", err)
	}

	m, _ := ParseCategories(reply)
	c.logger.Debug("categories received",
		zap.Int("categories", len(m.Categories)), zap.Int("files", len(m.Files)))
	return m, nil
}

// GetSuggestions 请模型针对 records（最多 MaxSuggestFiles 条）给出 3-5 条整理建议。
func (c *Client) GetSuggestions(ctx context.Context, records []domain.FileRecord, dest string) ([]string, error) {
	if c == nil || c.gen == nil {
		return nil, errors.New("suggest client 未初始化")
	}
	if len(records) > MaxSuggestFiles {
		records = records[:MaxSuggestFiles]
	}

	reply, err := c.generate(ctx, "suggestions", Prompt{
		System: "You are a helpful assistant that provides suggestions for organizing files.",
		User: fmt.Sprintf("I'm organizing these files into %s.\n", dest) +
			"Can you provide 3-5 suggestions for how I might better organize these files?\n" +
			"Files:\n" + describe(records) + "\n\n" +
			"Please provide concise suggestions in a bulleted list.",
	}, func(r string) error {
		if len(ParseSuggestions(r)) == 0 {
			return ErrEmptyReply
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("生成整理建议失败：%w", err)
	}
	return ParseSuggestions(reply), nil
}

func describe(records []domain.FileRecord) string {
	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s (Type: %s, Size: %d bytes)", r.Name, r.Type, r.Size)
	}
	return b.String()
}

// ParseCategories 解析模型的 JSON 回复（容忍 ``` 代码块包裹）。
func ParseCategories(reply string) (domain.CategoryMap, error) {
	body := stripFence(reply)
	if body == "" {
		return domain.CategoryMap{}, ErrEmptyReply
	}

	var raw struct {
		Categories []string          `json:"categories"`
		Files      map[string]string `json:"files"`
	}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return domain.CategoryMap{}, fmt.Errorf("AI 返回的分类不是合法 JSON：%w", err)
	}

	out := domain.CategoryMap{
		Categories: make([]string, 0, len(raw.Categories)),
		Files:      make(map[string]string, len(raw.Files)),
	}
	for _, c := range raw.Categories {
		if c = strings.TrimSpace(c); c != "" {
			out.Categories = append(out.Categories, c)
		}
	}
	for name, c := range raw.Files {
		name, c = strings.TrimSpace(name), strings.TrimSpace(c)
		if name != "" && c != "" {
			out.Files[name] = c
		}
	}
	return out, nil
}

// ParseSuggestions 按行切分回复，丢弃空行并去掉首尾空白。
func ParseSuggestions(reply string) []string {
	out := make([]string, 0, 5)
	for _, line := range strings.Split(reply, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// 去掉语言标记（例如 ```json）。
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
