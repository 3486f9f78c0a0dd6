package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/John-Robertt/AFO/internal/infra/fsx"
	"github.com/John-Robertt/AFO/internal/rules"
)

const (
	// ErrCodeNotFound 表示显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// Config 对应 config.toml 的完整结构。
//
// 核心流程只读取它（通过显式传参），持久化由 Save/Reset 负责。
type Config struct {
	App      App          `toml:"app"`
	Paths    Paths        `toml:"paths"`
	AI       AI           `toml:"ai"`
	Behavior Behavior     `toml:"behavior"`
	Logging  Logging      `toml:"logging"`
	Rules    []rules.Rule `toml:"rules"`
}

type App struct {
	Name  string `toml:"name"`
	Debug bool   `toml:"debug"`
}

type Paths struct {
	DefaultSource string `toml:"default_source"`
	DefaultDest   string `toml:"default_dest"`
}

type AI struct {
	EnableSuggestions bool   `toml:"enable_suggestions"`
	APIKey            string `toml:"api_key"`
	Model             string `toml:"model"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	ProxyURL          string `toml:"proxy_url"`
	// CacheDir 为空表示不缓存 AI 回复。
	CacheDir          string `toml:"cache_dir"`
}

type Behavior struct {
	KeepOriginals bool `toml:"keep_originals"`
}

type Logging struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Load 读取配置文件并与默认值合并，返回 (配置, 实际路径, 文件是否存在, 错误)。
//
// 发现规则（固定）：
// 1) path 非空：读取该文件；不存在则报 config_not_found
// 2) path 为空：读取 ~/.config/afo/config.toml；不存在则使用默认值（不写盘）
//
// 合并规则：文件中出现的字段覆盖默认值；[[rules]] 一旦出现则整体替换默认规则表。
// 环境变量 GEMINI_API_KEY / GOOGLE_API_KEY 覆盖 ai.api_key。
func Load(path string) (Config, string, bool, error) {
	explicit := strings.TrimSpace(path) != ""
	resolved := strings.TrimSpace(path)
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return Config{}, "", false, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
		}
		resolved = p
	} else {
		p, err := expandPath(resolved)
		if err != nil {
			return Config{}, "", false, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
		}
		resolved = p
	}

	cfg, exists, err := readFile(resolved)
	if err != nil {
		return Config{}, resolved, false, &Error{Code: ErrCodeInvalid, Path: resolved, Err: err}
	}
	if !exists && explicit {
		return Config{}, resolved, false, &Error{Code: ErrCodeNotFound, Path: resolved, Err: os.ErrNotExist}
	}

	applyEnv(&cfg, os.LookupEnv)

	if err := cfg.normalize(); err != nil {
		return Config{}, resolved, exists, &Error{Code: ErrCodeInvalid, Path: resolved, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, resolved, exists, &Error{Code: ErrCodeInvalid, Path: resolved, Err: err}
	}
	return cfg, resolved, exists, nil
}

func readFile(path string) (Config, bool, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return Config{}, false, err
	}

	// 规则表单独处理：文件中没有 [[rules]] 时保留默认规则。
	defaults := cfg.Rules
	cfg.Rules = nil
	dec := toml.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, true, err
	}
	if cfg.Rules == nil {
		cfg.Rules = defaults
	}
	return cfg, true, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			cfg.AI.APIKey = strings.TrimSpace(v)
			return
		}
	}
}

// Save 原子写入配置文件（父目录不存在则创建）。
func Save(cfg Config, path string) error {
	p, err := expandPath(path)
	if err != nil {
		return err
	}
	b, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return fsx.WriteFileAtomic(afero.NewOsFs(), filepath.Dir(p), filepath.Base(p), b)
}

// Reset 删除配置文件并返回默认配置。
func Reset(path string) (Config, error) {
	p, err := expandPath(path)
	if err != nil {
		return Config{}, err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("remove config: %w", err)
	}
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RuleSet 把配置中的规则表构建为有序 RuleSet。
func (c Config) RuleSet() (rules.RuleSet, error) {
	return rules.New(c.Rules...)
}

// AIReady 表示 AI 功能是否可用（开关打开且配置了 key）。
func (c Config) AIReady() bool {
	return c.AI.EnableSuggestions && strings.TrimSpace(c.AI.APIKey) != ""
}

// AITimeout 返回单次 AI 调用的超时。
func (c Config) AITimeout() time.Duration {
	if c.AI.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

func (c *Config) normalize() error {
	c.App.Name = strings.TrimSpace(c.App.Name)
	if c.App.Name == "" {
		c.App.Name = DefaultAppName
	}

	var err error
	if c.Paths.DefaultSource, err = expandPath(c.Paths.DefaultSource); err != nil {
		return err
	}
	if c.Paths.DefaultDest, err = expandPath(c.Paths.DefaultDest); err != nil {
		return err
	}
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return err
	}
	if c.AI.CacheDir, err = expandPath(c.AI.CacheDir); err != nil {
		return err
	}

	c.AI.APIKey = strings.TrimSpace(c.AI.APIKey)
	c.AI.Model = strings.TrimSpace(c.AI.Model)
	if c.AI.Model == "" {
		c.AI.Model = DefaultModel
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = DefaultTimeoutSeconds
	}
	c.AI.ProxyURL = strings.TrimSpace(c.AI.ProxyURL)

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}

	// 规则表交给 rules.New 规范化（类目 trim、扩展名小写带点、空值丢弃），再写回规范形式。
	rs, err := rules.New(c.Rules...)
	if err != nil {
		return err
	}
	c.Rules = rs.Rules()
	return nil
}

// Validate 校验字段合法性（假设已 normalize）。
func (c Config) Validate() error {
	if c.AI.TimeoutSeconds < 0 {
		return fmt.Errorf("ai.timeout_seconds 不能为负数：%d", c.AI.TimeoutSeconds)
	}
	if c.AI.ProxyURL != "" {
		u, err := url.Parse(c.AI.ProxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("ai.proxy_url 无效：%q", c.AI.ProxyURL)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return fmt.Errorf("ai.proxy_url 只支持 http/https/socks5：%q", c.AI.ProxyURL)
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level 只能是 debug|info|warn|error，实际是 %q", c.Logging.Level)
	}
	for _, r := range c.Rules {
		if err := validateCategory(r.Category); err != nil {
			return err
		}
	}
	if _, err := c.RuleSet(); err != nil {
		return err
	}
	return nil
}

// validateCategory 保证类目名可以安全地作为 dest 下的单层子目录名。
func validateCategory(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("rules.category 不能为空")
	case name == "." || name == "..":
		return fmt.Errorf("rules.category 非法：%q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("rules.category 不能包含路径分隔符：%q", name)
	}
	return nil
}

// expandPath 展开前导 ~ 并 Clean；空串原样返回。
func expandPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Clean(p), nil
}
