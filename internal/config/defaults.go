package config

import (
	"os"
	"path/filepath"

	"github.com/John-Robertt/AFO/internal/rules"
)

const (
	DefaultAppName        = "AI File Organizer"
	DefaultModel          = "gemini-2.0-flash"
	DefaultTimeoutSeconds = 30
	DefaultLogLevel       = "debug"
)

// DefaultRules 是内置规则表（顺序即 tie-break 顺序）。
func DefaultRules() []rules.Rule {
	return []rules.Rule{
		{Category: "documents", Extensions: []string{".pdf", ".doc", ".docx", ".txt", ".rtf", ".odt"}},
		{Category: "images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg"}},
		{Category: "audio", Extensions: []string{".mp3", ".wav", ".ogg", ".flac"}},
		{Category: "videos", Extensions: []string{".mp4", ".avi", ".mov", ".mkv"}},
		{Category: "archives", Extensions: []string{".zip", ".rar", ".7z", ".tar"}},
		{Category: "code", Extensions: []string{".py", ".js", ".html", ".css", ".java", ".cpp"}},
	}
}

// Default 返回内置默认配置（不读任何文件）。
func Default() Config {
	home, _ := os.UserHomeDir()
	join := func(parts ...string) string {
		if home == "" {
			return ""
		}
		return filepath.Join(append([]string{home}, parts...)...)
	}
	return Config{
		App: App{Name: DefaultAppName},
		Paths: Paths{
			DefaultSource: join("Downloads"),
			DefaultDest:   join("OrganizedFiles"),
		},
		AI: AI{
			EnableSuggestions: true,
			Model:             DefaultModel,
			TimeoutSeconds:    DefaultTimeoutSeconds,
			CacheDir:          join(".cache", "afo"),
		},
		Behavior: Behavior{KeepOriginals: false},
		Logging: Logging{
			File:  join(".local", "state", "afo", "afo.log"),
			Level: DefaultLogLevel,
		},
		Rules: DefaultRules(),
	}
}

// DefaultConfigPath 返回默认配置文件位置：~/.config/afo/config.toml。
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/afo/config.toml")
}
