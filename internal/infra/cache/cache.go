package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/John-Robertt/AFO/internal/infra/fsx"
)

// Store 提供 <root>/<kind>/<key>.json 形式的文件缓存读写。
//
// 约束：
// - kind 为小写枚举（例如 categories/suggestions），key 为十六进制摘要
// - 写入一律原子替换；读不到视为未命中而不是错误
type Store struct {
	fs   afero.Fs
	Root string
}

func New(fs afero.Fs, root string) Store {
	return Store{
		fs:   fs,
		Root: filepath.Clean(strings.TrimSpace(root)),
	}
}

// Path 返回缓存条目的绝对路径。
func (s Store) Path(kind, key string) (string, error) {
	k, err := cleanKind(kind)
	if err != nil {
		return "", err
	}
	if !keyRE.MatchString(key) {
		return "", fmt.Errorf("非法 cache key：%q", key)
	}
	return filepath.Join(s.Root, k, key+".json"), nil
}

func (s Store) Read(kind, key string) ([]byte, bool, error) {
	path, err := s.Path(kind, key)
	if err != nil {
		return nil, false, err
	}
	b, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s Store) Write(kind, key string, b []byte) error {
	path, err := s.Path(kind, key)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(s.fs, filepath.Dir(path), filepath.Base(path), b)
}

var (
	kindRE = regexp.MustCompile(`^[a-z0-9_]+$`)
	keyRE  = regexp.MustCompile(`^[0-9a-f]{8,64}$`)
)

func cleanKind(k string) (string, error) {
	k = strings.ToLower(strings.TrimSpace(k))
	if k == "" {
		return "", fmt.Errorf("cache kind 不能为空")
	}
	// 最小约束：避免路径穿越。
	if !kindRE.MatchString(k) {
		return "", fmt.Errorf("非法 cache kind：%q", k)
	}
	return k, nil
}
