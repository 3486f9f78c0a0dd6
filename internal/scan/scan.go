package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/John-Robertt/AFO/internal/classify"
	"github.com/John-Robertt/AFO/internal/domain"
)

// Classifier 是扫描阶段需要的最小能力：给出文件的类型串（永不失败）。
type Classifier interface {
	Classify(path string) string
}

// ScanDir 扫描 root 的直接子项，只收集普通文件（子目录/符号链接/设备文件一律跳过）。
//
// 规则（硬约束）：
// - root 不可读：返回错误（由上层视为致命错误）
// - root 为空：返回空切片且不报错
// - 输出按文件名稳定排序，避免不同文件系统的 ReadDir 顺序差异
func ScanDir(fs afero.Fs, root string, c Classifier) ([]domain.FileRecord, error) {
	root, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return nil, err
	}

	fi, err := fs.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("不是目录：%q", root)
	}

	infos, err := afero.ReadDir(fs, root)
	if err != nil {
		return nil, err
	}

	files := make([]domain.FileRecord, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		path := filepath.Join(root, info.Name())
		files = append(files, newRecord(path, info, c))
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func newRecord(path string, info os.FileInfo, c Classifier) domain.FileRecord {
	typ := classify.TypeUnknown
	if c != nil {
		typ = c.Classify(path)
	}
	return domain.FileRecord{
		Name:     info.Name(),
		Path:     path,
		Size:     info.Size(),
		Modified: info.ModTime(),
		Created:  createdTime(info),
		Type:     typ,
		Ext:      classify.Extension(info.Name()),
	}
}
