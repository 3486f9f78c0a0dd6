package organize

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/John-Robertt/AFO/internal/app/planner"
	"github.com/John-Robertt/AFO/internal/domain"
	"github.com/John-Robertt/AFO/internal/infra/fsx"
	"github.com/John-Robertt/AFO/internal/report"
	"github.com/John-Robertt/AFO/internal/rules"
	"github.com/John-Robertt/AFO/internal/scan"
	"github.com/John-Robertt/AFO/internal/suggest"
)

const defaultAITimeout = 30 * time.Second

// Suggester 是可选的 AI 能力；失败只会变成 warning。
type Suggester interface {
	GenerateCategories(ctx context.Context, records []domain.FileRecord) (domain.CategoryMap, error)
	GetSuggestions(ctx context.Context, records []domain.FileRecord, dest string) ([]string, error)
}

// Request 描述一次整理。
type Request struct {
	Source        string
	Dest          string
	UseAI         bool
	KeepOriginals bool
	DryRun        bool
}

// SetupError 表示整理无法开始（例如源目录不可读）。只有这类错误会从 Organize 返回。
type SetupError struct {
	Op   string
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s %q：%v", e.Op, e.Path, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// IsSetupError 判断 err 是否为 *SetupError。
func IsSetupError(err error) bool {
	var e *SetupError
	return errors.As(err, &e)
}

// Options 是 Organizer 的依赖集合；零值字段使用默认实现。
type Options struct {
	Fs         afero.Fs
	Rules      rules.RuleSet
	Classifier scan.Classifier
	Suggester  Suggester
	AITimeout  time.Duration
	Logger     *zap.Logger
	Observer   Observer
	// Now 便于测试固定时钟。
	Now func() time.Time
}

// Organizer 编排 scan -> categorize -> transfer -> cleanup -> suggest。
// 单次 Organize 内部串行；同一 Organizer 可被多次调用。
type Organizer struct {
	fs         afero.Fs
	rules      rules.RuleSet
	classifier scan.Classifier
	suggester  Suggester
	aiTimeout  time.Duration
	logger     *zap.Logger
	obs        Observer
	now        func() time.Time
}

func New(opts Options) *Organizer {
	o := &Organizer{
		fs:         opts.Fs,
		rules:      opts.Rules,
		classifier: opts.Classifier,
		suggester:  opts.Suggester,
		aiTimeout:  opts.AITimeout,
		logger:     opts.Logger,
		obs:        opts.Observer,
		now:        opts.Now,
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.aiTimeout <= 0 {
		o.aiTimeout = defaultAITimeout
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.obs == nil {
		o.obs = nopObserver{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Organize 执行一次整理。
//
// 单个文件的失败只记录在 Files 中；AI 失败只记录在 Warnings 中；
// 只有扫描阶段的致命错误会以 *SetupError 返回（此时 res 仍然带有耗时）。
func (o *Organizer) Organize(ctx context.Context, req Request) (res domain.OrganizeResult, err error) {
	runID := uuid.NewString()
	log := o.logger.With(zap.String("run_id", runID))

	res = domain.OrganizeResult{
		RunID:     runID,
		Source:    req.Source,
		Dest:      req.Dest,
		Mode:      domain.ModeFor(req.KeepOriginals),
		DryRun:    req.DryRun,
		StartedAt: o.now(),
		Files:     make([]domain.FileOutcome, 0, 32),
	}
	defer func() {
		res.FinishedAt = o.now()
		res.Elapsed = res.FinishedAt.Sub(res.StartedAt)
		res.Finalize()
		log.Info("organize finished",
			zap.Int("total", res.Total),
			zap.Int("organized", res.Succeeded),
			zap.Int("failures", res.Failed),
			zap.Int("empty_dirs_removed", res.EmptyDirsRemoved),
			zap.Duration("elapsed", res.Elapsed),
			zap.Bool("dry_run", res.DryRun))
	}()

	src, err := filepath.Abs(req.Source)
	if err != nil {
		return res, &SetupError{Op: "resolve source", Path: req.Source, Err: err}
	}
	dst, err := filepath.Abs(req.Dest)
	if err != nil {
		return res, &SetupError{Op: "resolve dest", Path: req.Dest, Err: err}
	}
	res.Source, res.Dest = src, dst

	o.obs.OnStart(runID, req)
	log.Info("organize started",
		zap.String("source", src), zap.String("dest", dst),
		zap.String("mode", res.Mode), zap.Bool("dry_run", req.DryRun), zap.Bool("ai", req.UseAI))

	// 1) scan
	scanStarted := time.Now()
	records, err := scan.ScanDir(o.fs, src, o.classifier)
	if err != nil {
		log.Error("scan failed", zap.String("source", src), zap.Error(err))
		return res, &SetupError{Op: "scan", Path: src, Err: err}
	}
	res.Total = len(records)
	res.Records = records
	o.obs.OnPhaseDone("scan", map[string]any{"files": len(records)}, time.Since(scanStarted))
	if len(records) == 0 {
		log.Info("source is empty")
		return res, nil
	}

	useAI := req.UseAI && o.suggester != nil && !req.DryRun

	// 2) categorize（可选）
	if useAI {
		res.Categories, res.Warnings = o.categorize(ctx, log, records, res.Warnings)
	}

	// 3) plan + transfer
	planStarted := time.Now()
	plans := planner.Plan(records, o.rules, dst)
	summary := make(map[string]any, 8)
	for _, c := range planner.Summarize(plans) {
		summary[c.Category] = c.Files
	}
	o.obs.OnPhaseDone("plan", summary, time.Since(planStarted))

	// 一旦开始，整理跑完为止：ctx 只约束 AI 调用，不中断文件传输。
	transferStarted := time.Now()
	if !req.DryRun {
		o.prepareDirs(log, plans)
	}
	for i, p := range plans {
		oneStarted := time.Now()
		out := o.transfer(log, p, req)
		res.Files = append(res.Files, out)
		o.obs.OnFileDone(i+1, len(plans), out, time.Since(oneStarted))
	}
	o.obs.OnPhaseDone("transfer", map[string]any{"files": len(plans), "mode": res.Mode}, time.Since(transferStarted))

	// 4) cleanup（仅 move 且非 dry-run）
	if !req.KeepOriginals && !req.DryRun {
		cleanupStarted := time.Now()
		removed, errs := fsx.RemoveEmptyDirs(o.fs, src)
		for _, e := range errs {
			log.Warn("remove empty dir failed", zap.Error(e))
		}
		res.EmptyDirsRemoved = removed
		o.obs.OnPhaseDone("cleanup", map[string]any{"removed": removed, "errors": len(errs)}, time.Since(cleanupStarted))
	}

	// 5) suggest（可选）
	if useAI {
		res.Suggestions, res.Warnings = o.suggest(ctx, log, records, dst, res.Warnings)
	}
	return res, nil
}

func (o *Organizer) transfer(log *zap.Logger, p domain.TransferPlan, req Request) domain.FileOutcome {
	out := domain.FileOutcome{
		Name:     p.Record.Name,
		Src:      p.Record.Path,
		Dst:      p.DstAbs,
		Category: p.Category,
		Type:     p.Record.Type,
		Status:   domain.FileStatusPlanned,
	}
	if req.DryRun {
		return out
	}

	fail := func(err error) domain.FileOutcome {
		out.Status = domain.FileStatusFailed
		out.Error = err.Error()
		log.Error("transfer failed",
			zap.String("file", p.Record.Path), zap.String("dst", p.DstAbs), zap.Error(err))
		return out
	}

	if err := fsx.EnsureDir(o.fs, p.DstDir); err != nil {
		return fail(fmt.Errorf("创建目标目录失败：%w", err))
	}

	if req.KeepOriginals {
		if err := fsx.CopyFile(o.fs, p.Record.Path, p.DstAbs); err != nil {
			return fail(err)
		}
		out.Status = domain.FileStatusCopied
	} else {
		if err := fsx.MoveFile(o.fs, p.Record.Path, p.DstAbs); err != nil {
			return fail(err)
		}
		out.Status = domain.FileStatusMoved
	}
	log.Debug("file organized",
		zap.String("file", p.Record.Name), zap.String("category", p.Category), zap.String("status", out.Status))
	return out
}

// prepareDirs 预先创建本次用到的类目目录。失败只记日志，单文件传输时会再次尝试并记录失败。
func (o *Organizer) prepareDirs(log *zap.Logger, plans []domain.TransferPlan) {
	for _, dir := range planner.Dirs(plans) {
		if err := fsx.EnsureDir(o.fs, dir); err != nil {
			log.Warn("create category dir failed", zap.String("dir", dir), zap.Error(err))
		}
	}
}

func (o *Organizer) categorize(ctx context.Context, log *zap.Logger, records []domain.FileRecord, warnings []string) (domain.CategoryMap, []string) {
	started := time.Now()
	if len(records) > suggest.MaxCategorizeFiles {
		records = records[:suggest.MaxCategorizeFiles]
	}

	actx, cancel := context.WithTimeout(ctx, o.aiTimeout)
	defer cancel()

	m, err := o.suggester.GenerateCategories(actx, records)
	if err != nil {
		log.Warn("ai categorization failed", zap.Error(err))
		o.obs.OnPhaseDone("categorize", map[string]any{"ok": false}, time.Since(started))
		return domain.CategoryMap{}, append(warnings, fmt.Sprintf("AI 分类失败：%v", err))
	}
	o.obs.OnPhaseDone("categorize", map[string]any{"ok": true, "categories": len(m.Categories)}, time.Since(started))
	return m, warnings
}

func (o *Organizer) suggest(ctx context.Context, log *zap.Logger, records []domain.FileRecord, dest string, warnings []string) ([]string, []string) {
	started := time.Now()
	if len(records) > suggest.MaxSuggestFiles {
		records = records[:suggest.MaxSuggestFiles]
	}

	actx, cancel := context.WithTimeout(ctx, o.aiTimeout)
	defer cancel()

	lines, err := o.suggester.GetSuggestions(actx, records, dest)
	if err != nil {
		log.Warn("ai suggestions failed", zap.Error(err))
		o.obs.OnPhaseDone("suggest", map[string]any{"ok": false}, time.Since(started))
		return []string{}, append(warnings, fmt.Sprintf("AI 建议失败：%v", err))
	}
	o.obs.OnPhaseDone("suggest", map[string]any{"ok": true, "suggestions": len(lines)}, time.Since(started))
	return lines, warnings
}

// Outcome 是 Start 交付的唯一结果。
type Outcome struct {
	Result domain.OrganizeResult
	Err    error
}

// Start 在独立 goroutine 上执行 Organize，并通过 channel 交付恰好一个 Outcome。
func (o *Organizer) Start(ctx context.Context, req Request) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		res, err := o.Organize(ctx, req)
		ch <- Outcome{Result: res, Err: err}
	}()
	return ch
}

// Validate 在整理前检查路径：source 必须是已存在的目录，dest 与 source 不同，
// dest 不存在时会被创建。返回 (是否可用, 不可用的原因)。
func (o *Organizer) Validate(source, dest string) (bool, string) {
	dst, ok, msg := o.precheck(source, dest)
	if !ok {
		return false, msg
	}
	if err := fsx.EnsureDir(o.fs, dst); err != nil {
		return false, fmt.Sprintf("无法创建目标目录：%v", err)
	}
	return true, ""
}

// Precheck 与 Validate 相同，但不创建 dest（用于 dry-run）。
func (o *Organizer) Precheck(source, dest string) (bool, string) {
	dst, ok, msg := o.precheck(source, dest)
	if !ok {
		return false, msg
	}
	if fi, err := o.fs.Stat(dst); err == nil && !fi.IsDir() {
		return false, "目标路径不是目录"
	}
	return true, ""
}

func (o *Organizer) precheck(source, dest string) (string, bool, string) {
	if source == "" || dest == "" {
		return "", false, "源目录与目标目录都不能为空"
	}
	src, err := filepath.Abs(source)
	if err != nil {
		return "", false, fmt.Sprintf("无法解析源目录：%v", err)
	}
	dst, err := filepath.Abs(dest)
	if err != nil {
		return "", false, fmt.Sprintf("无法解析目标目录：%v", err)
	}

	fi, err := o.fs.Stat(src)
	if err != nil {
		return "", false, "源目录不存在"
	}
	if !fi.IsDir() {
		return "", false, "源路径不是目录"
	}
	if src == dst {
		return "", false, "源目录与目标目录不能相同"
	}
	return dst, true, ""
}

// WriteReport 把 records 写成 CSV 报表；失败返回 false。
func (o *Organizer) WriteReport(records []domain.FileRecord, path string) bool {
	return report.New(o.fs, o.logger).WriteCSV(records, path)
}
