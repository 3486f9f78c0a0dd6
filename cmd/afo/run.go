package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/AFO/internal/app/organize"
	"github.com/John-Robertt/AFO/internal/classify"
	"github.com/John-Robertt/AFO/internal/infra/cache"
	"github.com/John-Robertt/AFO/internal/infra/httpx"
	"github.com/John-Robertt/AFO/internal/infra/lockx"
	"github.com/John-Robertt/AFO/internal/report"
	"github.com/John-Robertt/AFO/internal/suggest"
)

type runFlags struct {
	ai         bool
	keep       bool
	dryRun     bool
	reportPath string
	table      bool
}

func newRunCmd(c *cli) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [source] [dest]",
		Short: "整理一次：把 source 的直接子文件归档到 dest/<category>/",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.load(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("ai") {
				f.ai = c.cfg.AIReady()
			}
			if !cmd.Flags().Changed("keep") {
				f.keep = c.cfg.Behavior.KeepOriginals
			}
			src, dst, err := c.resolvePaths(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.runOnce(ctx, organize.Request{
				Source:        src,
				Dest:          dst,
				UseAI:         f.ai,
				KeepOriginals: f.keep,
				DryRun:        f.dryRun,
			}, f)
		},
	}
	cmd.Flags().BoolVar(&f.ai, "ai", false, "启用 AI 分类与建议（默认取配置 ai.enable_suggestions）")
	cmd.Flags().BoolVar(&f.keep, "keep", false, "复制而不是移动（默认取配置 behavior.keep_originals）")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "只规划不执行（不创建目录、不移动、不调用 AI）")
	cmd.Flags().StringVar(&f.reportPath, "report", "", "把文件清单写成 CSV 报表")
	cmd.Flags().BoolVar(&f.table, "table", false, "在 stderr 打印文件清单表格")
	return cmd
}

func (c *cli) runOnce(ctx context.Context, req organize.Request, f runFlags) error {
	progressW, interactive := c.progressWriter()
	var obs organize.Observer
	var ui *progressUI
	if interactive {
		ui = newProgressUI(progressW)
		obs = ui
	}

	o, err := c.newOrganizer(ctx, req.UseAI, obs)
	if err != nil {
		return err
	}

	if req.DryRun {
		if ok, msg := o.Precheck(req.Source, req.Dest); !ok {
			return &exitError{code: 1, err: fmt.Errorf("路径无效：%s", msg)}
		}
	} else if ok, msg := o.Validate(req.Source, req.Dest); !ok {
		return &exitError{code: 1, err: fmt.Errorf("路径无效：%s", msg)}
	}

	lock, err := lockx.Acquire(req.Source)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	defer func() { _ = lock.Release() }()
	c.logger.Debug("source locked", zap.String("lock", lock.Path()))

	out := <-o.Start(ctx, req)
	if ui != nil {
		ui.Stop()
	}
	if out.Err != nil {
		c.logger.Error("organize failed", zap.Error(out.Err))
		return &exitError{code: 1, err: out.Err}
	}
	res := out.Result

	if f.reportPath != "" && !o.WriteReport(res.Records, f.reportPath) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("写入报表失败：%s", f.reportPath))
	}
	if f.table && len(res.Records) > 0 {
		fmt.Fprintln(c.stderr, report.RenderTable(res.Records))
	}

	c.emitResult(res)
	if res.Failed > 0 {
		return &exitError{code: 1, silent: true}
	}
	return nil
}

// newOrganizer 按配置装配 Organizer；AI 不可用时降级为纯规则整理。
func (c *cli) newOrganizer(ctx context.Context, useAI bool, obs organize.Observer) (*organize.Organizer, error) {
	rs, err := c.cfg.RuleSet()
	if err != nil {
		return nil, &exitError{code: 1, err: err}
	}
	c.logger.Debug("rules loaded", zap.Int("rules", rs.Len()))

	var sg organize.Suggester
	if useAI {
		sg = c.newSuggester(ctx)
	}

	return organize.New(organize.Options{
		Fs:         c.fs,
		Rules:      rs,
		Classifier: classify.New(c.fs, c.logger),
		Suggester:  sg,
		AITimeout:  c.cfg.AITimeout(),
		Logger:     c.logger,
		Observer:   obs,
	}), nil
}

func (c *cli) newSuggester(ctx context.Context) organize.Suggester {
	if c.cfg.AI.APIKey == "" {
		c.logger.Warn("AI requested but no API key configured; continuing without AI")
		return nil
	}
	hc, err := httpx.NewAIClient(c.cfg.AI.ProxyURL, c.cfg.AITimeout())
	if err != nil {
		c.logger.Warn("invalid AI proxy; continuing without AI", zap.Error(err))
		return nil
	}
	gem, err := suggest.NewGemini(ctx, suggest.GeminiOptions{
		APIKey:     c.cfg.AI.APIKey,
		Model:      c.cfg.AI.Model,
		HTTPClient: hc,
	})
	if err != nil {
		c.logger.Warn("AI client unavailable; continuing without AI", zap.Error(err))
		return nil
	}
	sc := suggest.New(gem, c.logger)
	if dir := c.cfg.AI.CacheDir; dir != "" {
		sc = sc.WithCache(cache.New(c.fs, dir), c.cfg.AI.Model)
	}
	return sc
}
