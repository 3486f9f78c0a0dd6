package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/AFO/internal/app/organize"
	"github.com/John-Robertt/AFO/internal/infra/lockx"
	"github.com/John-Robertt/AFO/internal/watch"
)

func newWatchCmd(c *cli) *cobra.Command {
	var (
		ai       bool
		keep     bool
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch [source] [dest]",
		Short: "持续监听 source，新文件落地后自动整理",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.load(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("ai") {
				ai = c.cfg.AIReady()
			}
			if !cmd.Flags().Changed("keep") {
				keep = c.cfg.Behavior.KeepOriginals
			}
			src, dst, err := c.resolvePaths(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			o, err := c.newOrganizer(ctx, ai, nil)
			if err != nil {
				return err
			}
			if ok, msg := o.Validate(src, dst); !ok {
				return &exitError{code: 1, err: fmt.Errorf("路径无效：%s", msg)}
			}

			req := organize.Request{Source: src, Dest: dst, UseAI: ai, KeepOriginals: keep}
			w := watch.New(src, func(ctx context.Context) { c.watchPass(ctx, o, req) }, watch.Options{
				Debounce: debounce,
				Initial:  true,
				Logger:   c.logger,
			})
			fmt.Fprintf(c.stderr, "监听中：%s -> %s（Ctrl+C 退出）\n", src, dst)
			return w.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&ai, "ai", false, "启用 AI 分类与建议（默认取配置 ai.enable_suggestions）")
	cmd.Flags().BoolVar(&keep, "keep", false, "复制而不是移动（默认取配置 behavior.keep_originals）")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "最后一个文件事件之后等待多久再整理")
	return cmd
}

// watchPass 执行一次整理；锁被占用时跳过本次（下一批事件会再次触发）。
func (c *cli) watchPass(ctx context.Context, o *organize.Organizer, req organize.Request) {
	lock, err := lockx.Acquire(req.Source)
	if err != nil {
		if errors.Is(err, lockx.ErrLocked) {
			c.logger.Warn("source busy, pass skipped", zap.String("source", req.Source))
			return
		}
		c.logger.Error("acquire lock failed", zap.Error(err))
		return
	}
	defer func() { _ = lock.Release() }()
	c.logger.Debug("source locked", zap.String("lock", lock.Path()))

	res, err := o.Organize(ctx, req)
	if err != nil {
		c.logger.Error("organize failed", zap.Error(err))
		return
	}
	if res.Total == 0 {
		return
	}
	c.emitResult(res)
}
