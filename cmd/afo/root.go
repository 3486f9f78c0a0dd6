package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/AFO/internal/config"
	"github.com/John-Robertt/AFO/internal/domain"
	"github.com/John-Robertt/AFO/internal/logging"
)

// cli 保存一次命令调用的共享状态（配置、日志、输出流）。
type cli struct {
	stdout io.Writer
	stderr io.Writer
	fs     afero.Fs

	configPath string
	debug      bool

	cfg       config.Config
	cfgPath   string
	cfgExists bool
	logger    *zap.Logger
	closeLog  func()
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{
		stdout: stdout,
		stderr: stderr,
		fs:     afero.NewOsFs(),
		logger: logging.Nop(),
	}

	root := &cobra.Command{
		Use:           "afo",
		Short:         "AI File Organizer：按类型把目录中的文件归档到分类子目录",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.closeLog != nil {
				c.closeLog()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "配置文件路径（默认 ~/.config/afo/config.toml）")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "在控制台输出 info 级别日志")

	root.AddCommand(
		newRunCmd(c),
		newValidateCmd(c),
		newWatchCmd(c),
		newConfigCmd(c),
	)
	return root
}

// load 读取 .env 与配置文件并初始化日志。
func (c *cli) load() error {
	// .env 可选；已存在的环境变量优先。
	_ = godotenv.Load()

	cfg, path, exists, err := config.Load(c.configPath)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	c.cfg, c.cfgPath, c.cfgExists = cfg, path, exists

	logger, closer, err := logging.New(logging.Options{
		Debug:   c.debug || cfg.App.Debug,
		File:    cfg.Logging.File,
		Level:   cfg.Logging.Level,
		Console: c.stderr,
	})
	if err != nil {
		// 日志文件不可用不影响整理本身：退化为仅控制台。
		fmt.Fprintf(c.stderr, "警告：日志文件不可用（%v），仅输出到控制台\n", err)
		logger, closer, _ = logging.New(logging.Options{Debug: c.debug || cfg.App.Debug, Console: c.stderr})
	}
	c.logger, c.closeLog = logger, closer
	return nil
}

// resolvePaths 用位置参数覆盖配置中的默认源/目标目录。
func (c *cli) resolvePaths(args []string) (string, string, error) {
	src, dst := c.cfg.Paths.DefaultSource, c.cfg.Paths.DefaultDest
	if len(args) > 0 {
		src = args[0]
	}
	if len(args) > 1 {
		dst = args[1]
	}
	if strings.TrimSpace(src) == "" || strings.TrimSpace(dst) == "" {
		return "", "", usageError("需要提供源目录与目标目录（或在配置文件 [paths] 中设置默认值）")
	}
	return filepath.Clean(src), filepath.Clean(dst), nil
}

// emitResult 遵守输出契约：stdout 非 TTY 时只输出一个 OrganizeResult JSON，摘要写 stderr。
func (c *cli) emitResult(res domain.OrganizeResult) {
	if isTTY(c.stdout) {
		fmt.Fprintln(c.stdout, summaryLine(res))
		for _, f := range res.Files {
			if f.Status == domain.FileStatusFailed {
				fmt.Fprintf(c.stderr, "%s FAIL: %s\n", f.Name, f.Error)
			}
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(c.stderr, "警告：%s\n", w)
		}
		if len(res.Suggestions) > 0 {
			fmt.Fprintln(c.stdout, "建议：")
			for _, s := range res.Suggestions {
				fmt.Fprintf(c.stdout, "  %s\n", s)
			}
		}
		return
	}

	enc := json.NewEncoder(c.stdout)
	_ = enc.Encode(res)
	fmt.Fprintln(c.stderr, summaryLine(res))
}

func summaryLine(res domain.OrganizeResult) string {
	mode := res.Mode
	if res.DryRun {
		mode += ", dry-run"
	}
	return fmt.Sprintf("完成（%s）：total=%d organized=%d failures=%d empty_dirs_removed=%d time=%.2fs",
		mode, res.Total, res.Succeeded, res.Failed, res.EmptyDirsRemoved, res.ElapsedSeconds())
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// progressWriter 只在交互终端启用进度输出；默认走 stderr（不污染 stdout JSON）。
func (c *cli) progressWriter() (io.Writer, bool) {
	if isTTY(c.stderr) {
		return c.stderr, true
	}
	if isTTY(c.stdout) {
		return c.stdout, true
	}
	return nil, false
}
