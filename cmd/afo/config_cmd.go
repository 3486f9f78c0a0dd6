package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/AFO/internal/config"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "查看或维护配置文件",
	}
	cmd.AddCommand(
		newConfigPathCmd(c),
		newConfigShowCmd(c),
		newConfigInitCmd(c),
		newConfigResetCmd(c),
	)
	return cmd
}

func (c *cli) targetConfigPath() (string, error) {
	if p := strings.TrimSpace(c.configPath); p != "" {
		return p, nil
	}
	return config.DefaultConfigPath()
}

func newConfigPathCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "打印配置文件路径",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.targetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, p)
			return nil
		},
	}
}

func newConfigShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "打印生效配置（TOML，api_key 已脱敏）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.load(); err != nil {
				return err
			}
			cfg := c.cfg
			cfg.AI.APIKey = maskKey(cfg.AI.APIKey)
			b, err := toml.Marshal(cfg)
			if err != nil {
				return err
			}
			src := "内置默认值"
			if c.cfgExists {
				src = c.cfgPath
			}
			fmt.Fprintf(c.stderr, "# 来源：%s\n", src)
			_, err = c.stdout.Write(b)
			return err
		},
	}
}

func newConfigInitCmd(c *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "写入一份默认配置文件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.targetConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(p); err == nil && !force {
				return &exitError{code: 1, err: fmt.Errorf("配置文件已存在：%s（使用 --force 覆盖）", p)}
			}
			if err := config.Save(config.Default(), p); err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, p)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "覆盖已存在的配置文件")
	return cmd
}

func newConfigResetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "删除配置文件，恢复内置默认值",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.targetConfigPath()
			if err != nil {
				return err
			}
			if _, err := config.Reset(p); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "已重置：%s\n", p)
			return nil
		},
	}
}

func maskKey(k string) string {
	if k == "" {
		return ""
	}
	if len(k) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(k)-4) + k[len(k)-4:]
}
