package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/AFO/internal/app/organize"
)

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <source> <dest>",
		Short: "检查源/目标目录是否可用（目标不存在时会创建）",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.load(); err != nil {
				return err
			}
			o := organize.New(organize.Options{Fs: c.fs, Logger: c.logger})
			if ok, msg := o.Validate(args[0], args[1]); !ok {
				return &exitError{code: 1, err: fmt.Errorf("路径无效：%s", msg)}
			}
			fmt.Fprintln(c.stdout, "OK")
			return nil
		},
	}
}
