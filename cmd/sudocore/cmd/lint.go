package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/sudocore/internal/config"
	"github.com/wharflab/sudocore/internal/policy"
)

func lintCommand() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Parse a sudoers file and report every diagnostic",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path of a sudocore.toml (skips discovery)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: text or json",
			},
		},
		Action: runLint,
	}
}

func runLint(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("lint expects exactly one sudoers file")
	}
	path := cmd.Args().First()

	cfg, err := loadConfigForPath(cmd, path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading sudoers file: %w", err)
	}

	rep, cleanup, err := newReporter(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	diags := policy.Lint(string(data), includeOptions()...)
	if diags == nil {
		return rep.Diagnostics(path, nil)
	}
	if err := rep.Diagnostics(path, diags.Diagnostics); err != nil {
		return err
	}
	return cli.Exit("", 1)
}

func loadConfigForPath(cmd *cli.Command, path string) (*config.Config, error) {
	if cfgPath := cmd.String("config"); cfgPath != "" {
		return config.LoadFromFile(cfgPath)
	}
	return config.Load(path)
}
