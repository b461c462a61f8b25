package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/sudocore/internal/envfilter"
	"github.com/wharflab/sudocore/internal/policy"
)

func envCommand() *cli.Command {
	return &cli.Command{
		Name:      "env",
		Usage:     "Print the environment the command would run with",
		ArgsUsage: "-- COMMAND [ARGS...]",
		Flags: append(requestFlags(),
			&cli.BoolFlag{
				Name:  "preserve-env",
				Usage: "Import the whole invoking environment (sudo -E)",
			},
			&cli.StringSliceFlag{
				Name:  "preserve",
				Usage: "Import only the named variables (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "login",
				Usage: "Use login-mode defaults (sudo -i)",
			},
		),
		Action: runEnv,
	}
}

func runEnv(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, path, diags, err := loadPolicy(cmd)
	if err != nil {
		return err
	}
	rep, cleanup, err := newReporter(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if diags != nil {
		if err := rep.Diagnostics(path, diags.Diagnostics); err != nil {
			return err
		}
		return fmt.Errorf("policy did not parse cleanly")
	}

	snap, err := loadSnapshot(cmd, cfg)
	if err != nil {
		return err
	}
	req, err := buildRequest(cmd, snap)
	if err != nil {
		return err
	}

	j, eff := policy.Evaluate(s, req)
	if !j.Allowed {
		if err := rep.Judgement(j, eff); err != nil {
			return err
		}
		return cli.Exit("", 1)
	}

	env := policy.BuildEnvironment(
		envfilter.FromStrings(os.Environ()),
		envfilter.Context{
			Invoker:         req.InvokerUser,
			Target:          req.TargetUser,
			Hostname:        req.InvokerHost,
			CommandPath:     req.CommandPath,
			PreserveEnv:     cmd.Bool("preserve-env"),
			PreserveEnvList: cmd.StringSlice("preserve"),
			Login:           cmd.Bool("login"),
		},
		eff,
	)
	return rep.Environment(env)
}
