package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wharflab/sudocore/internal/policy"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Evaluate one authorization request against a sudoers policy",
		ArgsUsage: "-- COMMAND [ARGS...]",
		Flags:     requestFlags(),
		Action:    runCheck,
	}
}

func runCheck(_ context.Context, cmd *cli.Command) error {
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
	logrus.WithFields(logrus.Fields{
		"user":    req.InvokerUser.Name,
		"command": req.CommandPath,
		"allowed": j.Allowed,
	}).Debug("evaluated request")

	if err := rep.Judgement(j, eff); err != nil {
		return err
	}
	if !j.Allowed {
		return cli.Exit("", 1)
	}
	return nil
}
