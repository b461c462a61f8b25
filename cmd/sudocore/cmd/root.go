package cmd

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wharflab/sudocore/internal/version"
)

// NewApp creates the CLI application.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "sudocore",
		Usage:   "Evaluate sudoers policies without touching the system",
		Version: version.Version(),
		Description: `sudocore parses a sudoers policy file and answers authorization
questions against it, using a JSON user/group database snapshot instead of
/etc/passwd and /etc/group.

Examples:
  sudocore lint testdata/sudoers
  sudocore check --sudoers ./sudoers --snapshot ./db.json --user alice -- /bin/ls -l
  sudocore env --sudoers ./sudoers --snapshot ./db.json --user alice -- /bin/ls`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(_ context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil, nil
		},
		Commands: []*cli.Command{
			checkCommand(),
			envCommand(),
			lintCommand(),
			versionCommand(),
		},
	}
}

// Execute runs the CLI application.
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
