package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/sudocore/internal/version"
)

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Printf("sudocore version %s", version.Version())
			if rev := version.Revision(); rev != "" {
				fmt.Printf(" (%s)", rev)
			}
			fmt.Printf(" %s\n", version.GoVersion())
			return nil
		},
	}
}
