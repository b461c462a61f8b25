package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wharflab/sudocore/internal/authz"
	"github.com/wharflab/sudocore/internal/config"
	"github.com/wharflab/sudocore/internal/dbsnapshot"
	"github.com/wharflab/sudocore/internal/diagnostics"
	"github.com/wharflab/sudocore/internal/policy"
	"github.com/wharflab/sudocore/internal/reporter"
)

// includeOptions are the I/O collaborators the core's include resolution
// needs (spec.md §6: "includes are resolved by a caller-supplied file
// reader"). This is the only place the policy engine's input touches the
// filesystem.
func includeOptions() []policy.ParseOption {
	return []policy.ParseOption{
		policy.WithIncludeReader(func(path string) (string, error) {
			data, err := os.ReadFile(path)
			return string(data), err
		}),
		policy.WithIncludeDirLister(func(dir string) ([]string, error) {
			entries, err := os.ReadDir(dir)
			if err != nil {
				return nil, err
			}
			paths := make([]string, 0, len(entries))
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
			return paths, nil
		}),
	}
}

// loadPolicy reads and resolves the sudoers file named by --sudoers.
func loadPolicy(cmd *cli.Command) (*policy.Sudoers, string, *diagnostics.ParseError, error) {
	path := cmd.String("sudoers")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, nil, fmt.Errorf("reading sudoers file: %w", err)
	}
	logrus.WithField("path", path).Debug("parsing sudoers policy")
	s, diags := policy.Parse(string(data), includeOptions()...)
	return s, path, diags, nil
}

// loadConfig resolves the shell configuration for the policy file, letting
// an explicit --config flag bypass discovery.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	if cfgPath := cmd.String("config"); cfgPath != "" {
		return config.LoadFromFile(cfgPath)
	}
	return config.Load(cmd.String("sudoers"))
}

// loadSnapshot reads the user/group database snapshot JSON. The --snapshot
// flag wins over the configured path.
func loadSnapshot(cmd *cli.Command, cfg *config.Config) (*dbsnapshot.Snapshot, error) {
	path := cmd.String("snapshot")
	if path == "" {
		path = cfg.Snapshot
	}
	if path == "" {
		return nil, fmt.Errorf("no database snapshot: pass --snapshot or set snapshot in sudocore.toml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return dbsnapshot.Load(data)
}

// buildRequest resolves the request identities from flags and the snapshot.
func buildRequest(cmd *cli.Command, snap *dbsnapshot.Snapshot) (authz.Request, error) {
	invokerName := cmd.String("user")
	invoker, ok := snap.UserByName(invokerName)
	if !ok {
		return authz.Request{}, fmt.Errorf("invoking user %q is not in the snapshot", invokerName)
	}

	targetName := cmd.String("target-user")
	target, ok := snap.UserByName(targetName)
	if !ok {
		return authz.Request{}, fmt.Errorf("target user %q is not in the snapshot", targetName)
	}

	group, ok := snap.GroupByGID(target.GID)
	if name := cmd.String("target-group"); name != "" {
		group, ok = snap.GroupByName(name)
		if !ok {
			return authz.Request{}, fmt.Errorf("target group %q is not in the snapshot", name)
		}
	} else if !ok {
		return authz.Request{}, fmt.Errorf("target user %q's primary group is not in the snapshot", targetName)
	}

	args := cmd.Args().Slice()
	if len(args) == 0 {
		return authz.Request{}, fmt.Errorf("no command given")
	}

	host := cmd.String("host")
	if host == "" {
		host, _ = os.Hostname()
	}

	return authz.Request{
		InvokerUser: invoker,
		InvokerHost: host,
		TargetUser:  target,
		TargetGroup: group,
		CommandPath: args[0],
		CommandArgs: args[1:],
	}, nil
}

// newReporter builds the reporter selected by --format (falling back to the
// configured default) writing to the configured destination.
func newReporter(cmd *cli.Command, cfg *config.Config) (reporter.Reporter, func(), error) {
	format := cmd.String("format")
	if format == "" {
		format = cfg.Output.Format
	}

	w := os.Stdout
	cleanup := func() {}
	switch cfg.Output.Path {
	case "", "stdout":
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			return nil, nil, err
		}
		w = f
		cleanup = func() { f.Close() }
	}

	r, err := reporter.New(format, w)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return r, cleanup, nil
}

// requestFlags are the flags shared by check and env.
func requestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "sudoers",
			Usage:    "Path of the sudoers policy file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "snapshot",
			Usage: "Path of the user/group database snapshot JSON",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path of a sudocore.toml (skips discovery)",
		},
		&cli.StringFlag{
			Name:     "user",
			Usage:    "Invoking user name",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "Invoking host name (default: this host)",
		},
		&cli.StringFlag{
			Name:  "target-user",
			Usage: "User to run the command as",
			Value: "root",
		},
		&cli.StringFlag{
			Name:  "target-group",
			Usage: "Group to run the command as (default: the target user's primary group)",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: text or json",
		},
	}
}
