package main

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/egobogo/docsync/internal/config"
	"github.com/egobogo/docsync/internal/errcode"
	"github.com/egobogo/docsync/internal/versioning"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Work with ReadMe project versions",
}

var versionBaseCmd = &cobra.Command{
	Use:   "base <target> [existing...]",
	Short: "Print the version target would be forked from",
	Long: `Print the version target would be forked from: the greatest existing
version not above target. Existing versions are read from ReadMe unless they
are given as arguments.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := semver.NewVersion(args[0])
		if err != nil {
			return errcode.Errorf(errcode.InvalidConfig, "version base", "invalid target version %q: %w", args[0], err)
		}

		var existing []*semver.Version
		if len(args) > 1 {
			for _, arg := range args[1:] {
				v, err := semver.NewVersion(arg)
				if err != nil {
					return errcode.Errorf(errcode.InvalidConfig, "version base", "invalid version %q: %w", arg, err)
				}
				existing = append(existing, v)
			}
		} else {
			in, timeout, err := versionInputs(cmd)
			if err != nil {
				return err
			}
			remote, err := newReadmeClient(in.APIKey, in.Version, in.BaseURL, timeout).ListVersions(cmd.Context())
			if err != nil {
				return errcode.New(errcode.Remote, "list versions", err)
			}
			for _, r := range remote {
				v, err := semver.NewVersion(r.Version)
				if err != nil {
					logger.Warn("⚠️  Skipping version that is not semver", "version", r.Version)
					continue
				}
				existing = append(existing, v)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), versioning.ResolveBase(target, existing).Original())
		return nil
	},
}

var versionEnsureCmd = &cobra.Command{
	Use:   "ensure <target>",
	Short: "Create target in ReadMe, forked from its base, unless it exists",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, timeout, err := versionInputs(cmd)
		if err != nil {
			return err
		}
		client := newReadmeClient(in.APIKey, in.Version, in.BaseURL, timeout)

		v, created, err := versioning.Ensure(cmd.Context(), client, args[0], logger)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "created %s from %s\n", v.Version, v.ForkedFrom)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "exists %s\n", v.Version)
		}
		return nil
	},
}

func init() {
	versionCmd.AddCommand(versionBaseCmd)
	versionCmd.AddCommand(versionEnsureCmd)
}

// versionInputs loads the inputs the version commands need: only the API key
// is required.
func versionInputs(cmd *cobra.Command) (config.Inputs, time.Duration, error) {
	in, err := loadInputs(cmd)
	if err != nil {
		return config.Inputs{}, 0, err
	}
	if in.APIKey == "" {
		return config.Inputs{}, 0, errcode.Errorf(errcode.InvalidConfig, "load inputs", "❌ Missing required input: apiKey")
	}
	timeout, err := time.ParseDuration(in.Timeout)
	if err != nil {
		return config.Inputs{}, 0, errcode.Errorf(errcode.InvalidConfig, "load inputs", "invalid timeout %q: %w", in.Timeout, err)
	}
	return in, timeout, nil
}
