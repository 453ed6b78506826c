package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/egobogo/docsync/internal/docs"
	"github.com/egobogo/docsync/internal/docs/dryrun"
	"github.com/egobogo/docsync/internal/files"
	"github.com/egobogo/docsync/internal/gitrepo"
	"github.com/egobogo/docsync/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload the files matching --path into --category-slug",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadInputs(cmd)
		if err != nil {
			return err
		}
		req, err := in.Parse()
		if err != nil {
			return err
		}

		workDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}

		var store docs.DocumentStore = newReadmeClient(req.APIKey, req.Version, req.BaseURL, req.Timeout)
		if req.DryRun {
			store = dryrun.Wrap(store, logger)
		}

		opts := []sync.Option{sync.WithLogger(logger)}
		if req.ChangedSince != "" {
			repo, err := gitrepo.NewGitClient(workDir)
			if err != nil {
				return err
			}
			opts = append(opts, sync.WithChangeDetector(repo))
		}

		return sync.New(store, files.NewOSSource(workDir), opts...).Synchronize(cmd.Context(), req)
	},
}

func init() {
	addSyncFlags(syncCmd.Flags())
}

func addSyncFlags(flags *pflag.FlagSet) {
	flags.String("category-slug", "", "slug of the category to upload into")
	flags.String("parent-slug", "", "limit clear to the children of this top-level doc and upload under it")
	flags.String("title-regex", "", `pattern whose first group is the doc title (default "^#\s*(.+)")`)
	flags.String("title-prefix", "", "text prepended to every title")
	flags.String("path", "", "glob of files to upload, ** descends into directories")
	flags.String("additional-json", "", "JSON object merged into every doc payload")
	flags.String("create", "", `create missing docs, "true" or "false" (default "true")`)
	flags.String("overwrite", "", `update existing docs, "true" or "false" (default "false")`)
	flags.String("clear", "", `delete the category's docs first, "true" or "false" (default "false")`)
	flags.String("concurrency", "", "maximum parallel requests, 0 for no limit (default 8)")
	flags.String("changed-since", "", "only upload files changed between this git revision and HEAD")
}
