package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/egobogo/docsync/internal/config"
	"github.com/egobogo/docsync/internal/config/action"
	"github.com/egobogo/docsync/internal/config/filesys"
	"github.com/egobogo/docsync/internal/docs/readme"
	"github.com/egobogo/docsync/internal/errcode"
)

var (
	rootCmd = &cobra.Command{
		Use:           "docsync",
		Short:         "Synchronize a directory of markdown files into a ReadMe category",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
	}

	cfgFile    string
	envFile    string
	actionMode bool
	verbose    bool

	logger = slog.New(slog.DiscardHandler)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if actionMode {
			fmt.Printf("::error::%s\n", escapeWorkflowData(err.Error()))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "YAML or JSON file with the sync inputs")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment when present")
	flags.BoolVar(&actionMode, "action", false, "read GitHub Actions INPUT_* variables and report failures as workflow commands")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	addStoreFlags(flags)

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
}

// addStoreFlags registers the flags every command talking to ReadMe shares.
func addStoreFlags(flags *pflag.FlagSet) {
	flags.String("api-key", "", "ReadMe API key, sent as Basic auth")
	flags.String("version", "", "ReadMe project version")
	flags.String("base-url", readme.DefaultBaseURL, "ReadMe API root")
	flags.String("timeout", "", "HTTP timeout per request (default 30s)")
	flags.Bool("dry-run", false, "read from ReadMe but only log writes")
}

// setup loads the dotenv file and builds the logger.
func setup(cmd *cobra.Command) error {
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

// loadInputs layers every input source. Later sources win: defaults, the
// --config file, GitHub Actions inputs, DOCSYNC_* variables, then flags.
func loadInputs(cmd *cobra.Command) (config.Inputs, error) {
	in := config.Defaults()

	if cfgFile != "" {
		fromFile, err := filesys.NewFilesysConfigProvider(cfgFile).LoadInputs()
		if err != nil {
			return config.Inputs{}, errcode.New(errcode.InvalidConfig, "load inputs", err)
		}
		in = in.Merge(fromFile)
	}

	if actionMode {
		fromAction, err := action.NewActionConfigProvider().LoadInputs()
		if err != nil {
			return config.Inputs{}, errcode.New(errcode.InvalidConfig, "load inputs", err)
		}
		in = in.Merge(fromAction)
	}

	v := viper.New()
	v.SetEnvPrefix("DOCSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return config.Inputs{}, fmt.Errorf("failed to bind flags: %w", err)
	}

	// IsSet ignores flag defaults, so only explicit values override.
	get := func(key string) string {
		if v.IsSet(key) {
			return v.GetString(key)
		}
		return ""
	}
	in = in.Merge(config.Inputs{
		APIKey:         get("api-key"),
		Version:        get("version"),
		CategorySlug:   get("category-slug"),
		ParentSlug:     get("parent-slug"),
		TitleRegex:     get("title-regex"),
		TitlePrefix:    get("title-prefix"),
		Path:           get("path"),
		AdditionalJSON: get("additional-json"),
		Create:         get("create"),
		Overwrite:      get("overwrite"),
		Clear:          get("clear"),
		BaseURL:        get("base-url"),
		Concurrency:    get("concurrency"),
		Timeout:        get("timeout"),
		ChangedSince:   get("changed-since"),
		DryRun:         get("dry-run"),
	})

	logger.Debug("📃 Loaded inputs", "inputs", in.String())
	return in, nil
}

func newReadmeClient(apiKey, version, baseURL string, timeout time.Duration) *readme.ReadmeClient {
	client := readme.NewReadmeClient(apiKey, version)
	if baseURL != "" {
		client.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout > 0 {
		client.HTTPClient.Timeout = timeout
	}
	client.Logger = logger
	return client
}

// escapeWorkflowData encodes a message for a ::error:: workflow command.
func escapeWorkflowData(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}
