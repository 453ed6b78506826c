package action

import (
	"os"
	"strings"

	"github.com/egobogo/docsync/internal/config"
)

// ActionConfigProvider reads workflow inputs the way a GitHub Actions runner
// exposes them: one INPUT_<NAME> environment variable per input, with the
// name upper-cased and spaces replaced by underscores.
type ActionConfigProvider struct {
	lookup func(string) (string, bool)
}

// NewActionConfigProvider creates a provider over the process environment.
func NewActionConfigProvider() *ActionConfigProvider {
	return &ActionConfigProvider{lookup: os.LookupEnv}
}

// EnvName returns the variable a runner sets for the input called name.
func EnvName(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

// LoadInputs collects every known input. Unset inputs stay empty so the
// lower precedence sources keep their values after config.Inputs.Merge.
func (a *ActionConfigProvider) LoadInputs() (config.Inputs, error) {
	get := func(name string) string {
		v, _ := a.lookup(EnvName(name))
		return strings.TrimSpace(v)
	}

	return config.Inputs{
		APIKey:         get("apiKey"),
		Version:        get("version"),
		CategorySlug:   get("categorySlug"),
		ParentSlug:     get("parentSlug"),
		TitleRegex:     get("titleRegex"),
		TitlePrefix:    get("titlePrefix"),
		Path:           get("path"),
		AdditionalJSON: get("additionalJson"),
		Create:         get("create"),
		Overwrite:      get("overwrite"),
		Clear:          get("clear"),
		BaseURL:        get("baseUrl"),
		Concurrency:    get("concurrency"),
		Timeout:        get("timeout"),
		ChangedSince:   get("changedSince"),
		DryRun:         get("dryRun"),
	}, nil
}
