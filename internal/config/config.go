package config

import (
	"encoding/json"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/egobogo/docsync/internal/errcode"
)

// Inputs is the flat invocation record. Every value is a string, booleans
// are the literals "true" and "false", exactly as a workflow passes them.
type Inputs struct {
	APIKey         string `yaml:"apiKey" json:"apiKey"`
	Version        string `yaml:"version" json:"version"`
	CategorySlug   string `yaml:"categorySlug" json:"categorySlug"`
	ParentSlug     string `yaml:"parentSlug" json:"parentSlug"`
	TitleRegex     string `yaml:"titleRegex" json:"titleRegex"`
	TitlePrefix    string `yaml:"titlePrefix" json:"titlePrefix"`
	Path           string `yaml:"path" json:"path"`
	AdditionalJSON string `yaml:"additionalJson" json:"additionalJson"`
	Create         string `yaml:"create" json:"create"`
	Overwrite      string `yaml:"overwrite" json:"overwrite"`
	Clear          string `yaml:"clear" json:"clear"`

	// Run settings that are not part of the workflow inputs.
	BaseURL      string `yaml:"baseUrl" json:"baseUrl"`
	Concurrency  string `yaml:"concurrency" json:"concurrency"`
	Timeout      string `yaml:"timeout" json:"timeout"`
	ChangedSince string `yaml:"changedSince" json:"changedSince"`
	DryRun       string `yaml:"dryRun" json:"dryRun"`
}

// Provider loads Inputs from one source.
type Provider interface {
	LoadInputs() (Inputs, error)
}

// Request is the parsed, validated form of Inputs that a sync run consumes.
type Request struct {
	APIKey         string
	Version        string
	CategorySlug   string
	ParentSlug     string
	TitleRegex     *regexp.Regexp
	TitlePrefix    string
	Path           string
	AdditionalJSON map[string]interface{}
	Create         bool
	Overwrite      bool
	Clear          bool

	BaseURL      string
	Concurrency  int
	Timeout      time.Duration
	ChangedSince string
	DryRun       bool
}

// Defaults returns the values used for inputs nobody supplied.
func Defaults() Inputs {
	return Inputs{
		TitleRegex:     `^#\s*(.+)`,
		AdditionalJSON: "{}",
		Create:         "true",
		Overwrite:      "false",
		Clear:          "false",
		Concurrency:    "8",
		Timeout:        "30s",
		DryRun:         "false",
	}
}

// Merge returns in with every non-empty field of over applied on top.
func (in Inputs) Merge(over Inputs) Inputs {
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&in.APIKey, over.APIKey},
		{&in.Version, over.Version},
		{&in.CategorySlug, over.CategorySlug},
		{&in.ParentSlug, over.ParentSlug},
		{&in.TitleRegex, over.TitleRegex},
		{&in.TitlePrefix, over.TitlePrefix},
		{&in.Path, over.Path},
		{&in.AdditionalJSON, over.AdditionalJSON},
		{&in.Create, over.Create},
		{&in.Overwrite, over.Overwrite},
		{&in.Clear, over.Clear},
		{&in.BaseURL, over.BaseURL},
		{&in.Concurrency, over.Concurrency},
		{&in.Timeout, over.Timeout},
		{&in.ChangedSince, over.ChangedSince},
		{&in.DryRun, over.DryRun},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	return in
}

// Parse validates the inputs and converts them into a Request. Every
// failure is an errcode.InvalidConfig error and happens before any remote
// call is made.
func (in Inputs) Parse() (*Request, error) {
	required := []struct {
		name  string
		value string
	}{
		{"apiKey", in.APIKey},
		{"version", in.Version},
		{"categorySlug", in.CategorySlug},
		{"titleRegex", in.TitleRegex},
		{"path", in.Path},
		{"additionalJson", in.AdditionalJSON},
		{"create", in.Create},
		{"overwrite", in.Overwrite},
		{"clear", in.Clear},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, errcode.Errorf(errcode.InvalidConfig, "parse inputs", "❌ Missing required input: %s", r.name)
		}
	}

	req := &Request{
		APIKey:       in.APIKey,
		Version:      in.Version,
		CategorySlug: in.CategorySlug,
		ParentSlug:   in.ParentSlug,
		TitlePrefix:  in.TitlePrefix,
		Path:         in.Path,
		BaseURL:      in.BaseURL,
		ChangedSince: in.ChangedSince,
	}

	var err error
	if req.Create, err = parseBool("create", in.Create); err != nil {
		return nil, err
	}
	if req.Overwrite, err = parseBool("overwrite", in.Overwrite); err != nil {
		return nil, err
	}
	if req.Clear, err = parseBool("clear", in.Clear); err != nil {
		return nil, err
	}
	if req.DryRun, err = parseBool("dryRun", orDefault(in.DryRun, "false")); err != nil {
		return nil, err
	}

	if req.TitleRegex, err = regexp.Compile(in.TitleRegex); err != nil {
		return nil, errcode.Errorf(errcode.InvalidConfig, "parse inputs", "invalid titleRegex %q: %w", in.TitleRegex, err)
	}
	if req.TitleRegex.NumSubexp() < 1 {
		return nil, errcode.Errorf(errcode.InvalidConfig, "parse inputs", "titleRegex %q has no capture group", in.TitleRegex)
	}

	if !doublestar.ValidatePattern(in.Path) {
		return nil, errcode.Errorf(errcode.InvalidConfig, "parse inputs", "invalid path glob %q", in.Path)
	}
	if base, _ := doublestar.SplitPattern(filepath.ToSlash(in.Path)); !path.IsAbs(base) {
		if base = path.Clean(base); base == ".." || strings.HasPrefix(base, "../") {
			return nil, errcode.Errorf(errcode.InvalidConfig, "parse inputs", "path glob %q points outside the working directory", in.Path)
		}
	}

	if err := json.Unmarshal([]byte(in.AdditionalJSON), &req.AdditionalJSON); err != nil {
		return nil, errcode.Errorf(errcode.InvalidConfig, "parse inputs", "invalid additionalJson %q: %w", in.AdditionalJSON, err)
	}
	if req.AdditionalJSON == nil {
		return nil, errcode.Errorf(errcode.InvalidConfig, "parse inputs", "additionalJson must be a JSON object, got %q", in.AdditionalJSON)
	}

	if req.Concurrency, err = strconv.Atoi(orDefault(in.Concurrency, "8")); err != nil || req.Concurrency < 0 {
		return nil, errcode.Errorf(errcode.InvalidConfig, "parse inputs", "invalid concurrency %q", in.Concurrency)
	}
	if req.Timeout, err = time.ParseDuration(orDefault(in.Timeout, "30s")); err != nil {
		return nil, errcode.Errorf(errcode.InvalidConfig, "parse inputs", "invalid timeout %q: %w", in.Timeout, err)
	}

	return req, nil
}

// parseBool accepts exactly "true" or "false" so a typo such as "True" is
// reported instead of silently read as false.
func parseBool(name, value string) (bool, error) {
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errcode.Errorf(errcode.InvalidConfig, "parse inputs", "input %s must be \"true\" or \"false\", got %q", name, value)
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

// String renders the inputs for logging with the API key masked.
func (in Inputs) String() string {
	masked := in
	if masked.APIKey != "" {
		masked.APIKey = "***"
	}
	data, _ := json.Marshal(masked)
	return string(data)
}
