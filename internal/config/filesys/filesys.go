package filesys

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/egobogo/docsync/internal/config"
)

// FilesysConfigProvider is a concrete implementation of config.Provider that
// reads an input file. JSON is valid YAML, so a JSON input file works too.
type FilesysConfigProvider struct {
	path string
}

// NewFilesysConfigProvider creates a provider for the file at path.
func NewFilesysConfigProvider(path string) *FilesysConfigProvider {
	return &FilesysConfigProvider{path: path}
}

// LoadInputs reads and unmarshals the input file. Unquoted scalars such as
// `create: true` are kept as their literal text.
func (f *FilesysConfigProvider) LoadInputs() (config.Inputs, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return config.Inputs{}, fmt.Errorf("failed to open input file: %w", err)
	}
	var in config.Inputs
	if err := yaml.Unmarshal(data, &in); err != nil {
		return config.Inputs{}, fmt.Errorf("failed to unmarshal input file %s: %w", f.path, err)
	}
	return in, nil
}
