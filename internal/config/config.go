package config

import (
	"bytes"
	"io"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const Version = "v1"

// Config holds the editor settings read from bew.yaml files.
type Config struct {
	Version string  `yaml:"version" validate:"eq=v1"`
	Editor  Editor  `yaml:"editor"`
	Table   Table   `yaml:"table"`
	Code    Code    `yaml:"code"`
	History History `yaml:"history"`
	Log     Log     `yaml:"log"`
}

type Editor struct {
	// Live starts documents in live (rich-text) mode.
	Live     bool `yaml:"live"`
	FontSize int  `yaml:"font_size" validate:"min=8,max=72"`
}

type Table struct {
	// Rows and Cols are the size the table prompt starts from.
	Rows    int `yaml:"rows" validate:"min=1,ltefield=MaxRows"`
	Cols    int `yaml:"cols" validate:"min=1,ltefield=MaxCols"`
	MaxRows int `yaml:"max_rows" validate:"min=1"`
	MaxCols int `yaml:"max_cols" validate:"min=1"`

	Header    string `yaml:"header" validate:"required,excludesall=0x7C"`
	Separator string `yaml:"separator" validate:"separator"`
	Cell      string `yaml:"cell" validate:"required,excludesall=0x7C"`
}

type Code struct {
	// Style is the chroma style used for standalone HTML output.
	Style     string            `yaml:"style" validate:"required"`
	Languages []Language        `yaml:"languages" validate:"dive"`
	Aliases   map[string]string `yaml:"aliases"`
}

type Language struct {
	Value string `yaml:"value"`
	Label string `yaml:"label" validate:"required"`
}

type History struct {
	Capacity int `yaml:"capacity" validate:"min=1,max=1000"`
}

type Log struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Verbose bool   `yaml:"verbose"`
}

var separatorPattern = regexp.MustCompile(`^:?-{3,}:?$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("separator", func(fl validator.FieldLevel) bool {
		return separatorPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
	return v
}

// ParseYAML parses a single configuration file on top of the defaults.
func ParseYAML(data []byte) (*Config, error) {
	return ParseYAMLChain(data)
}

// ParseYAMLChain parses configuration files in order, starting from the
// defaults. Keys set in a later file override the same keys of earlier ones;
// lists are replaced as a whole.
func ParseYAMLChain(chain ...[]byte) (*Config, error) {
	cfg := Default()

	for _, data := range chain {
		version, err := parseVersionFromYAML(data)
		if err != nil {
			return nil, err
		}
		if version != "" && version != Version {
			return nil, errors.Errorf("unknown version: %s", version)
		}

		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "failed to unmarshal yaml")
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to validate config")
	}
	return cfg, nil
}

type versionOnly struct {
	Version string `yaml:"version"`
}

func parseVersionFromYAML(data []byte) (string, error) {
	var result versionOnly

	if err := yaml.Unmarshal(data, &result); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal version")
	}

	return result.Version, nil
}
