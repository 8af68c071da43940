package config

import (
	"gopkg.in/yaml.v3"
)

var defaults Config

var defaultsYAML = []byte(`version: v1

editor:
  # Open documents in live (rich-text) mode.
  live: false
  font_size: 16

# Table insertion prompt.
table:
  rows: 3
  cols: 3
  max_rows: 50
  max_cols: 20
  header: "Header"
  separator: "---"
  cell: "..."

code:
  style: "github"
  # Entries of the code language picker. An empty value means plain text.
  languages:
    - { value: "", label: "Plain text" }
    - { value: "javascript", label: "JavaScript" }
    - { value: "typescript", label: "TypeScript" }
    - { value: "html", label: "HTML" }
    - { value: "css", label: "CSS" }
    - { value: "python", label: "Python" }
    - { value: "bash", label: "Bash" }
    - { value: "json", label: "JSON" }
    - { value: "sql", label: "SQL" }
    - { value: "csharp", label: "C#" }
    - { value: "java", label: "Java" }
    - { value: "cpp", label: "C++" }
    - { value: "markdown", label: "Markdown" }
  # Maps language tags to lexer names when they differ.
  aliases: {}

history:
  capacity: 50

log:
  enabled: false
  path: "/tmp/bew.log"
  verbose: false
`)

func init() {
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		panic(err)
	}
	if err := validate.Struct(&defaults); err != nil {
		panic(err)
	}
}

// Default returns a copy of the default configuration.
func Default() *Config {
	cfg := defaults
	cfg.Code.Languages = append([]Language(nil), defaults.Code.Languages...)
	cfg.Code.Aliases = make(map[string]string, len(defaults.Code.Aliases))
	for k, v := range defaults.Code.Aliases {
		cfg.Code.Aliases[k] = v
	}
	return &cfg
}
