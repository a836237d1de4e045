package tslint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"gopkg.in/yaml.v3"

	"github.com/podhmo/go-tslint/fs"
	"github.com/podhmo/go-tslint/parser"
	"github.com/podhmo/go-tslint/rule"
)

// ConfigFileName is the project configuration file looked up at the project root.
const ConfigFileName = ".tslint.yaml"

// Config is the project configuration.
//
//	rules:
//	  no-unnecessary-type-constraint: warn
//	ignore:
//	  - dist/
//	  - "*.d.ts"
//	extensions: [.ts, .tsx]
type Config struct {
	// Rules overrides the severity of rules by name. Recommended rules that
	// are not listed run at "error", the others are off.
	Rules RuleLevels `yaml:"rules,omitempty"`
	// Ignore holds gitignore-style patterns relative to the project root.
	Ignore []string `yaml:"ignore,omitempty"`
	// Extensions limits which files are linted when walking directories.
	Extensions []string `yaml:"extensions,omitempty"`

	matcher *ignore.GitIgnore
}

// RuleLevels maps rule names to severities. Each value is either a scalar
// ("off", "warn", "error", 0, 1, 2) or a sequence whose first item is one.
type RuleLevels map[string]rule.Severity

func (rl *RuleLevels) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		*rl = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("config: rules must be a mapping, but found %s", value.ShortTag())
	}
	result := make(RuleLevels, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		name := strings.TrimSpace(keyNode.Value)
		if name == "" {
			return fmt.Errorf("config: line %d: rule names must be non-empty", keyNode.Line)
		}
		if valNode.Kind == yaml.SequenceNode {
			if len(valNode.Content) == 0 {
				return fmt.Errorf("config: line %d: rule %q has an empty setting", valNode.Line, name)
			}
			valNode = valNode.Content[0]
		}
		if valNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("config: line %d: rule %q must have a severity", valNode.Line, name)
		}
		sev, err := rule.ParseSeverity(valNode.Value)
		if err != nil {
			return fmt.Errorf("config: line %d: rule %q: %w", valNode.Line, name, err)
		}
		result[name] = sev
	}
	*rl = result
	return nil
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	c := &Config{Extensions: slices.Clone(parser.Extensions)}
	c.compile()
	return c
}

// LoadConfig reads and validates the configuration file at path.
func LoadConfig(fsys fs.FS, path string) (*Config, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	c, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return c, nil
}

// ParseConfig decodes a configuration document.
func ParseConfig(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	if len(c.Extensions) == 0 {
		c.Extensions = slices.Clone(parser.Extensions)
	}
	for i, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !parser.Supported("x" + ext) {
			return nil, fmt.Errorf("config: unsupported extension %q", ext)
		}
		c.Extensions[i] = ext
	}
	c.compile()
	return c, nil
}

// findConfig loads ConfigFileName from rootDir, falling back to DefaultConfig.
func findConfig(fsys fs.FS, rootDir string) (*Config, string, error) {
	path := filepath.Join(rootDir, ConfigFileName)
	if _, err := fsys.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), "", nil
		}
		return nil, "", fmt.Errorf("stat config %s: %w", path, err)
	}
	c, err := LoadConfig(fsys, path)
	if err != nil {
		return nil, "", err
	}
	return c, path, nil
}

func (c *Config) compile() {
	c.matcher = ignore.CompileIgnoreLines(c.Ignore...)
}

// Ignored reports whether relPath (slash separated, relative to the project
// root) matches one of the ignore patterns.
func (c *Config) Ignored(relPath string) bool {
	if c.matcher == nil {
		c.compile()
	}
	return c.matcher.MatchesPath(relPath)
}

// Accepts reports whether filename has one of the configured extensions.
func (c *Config) Accepts(filename string) bool {
	return slices.Contains(c.Extensions, strings.ToLower(filepath.Ext(filename)))
}

// Severity returns the effective severity of r.
func (c *Config) Severity(r rule.Rule) rule.Severity {
	if sev, ok := c.Rules[r.Name()]; ok {
		return sev
	}
	if r.Meta().Recommended {
		return rule.SeverityError
	}
	return rule.SeverityOff
}

// fingerprint identifies the settings that influence lint results; it is
// mixed into cache keys.
func (c *Config) fingerprint() []byte {
	data, err := yaml.Marshal(struct {
		Rules RuleLevels `yaml:"rules"`
	}{Rules: c.Rules})
	if err != nil {
		return nil
	}
	return data
}
