package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// envVarRef matches ${VAR} and ${VAR:-fallback} references in the raw file,
// so secrets like bot tokens can live in the environment instead of on disk.
var envVarRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads and parses a loglink YAML config file. Environment references
// are substituted before the YAML is decoded, so a ${VAR} can appear anywhere
// a scalar value does.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	substituted, err := substituteEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(substituted, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// substituteEnv resolves every ${VAR} reference against the process
// environment, falling back to the inline default when one is given. A
// reference with neither an env value nor a default is an error; all such
// references are reported together rather than one per Load attempt.
func substituteEnv(raw []byte) ([]byte, error) {
	var missing []error

	out := envVarRef.ReplaceAllFunc(raw, func(ref []byte) []byte {
		parts := envVarRef.FindSubmatch(ref)
		name := string(parts[1])

		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if parts[2] != nil {
			return parts[2]
		}

		missing = append(missing, fmt.Errorf("unresolved variable: %s", name))
		return ref
	})

	return out, errors.Join(missing...)
}
