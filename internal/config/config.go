// Package config loads the optional file/environment defaults layer that
// sits beneath the CLI's explicit flags: an llmtrace.yaml file plus
// LLMTRACE_* environment variables, in that order, each overriding the
// last — adapted from the gateway's own koanf-based config.Load().
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults holds the values supplied by the file/env layer. The cobra
// flags take them as their defaults; a zero field means the layer left it
// unset and the flag's built-in default applies.
type Defaults struct {
	Proxy  ProxyDefaults  `koanf:"proxy"`
	Cook   CookDefaults   `koanf:"cook"`
	Viewer ViewerDefaults `koanf:"viewer"`
}

type ProxyDefaults struct {
	Port               int    `koanf:"port"`
	Target             string `koanf:"target"`
	Output             string `koanf:"output"`
	DenyPrivateTargets bool   `koanf:"deny_private_targets"`
}

type CookDefaults struct {
	Format string `koanf:"format"`
}

type ViewerDefaults struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Load reads llmtrace.yaml (if present) and LLMTRACE_* environment
// variables into Defaults, file first so env can override it. A missing
// file is not an error.
func Load() (*Defaults, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider("llmtrace.yaml"), yaml.Parser()); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if err := k.Load(env.Provider("LLMTRACE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "LLMTRACE_")), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var d Defaults
	if err := k.Unmarshal("", &d); err != nil {
		return nil, err
	}
	return &d, nil
}
