// Package config holds the settings of a solver session.
package config

import (
	"fmt"
	"os"
	"time"

	"sigs.k8s.io/yaml"

	verr "github.com/vhavlena/smtswitch/pkg/err"
)

// DefaultBackend is the engine used when none is configured.
const DefaultBackend = "gini"

// Log selects logger level and format.
type Log struct {
	Level string `json:"level,omitempty"`
	JSON  bool   `json:"json,omitempty"`
}

// Config is the session configuration.
//
// Fields:
//
//	Backend string: Registered engine name.
//	Logic string: SMT-LIB logic passed to SetLogic, if set.
//	Options map[string]string: Forwarded to SetOpt in key order.
//	Timeout Duration: Bound on each check; zero means none.
//	Log Log: Logger settings.
//	Metrics bool: Register Prometheus collectors for the session.
//	IntWidth uint64: When non-zero, integers are encoded as bit-vectors of this width.
type Config struct {
	Backend  string            `json:"backend,omitempty"`
	Logic    string            `json:"logic,omitempty"`
	Options  map[string]string `json:"options,omitempty"`
	Timeout  Duration          `json:"timeout,omitempty"`
	Log      Log               `json:"log,omitempty"`
	Metrics  bool              `json:"metrics,omitempty"`
	IntWidth uint64            `json:"intWidth,omitempty"`
}

// Default returns the configuration used without a config file.
func Default() Config {
	return Config{
		Backend: DefaultBackend,
		Log:     Log{Level: "info"},
	}
}

// Parse reads a YAML configuration on top of the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, verr.Usage("invalid configuration: %v", err)
	}
	if cfg.Backend == "" {
		cfg.Backend = DefaultBackend
	}
	return cfg, nil
}

// Load reads the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Validate checks the configuration against the set of available backends.
func (c Config) Validate(backends []string) error {
	found := false
	for _, b := range backends {
		if b == c.Backend {
			found = true
			break
		}
	}
	if !found {
		return verr.Usage("unknown backend %q (available: %v)", c.Backend, backends)
	}
	if c.Timeout.Duration < 0 {
		return verr.Usage("negative timeout %s", c.Timeout)
	}
	if c.IntWidth > 64 {
		return verr.Usage("integer width %d exceeds 64", c.IntWidth)
	}
	return nil
}

// Duration is a time.Duration written as a Go duration string.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("duration must be a string, got %s", s)
	}
	v, err := time.ParseDuration(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}
