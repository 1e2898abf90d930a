// Package config loads container settings from a JSON file, a .env file
// and DIGO_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/centraunit/digo"
	units "github.com/docker/go-units"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DIGO_"

// Settings is the configuration of a container and of the tools around it.
type Settings struct {
	Name string `koanf:"name" validate:"required"`
	// ArenaCapacity is a human readable size such as "64KiB". Empty sizes
	// the arena from the registered constructors.
	ArenaCapacity string `koanf:"arena_capacity"`
	Verbosity     int    `koanf:"verbosity" validate:"gte=0,lte=10"`
	// Listen is the address of the introspection server.
	Listen string `koanf:"listen" validate:"required"`
}

var defaults = map[string]any{
	"name":           "digo",
	"arena_capacity": "",
	"verbosity":      0,
	"listen":         "127.0.0.1:9090",
}

var validate = validator.New()

// Load layers, from lowest to highest precedence: defaults, the JSON file
// at path (skipped when empty) and the environment. envFiles are loaded
// into the environment first; missing files are ignored and variables
// already set are kept. Without envFiles ".env" is tried.
func Load(path string, envFiles ...string) (*Settings, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// Non-fatal: .env may not exist
		_ = godotenv.Load(f)
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	var s Settings
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// envKey maps DIGO_ARENA_CAPACITY to arena_capacity.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// Validate checks field constraints and the arena capacity format.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if _, err := s.Capacity(); err != nil {
		return err
	}
	return nil
}

// Capacity returns ArenaCapacity in bytes.
func (s *Settings) Capacity() (uint64, error) {
	if s.ArenaCapacity == "" {
		return 0, nil
	}
	n, err := units.RAMInBytes(s.ArenaCapacity)
	if err != nil {
		return 0, fmt.Errorf("invalid arena_capacity %q: %w", s.ArenaCapacity, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid arena_capacity %q: negative size", s.ArenaCapacity)
	}
	return uint64(n), nil
}

// Options converts s into container options.
func (s *Settings) Options() (digo.Options, error) {
	capacity, err := s.Capacity()
	if err != nil {
		return digo.Options{}, err
	}
	return digo.Options{
		Name:          s.Name,
		ArenaCapacity: capacity,
		Verbosity:     s.Verbosity,
	}, nil
}
