// Package config loads devprep configuration. Layering, lowest to
// highest precedence: embedded defaults, /etc/devprep, the XDG user
// config dir, DEVPREP_* environment variables, then an explicit --config
// file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	devpreperr "github.com/devprep/devprep/pkg/errors"
	"github.com/devprep/devprep/pkg/paths"
)

// EnvPrefix is the prefix for environment overrides. Nesting uses a
// double underscore: DEVPREP_DOCKER__KEY_URL -> docker.key_url.
const EnvPrefix = "DEVPREP_"

// Load returns the merged configuration. explicitPath may be empty; when
// set the file must exist.
func Load(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, devpreperr.Wrap(err, devpreperr.ErrConfigLoad, "failed to load built-in defaults")
	}

	for _, path := range paths.ConfigCandidates() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, devpreperr.Wrapf(err, devpreperr.ErrConfigLoad, "failed to load config from %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envToKey), nil); err != nil {
		return nil, devpreperr.Wrap(err, devpreperr.ErrConfigLoad, "failed to load environment overrides")
	}

	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return nil, devpreperr.Wrapf(err, devpreperr.ErrConfigLoad, "config file %s not found", explicitPath)
		}
		if err := k.Load(file.Provider(explicitPath), parserFor(explicitPath)); err != nil {
			return nil, devpreperr.Wrapf(err, devpreperr.ErrConfigLoad, "failed to load config from %s", explicitPath)
		}
	}

	return unmarshal(k)
}

// Default returns the embedded defaults alone, used by genconfig.
func Default() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, devpreperr.Wrap(err, devpreperr.ErrConfigLoad, "failed to load built-in defaults")
	}
	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, devpreperr.Wrap(err, devpreperr.ErrConfigInvalid, "failed to unmarshal configuration")
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.OpenCV.Version == "" {
		return devpreperr.New(devpreperr.ErrConfigInvalid, "opencv.version must not be empty")
	}
	if cfg.OpenCV.Jobs < 0 {
		return devpreperr.Newf(devpreperr.ErrConfigInvalid, "opencv.jobs must be >= 0, got %d", cfg.OpenCV.Jobs)
	}
	for _, list := range [][]PackageEntry{cfg.Packages.Apt, cfg.Packages.Snap, cfg.Packages.Pip, cfg.OpenCV.BuildPackages} {
		for _, pkg := range list {
			if strings.TrimSpace(pkg.Name) == "" {
				return devpreperr.New(devpreperr.ErrConfigInvalid, "package entries must have a name")
			}
		}
	}
	return nil
}

func parserFor(path string) koanf.Parser {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return kyaml.Parser()
	default:
		return toml.Parser()
	}
}

func envToKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}
