// Package config loads kitsync settings with a fixed precedence:
// embedded defaults, then a project-level .kitsync.toml or kitsync.toml,
// then KITSYNC_* environment variables.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/kitsync/pkg/errors"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// rawBytesProvider implements koanf's Provider for embedded bytes.
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}

// RegistrySettings configures the upstream release registry.
type RegistrySettings struct {
	URL     string `koanf:"url" toml:"url"`
	Channel string `koanf:"channel" toml:"channel"`
}

// BackupSettings configures the retention policy.
type BackupSettings struct {
	Keep     int  `koanf:"keep" toml:"keep"`
	Disabled bool `koanf:"disabled" toml:"disabled"`
}

// SyncSettings configures reconciliation details.
type SyncSettings struct {
	ConflictLabel string `koanf:"conflict_label" toml:"conflict_label"`
}

// Settings is the fully resolved configuration.
type Settings struct {
	Registry RegistrySettings `koanf:"registry" toml:"registry"`
	Backups  BackupSettings   `koanf:"backups" toml:"backups"`
	Sync     SyncSettings     `koanf:"sync" toml:"sync"`
}

// Load resolves settings for a project root. Missing project config files
// are fine; a present but unparsable one is an error.
func Load(projectRoot string) (*Settings, error) {
	k := koanf.New(".")

	// 1. Embedded defaults.
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load default config")
	}

	// 2. Seed computed values.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"project.root": projectRoot,
	}, "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to seed config")
	}

	// 3. Project config, first match wins.
	for _, filename := range []string{".kitsync.toml", "kitsync.toml"} {
		path := filepath.Join(projectRoot, filename)
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", path)
			}
			break
		}
	}

	// 4. Environment overrides: KITSYNC_REGISTRY_URL -> registry.url
	if err := k.Load(env.Provider("KITSYNC_", ".", func(s string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(s, "KITSYNC_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal settings")
	}
	return &settings, nil
}

// Default returns the embedded defaults without consulting disk or
// environment, used by genconfig.
func Default() (*Settings, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load default config")
	}
	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal settings")
	}
	return &settings, nil
}
