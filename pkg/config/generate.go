package config

import (
	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/kitsync/pkg/errors"
)

// GenerateDefault renders the default settings as a TOML document, ready to
// be saved as a project's kitsync.toml.
func GenerateDefault() (string, error) {
	settings, err := Default()
	if err != nil {
		return "", err
	}
	out, err := toml.Marshal(settings)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to serialize default config")
	}
	return string(out), nil
}
