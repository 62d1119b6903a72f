// Package genconfig outputs or writes the default configuration file.
package genconfig

import (
	"path/filepath"

	"github.com/arthur-debert/kitsync/pkg/config"
	"github.com/arthur-debert/kitsync/pkg/errors"
	"github.com/arthur-debert/kitsync/pkg/filesystem"
	"github.com/arthur-debert/kitsync/pkg/logging"
	"github.com/arthur-debert/kitsync/pkg/types"
)

// GenConfigOptions holds options for the genconfig command.
type GenConfigOptions struct {
	ProjectRoot string
	// Write saves the config into the project instead of printing it.
	Write      bool
	FileSystem types.FS
}

// GenConfigResult holds the rendered configuration.
type GenConfigResult struct {
	ConfigContent string `json:"configContent"`
	WrittenTo     string `json:"writtenTo,omitempty"`
}

// GenConfig renders the default configuration with every setting at its
// default value. With Write set it is saved as kitsync.toml in the project
// root, refusing to overwrite an existing file.
func GenConfig(opts GenConfigOptions) (*GenConfigResult, error) {
	logger := logging.GetLogger("commands.genconfig")

	content, err := config.GenerateDefault()
	if err != nil {
		return nil, err
	}

	result := &GenConfigResult{ConfigContent: content}
	if !opts.Write {
		logger.Debug().Msg("Outputting config to stdout")
		return result, nil
	}

	fsys := opts.FileSystem
	if fsys == nil {
		fsys = filesystem.NewOS()
	}

	target := filepath.Join(opts.ProjectRoot, "kitsync.toml")
	if _, err := fsys.Stat(target); err == nil {
		return nil, errors.Newf(errors.ErrInvalidInput, "%s already exists", target)
	}
	if err := fsys.WriteFile(target, []byte(content), 0644); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", target)
	}

	logger.Info().Str("path", target).Msg("Written config file")
	result.WrittenTo = target
	return result, nil
}
