// Package kitsync assembles the CLI: the root command, its subcommands,
// and the topic-based help system.
package kitsync

import (
	"embed"
	"io/fs"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/kitsync/internal/version"
	"github.com/arthur-debert/kitsync/pkg/cobrax/topics"
	"github.com/arthur-debert/kitsync/pkg/logging"
)

//go:embed topics/*.md
var topicFiles embed.FS

// flags shared by all subcommands via the root command.
type globalFlags struct {
	verbosity int
	root      string
	format    string
	yes       bool
	dryRun    bool
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "kitsync",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(flags.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&flags.root, "root", "", MsgFlagRoot)
	rootCmd.PersistentFlags().StringVar(&flags.format, "format", "auto", MsgFlagFormat)
	rootCmd.PersistentFlags().BoolVar(&flags.yes, "yes", false, MsgFlagYes)
	rootCmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, MsgFlagDryRun)

	rootCmd.AddGroup(&cobra.Group{ID: "sync", Title: "SYNC COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "backup", Title: "BACKUP COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.AddCommand(newInitCmd(flags))
	rootCmd.AddCommand(newStatusCmd(flags))
	rootCmd.AddCommand(newDiffCmd(flags))
	rootCmd.AddCommand(newUpdateCmd(flags))
	rootCmd.AddCommand(newRescanCmd(flags))
	rootCmd.AddCommand(newBackupsCmd(flags))
	rootCmd.AddCommand(newRestoreCmd(flags))
	rootCmd.AddCommand(newPruneCmd(flags))
	rootCmd.AddCommand(newGenConfigCmd(flags))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd(rootCmd))

	// Topic-based help, served from files compiled into the binary.
	if sub, err := fs.Sub(topicFiles, "topics"); err == nil {
		_ = topics.Initialize(rootCmd, sub, topics.Options{
			Renderer: topics.NewGlamourRenderer(),
		})
	}

	return rootCmd
}
