package kitsync

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/kitsync/internal/version"
	"github.com/arthur-debert/kitsync/pkg/commands/backups"
	"github.com/arthur-debert/kitsync/pkg/commands/diffcmd"
	"github.com/arthur-debert/kitsync/pkg/commands/genconfig"
	"github.com/arthur-debert/kitsync/pkg/commands/initialize"
	"github.com/arthur-debert/kitsync/pkg/commands/rescan"
	"github.com/arthur-debert/kitsync/pkg/commands/status"
	"github.com/arthur-debert/kitsync/pkg/commands/update"
	"github.com/arthur-debert/kitsync/pkg/config"
	"github.com/arthur-debert/kitsync/pkg/paths"
	"github.com/arthur-debert/kitsync/pkg/reconcile"
	"github.com/arthur-debert/kitsync/pkg/registry"
	"github.com/arthur-debert/kitsync/pkg/ui"
)

// cmdEnv is the resolved per-invocation environment: project root,
// configuration, and output format.
type cmdEnv struct {
	root   string
	cfg    *config.Settings
	format ui.Format
}

func newEnv(flags *globalFlags) (*cmdEnv, error) {
	p, err := paths.New(flags.root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(p.ProjectRoot())
	if err != nil {
		return nil, err
	}

	format, err := ui.ParseFormat(flags.format)
	if err != nil {
		return nil, err
	}

	return &cmdEnv{
		root:   p.ProjectRoot(),
		cfg:    cfg,
		format: ui.Resolve(format, os.Stdout),
	}, nil
}

// provider builds the registry client from config, with optional flag
// overrides.
func (e *cmdEnv) provider(urlOverride, channelOverride string) (registry.Provider, error) {
	url := e.cfg.Registry.URL
	if urlOverride != "" {
		url = urlOverride
	}
	channel := e.cfg.Registry.Channel
	if channelOverride != "" {
		channel = channelOverride
	}
	return registry.New(registry.Options{
		URL:      url,
		Channel:  channel,
		CacheDir: paths.ReleaseCacheDir(),
	})
}

func newInitCmd(flags *globalFlags) *cobra.Command {
	var (
		kitVersion  string
		registryURL string
		channel     string
		assumeClean bool
	)

	cmd := &cobra.Command{
		Use:     "init",
		Short:   MsgInitShort,
		Long:    MsgInitLong,
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(flags)
			if err != nil {
				return err
			}
			provider, err := env.provider(registryURL, channel)
			if err != nil {
				return err
			}

			result, err := initialize.Init(cmd.Context(), initialize.InitOptions{
				ProjectRoot: env.root,
				Version:     kitVersion,
				AssumeClean: assumeClean,
				Registry:    provider,
			})
			if err != nil {
				return err
			}

			if env.format == ui.FormatJSON {
				return printJSON(result)
			}
			fmt.Printf(MsgInitDone+"\n", result.Version, result.Tracked)
			return nil
		},
	}

	cmd.Flags().StringVar(&kitVersion, "kit-version", "", MsgFlagVersion)
	cmd.Flags().StringVar(&registryURL, "registry", "", MsgFlagRegistry)
	cmd.Flags().StringVar(&channel, "channel", "", MsgFlagChannel)
	cmd.Flags().BoolVar(&assumeClean, "assume-clean", false, MsgFlagAssumeClean)
	return cmd
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	var (
		kitVersion  string
		registryURL string
		channel     string
	)

	cmd := &cobra.Command{
		Use:     "status",
		Short:   MsgStatusShort,
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(flags)
			if err != nil {
				return err
			}
			provider, err := env.provider(registryURL, channel)
			if err != nil {
				return err
			}

			result, err := status.Status(cmd.Context(), status.StatusOptions{
				ProjectRoot: env.root,
				Version:     kitVersion,
				Registry:    provider,
			})
			if err != nil {
				return err
			}

			if env.format == ui.FormatJSON {
				if err := printJSON(result); err != nil {
					return err
				}
			} else {
				renderStatus(env.format, result)
			}

			// Conflicts pending is a distinct, scriptable exit state.
			if len(result.Conflicts) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kitVersion, "kit-version", "", MsgFlagVersion)
	cmd.Flags().StringVar(&registryURL, "registry", "", MsgFlagRegistry)
	cmd.Flags().StringVar(&channel, "channel", "", MsgFlagChannel)
	return cmd
}

func newDiffCmd(flags *globalFlags) *cobra.Command {
	var (
		kitVersion  string
		registryURL string
		channel     string
	)

	cmd := &cobra.Command{
		Use:     "diff [paths...]",
		Short:   MsgDiffShort,
		GroupID: "sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(flags)
			if err != nil {
				return err
			}
			provider, err := env.provider(registryURL, channel)
			if err != nil {
				return err
			}

			result, err := diffcmd.Diff(cmd.Context(), diffcmd.DiffOptions{
				ProjectRoot: env.root,
				Paths:       args,
				Version:     kitVersion,
				Registry:    provider,
			})
			if err != nil {
				return err
			}

			if env.format == ui.FormatJSON {
				return printJSON(result)
			}
			if len(result.Files) == 0 {
				fmt.Printf(MsgNoChanges+"\n", result.TargetVersion)
				return nil
			}
			for _, fd := range result.Files {
				fmt.Println(ui.Styled(env.format, ui.HeaderStyle, "--- "+fd.Path))
				fmt.Print(fd.Diff)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kitVersion, "kit-version", "", MsgFlagVersion)
	cmd.Flags().StringVar(&registryURL, "registry", "", MsgFlagRegistry)
	cmd.Flags().StringVar(&channel, "channel", "", MsgFlagChannel)
	return cmd
}

func newUpdateCmd(flags *globalFlags) *cobra.Command {
	var (
		kitVersion  string
		registryURL string
		channel     string
		noBackup    bool
	)

	cmd := &cobra.Command{
		Use:     "update",
		Short:   MsgUpdateShort,
		Long:    MsgUpdateLong,
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(flags)
			if err != nil {
				return err
			}
			provider, err := env.provider(registryURL, channel)
			if err != nil {
				return err
			}

			disableBackup := noBackup || env.cfg.Backups.Disabled

			result, err := update.Update(cmd.Context(), update.UpdateOptions{
				ProjectRoot:   env.root,
				Version:       kitVersion,
				DryRun:        flags.dryRun,
				DisableBackup: disableBackup,
				ConflictLabel: env.cfg.Sync.ConflictLabel,
				PruneKeep:     env.cfg.Backups.Keep,
				Registry:      provider,
				Confirm: func(plan *reconcile.Plan) (bool, error) {
					renderPlan(env.format, plan)
					return ui.Confirm(MsgConfirmUpdate, flags.yes)
				},
				ConfirmPrune: func(excess, keep int) (bool, error) {
					if flags.yes {
						return true, nil
					}
					if !ui.CanPrompt() {
						// Nobody to ask; the backups stay.
						return false, nil
					}
					return ui.Confirm(fmt.Sprintf(MsgConfirmPruneAfterUpdate, excess, keep), false)
				},
			})
			if err != nil {
				return err
			}

			if env.format == ui.FormatJSON {
				return printJSON(result)
			}
			renderUpdate(env.format, flags.dryRun, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&kitVersion, "kit-version", "", MsgFlagVersion)
	cmd.Flags().StringVar(&registryURL, "registry", "", MsgFlagRegistry)
	cmd.Flags().StringVar(&channel, "channel", "", MsgFlagChannel)
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, MsgFlagNoBackup)
	return cmd
}

func newRescanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rescan",
		Short:   MsgRescanShort,
		Long:    MsgRescanLong,
		GroupID: "sync",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(flags)
			if err != nil {
				return err
			}

			ok, err := ui.Confirm(MsgConfirmRescan, flags.yes)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			result, err := rescan.Rescan(rescan.RescanOptions{ProjectRoot: env.root})
			if err != nil {
				return err
			}

			if env.format == ui.FormatJSON {
				return printJSON(result)
			}
			fmt.Printf(MsgRescanDone+"\n", result.Tracked)
			return nil
		},
	}
}

func newBackupsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "backups",
		Short:   MsgBackupsShort,
		GroupID: "backup",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(flags)
			if err != nil {
				return err
			}

			result, err := backups.List(backups.ListOptions{ProjectRoot: env.root})
			if err != nil {
				return err
			}

			if env.format == ui.FormatJSON {
				return printJSON(result)
			}
			if len(result.Backups) == 0 {
				fmt.Println(MsgNoBackups)
				return nil
			}
			for _, b := range result.Backups {
				fmt.Printf("%s  %s -> %s\n",
					ui.Styled(env.format, ui.VersionStyle, b.Stamp()),
					b.SourceVersion, b.TargetVersion)
			}
			return nil
		},
	}
}

func newRestoreCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "restore [stamp]",
		Short:   MsgRestoreShort,
		Long:    MsgRestoreLong,
		GroupID: "backup",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(flags)
			if err != nil {
				return err
			}

			stamp := ""
			if len(args) == 1 {
				stamp = args[0]
			}

			ok, err := ui.Confirm(MsgConfirmRestore, flags.yes)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			result, err := backups.Restore(backups.RestoreOptions{
				ProjectRoot: env.root,
				Stamp:       stamp,
			})
			if err != nil {
				return err
			}

			if env.format == ui.FormatJSON {
				return printJSON(result)
			}
			fmt.Printf(MsgBackupRestored+"\n",
				result.Backup.Stamp(), result.Backup.SourceVersion, result.Backup.TargetVersion)
			return nil
		},
	}
}

func newPruneCmd(flags *globalFlags) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:     "prune",
		Short:   MsgPruneShort,
		GroupID: "backup",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(flags)
			if err != nil {
				return err
			}

			effectiveKeep := keep
			if effectiveKeep <= 0 {
				effectiveKeep = env.cfg.Backups.Keep
			}

			existing, err := backups.List(backups.ListOptions{ProjectRoot: env.root})
			if err != nil {
				return err
			}
			toDelete := len(existing.Backups) - effectiveKeep
			if toDelete <= 0 {
				fmt.Printf(MsgBackupsPruned+"\n", 0, len(existing.Backups))
				return nil
			}

			ok, err := ui.Confirm(fmt.Sprintf(MsgConfirmPrune, toDelete), flags.yes)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			result, err := backups.Prune(backups.PruneOptions{
				ProjectRoot: env.root,
				Keep:        effectiveKeep,
			})
			if err != nil {
				return err
			}

			if env.format == ui.FormatJSON {
				return printJSON(result)
			}
			fmt.Printf(MsgBackupsPruned+"\n", len(result.Deleted), result.Kept)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, MsgFlagKeep)
	return cmd
}

func newGenConfigCmd(flags *globalFlags) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:     "genconfig",
		Short:   MsgGenConfigShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(flags)
			if err != nil {
				return err
			}

			result, err := genconfig.GenConfig(genconfig.GenConfigOptions{
				ProjectRoot: env.root,
				Write:       write,
			})
			if err != nil {
				return err
			}

			if result.WrittenTo != "" {
				fmt.Printf("Written %s\n", result.WrittenTo)
				return nil
			}
			fmt.Print(result.ConfigContent)
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, MsgFlagWrite)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kitsync version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

func newManCmd(rootCmd *cobra.Command) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:     "man",
		Short:   MsgManShort,
		GroupID: "misc",
		Hidden:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			header := &doc.GenManHeader{Title: "KITSYNC", Section: "1"}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return err
			}
			if err := doc.GenManTree(rootCmd, header, outDir); err != nil {
				return err
			}
			log.Info().Str("dir", outDir).Msg("Man pages generated")
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "/tmp", "Output directory")
	return cmd
}
