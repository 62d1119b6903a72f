package kitsync

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Keep project template kits in sync with their upstream distribution"
	MsgInitShort       = "Put the current project under kit management"
	MsgStatusShort     = "Show how local files relate to the latest kit release"
	MsgDiffShort       = "Show line diffs between local files and the target release"
	MsgUpdateShort     = "Sync the project to a kit release"
	MsgRescanShort     = "Reset the sync baseline to the current on-disk state"
	MsgBackupsShort    = "List pre-update backups"
	MsgRestoreShort    = "Restore the working copy from a backup"
	MsgPruneShort      = "Delete old backups beyond the retention limit"
	MsgGenConfigShort  = "Output the default configuration"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
	MsgManShort        = "Generate man pages"

	// Status messages
	MsgUpToDate        = "Already up to date (%s)."
	MsgDryRunNotice    = "\nDRY RUN MODE - No changes were made"
	MsgUpdateDeclined  = "Update cancelled, nothing was changed."
	MsgUpdateApplied   = "Synced %s -> %s."
	MsgConflictsNotice = "\n%d file(s) need manual conflict resolution:"
	MsgConflictItem    = "  %s\n"
	MsgCustomNotice    = "%d custom file(s) left untouched."
	MsgNoBackups       = "No backups found."
	MsgBackupRestored  = "Restored backup %s (%s -> %s)."
	MsgBackupsPruned   = "Deleted %d backup(s), %d kept."
	MsgRescanDone      = "Baseline reset: %d file(s) now recorded as unmodified."
	MsgInitDone        = "Initialized at version %s, tracking %d file(s)."
	MsgNoChanges       = "No differences against %s."

	// Prompts
	MsgConfirmUpdate           = "Apply these changes?"
	MsgConfirmRescan           = "This discards kitsync's memory of your local edits. Continue?"
	MsgConfirmRestore          = "This overwrites the managed directories with the backup. Continue?"
	MsgConfirmPrune            = "Delete %d backup(s)?"
	MsgConfirmPruneAfterUpdate = "Delete %d old backup(s), keeping the newest %d?"

	// Flag descriptions
	MsgFlagVerbose     = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun      = "Preview changes without executing them"
	MsgFlagYes         = "Assume yes for all prompts"
	MsgFlagRoot        = "Project root (defaults to the current directory)"
	MsgFlagFormat      = "Output format: auto, term, text, json"
	MsgFlagVersion     = "Kit release version (defaults to the latest)"
	MsgFlagRegistry    = "Registry URL, overriding configuration"
	MsgFlagChannel     = "Release channel: stable or edge"
	MsgFlagKeep        = "How many backups to keep"
	MsgFlagNoBackup    = "Skip the pre-update backup (unsafe)"
	MsgFlagAssumeClean = "Record files as unmodified (only after a fresh kit checkout)"
	MsgFlagWrite       = "Write the config into the project instead of printing it"
)

// Long messages
const (
	MsgRootLong = `kitsync keeps a project's template kit (CI workflows, build scripts,
shared configuration) in sync with the kit's upstream releases while
preserving every local customization.

It fingerprints files insensitively to line endings and trailing
whitespace, remembers what each file looked like at the last sync, and on
update classifies every file as addable, updatable, customized, or
conflicting. Customized files are never overwritten: real conflicts get
inline conflict markers to resolve by hand. Every update is preceded by a
backup and is rolled back wholesale if anything fails part-way.`

	MsgInitLong = `Init fetches the kit release, scans the managed directories, and records
a manifest under .kitsync/.

Files already on disk are recorded as customized by default, because
kitsync cannot know whether you edited them before it was watching. The
first update will therefore preserve or conflict-mark rather than
overwrite. If the project is a fresh, untouched kit checkout, pass
--assume-clean to start from a pristine baseline instead.`

	MsgUpdateLong = `Update resolves the target release, reconciles it against the working
copy, shows the plan, and applies it after confirmation.

Before any file is touched, the managed directories are snapshotted under
.kitsync/backups. If any write fails, the snapshot is restored and the
sync state is left exactly as before. Files you have customized are
preserved; files both you and upstream changed receive inline conflict
markers and are listed for manual resolution.`

	MsgRescanLong = `Rescan records every tracked file's current content as its new baseline
and clears all customized flags.

Use it after resolving conflicts, or after init on a project whose local
edits you want kitsync to treat as the pristine state. This discards the
engine's memory of your customizations, so the next update will treat
current content as unmodified.`

	MsgRestoreLong = `Restore replaces the managed directories with the contents of a backup,
by default the most recent one. Pass a timestamp from 'kitsync backups'
to pick an older snapshot. The sync manifest is not modified: it already
describes the state the backup contains.`
)
