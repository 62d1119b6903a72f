package kitsync

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/arthur-debert/kitsync/pkg/commands/status"
	"github.com/arthur-debert/kitsync/pkg/commands/update"
	"github.com/arthur-debert/kitsync/pkg/reconcile"
	"github.com/arthur-debert/kitsync/pkg/ui"
)

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func actionStyle(a reconcile.Action) lipgloss.Style {
	switch a {
	case reconcile.ActionAdd:
		return ui.AddStyle
	case reconcile.ActionUpdate:
		return ui.UpdateStyle
	case reconcile.ActionMerge:
		return ui.MergeStyle
	case reconcile.ActionRemove:
		return ui.RemoveStyle
	case reconcile.ActionPreserve:
		return ui.PreserveStyle
	default:
		return ui.SkipStyle
	}
}

// renderPlan prints the per-file actions of a plan, skips omitted.
func renderPlan(format ui.Format, plan *reconcile.Plan) {
	fmt.Println(ui.Styled(format, ui.HeaderStyle,
		fmt.Sprintf("Sync %s -> %s:", orUnknown(plan.SourceVersion), plan.TargetVersion)))
	for _, s := range plan.States {
		if s.Action == reconcile.ActionSkip {
			continue
		}
		fmt.Printf("  %-8s  %s\n",
			ui.Styled(format, actionStyle(s.Action), s.Action.String()),
			ui.Styled(format, ui.PathStyle, s.Path))
	}
	if n := len(plan.CustomFiles); n > 0 {
		fmt.Println(ui.Styled(format, ui.MutedStyle, fmt.Sprintf(MsgCustomNotice, n)))
	}
}

func renderStatus(format ui.Format, result *status.StatusResult) {
	if result.UpToDate {
		fmt.Printf(MsgUpToDate+"\n", result.TargetVersion)
		return
	}
	renderPlan(format, result.Plan)
	if len(result.Conflicts) > 0 {
		fmt.Println(ui.Styled(format, ui.WarningStyle,
			fmt.Sprintf("\n%d file(s) would need manual merging. Run 'kitsync update' to sync.", len(result.Conflicts))))
	} else {
		fmt.Println(ui.Styled(format, ui.MutedStyle, "\nRun 'kitsync update' to sync."))
	}
}

func renderUpdate(format ui.Format, dryRun bool, result *update.UpdateResult) {
	switch {
	case result.UpToDate:
		fmt.Printf(MsgUpToDate+"\n", result.Plan.TargetVersion)
	case dryRun:
		renderPlan(format, result.Plan)
		fmt.Println(MsgDryRunNotice)
	case result.Declined:
		fmt.Println(MsgUpdateDeclined)
	case result.Apply != nil:
		fmt.Println(ui.Styled(format, ui.SuccessStyle,
			fmt.Sprintf(MsgUpdateApplied, orUnknown(result.Plan.SourceVersion), result.Plan.TargetVersion)))
		if n := len(result.Apply.Conflicts); n > 0 {
			fmt.Println(ui.Styled(format, ui.WarningStyle, fmt.Sprintf(MsgConflictsNotice, n)))
			for _, path := range result.Apply.Conflicts {
				fmt.Printf(MsgConflictItem, ui.Styled(format, ui.MergeStyle, path))
			}
		}
		if n := len(result.Pruned); n > 0 {
			fmt.Println(ui.Styled(format, ui.MutedStyle,
				fmt.Sprintf("Pruned %d old backup(s).", n)))
		}
	}
}

func orUnknown(v string) string {
	if v == "" {
		return "(untracked)"
	}
	return v
}
