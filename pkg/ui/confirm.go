package ui

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/kitsync/pkg/errors"
)

// Confirm asks the user to confirm an action before proceeding.
//
// When assumeYes is set the prompt is skipped entirely. When stdin is not a
// terminal there is nobody to answer, so the caller must pass --yes; in that
// case an error is returned rather than silently proceeding.
func Confirm(prompt string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}

	if !CanPrompt() {
		return false, errors.New(errors.ErrInvalidInput,
			"confirmation required but stdin is not a terminal; re-run with --yes")
	}

	result, err := pterm.DefaultInteractiveConfirm.
		WithDefaultValue(false).
		Show(prompt)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrInternal, "failed to read confirmation")
	}
	return result, nil
}

// CanPrompt reports whether stdin can answer an interactive prompt.
func CanPrompt() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// Bold renders s in bold for terminal output.
func Bold(s string) string {
	return pterm.Bold.Sprint(s)
}
