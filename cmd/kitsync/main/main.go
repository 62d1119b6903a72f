package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/kitsync/cmd/kitsync"
	"github.com/arthur-debert/kitsync/pkg/ui"
)

func main() {
	rootCmd := kitsync.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		msg := fmt.Sprintf("Error: %v", err)
		if ui.DetectFormat(os.Stderr) == ui.FormatTerminal {
			msg = ui.ErrorStyle.Render(msg)
		}
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}
