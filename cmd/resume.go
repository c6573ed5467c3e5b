package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NamanBalaji/vidloader/internal/cli/styles"
	"github.com/NamanBalaji/vidloader/internal/logger"
	"github.com/NamanBalaji/vidloader/internal/state"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [id...]",
	Short: "Resume interrupted or suspended items",
	RunE: func(cmd *cobra.Command, args []string) error {
		suspended, err := a.engine.Recover()
		if err != nil {
			return err
		}

		ids := args
		if len(ids) == 0 {
			records, err := a.engine.List()
			if err != nil {
				return err
			}
			for _, rec := range records {
				if rec.State().Kind() == state.Suspended {
					ids = append(ids, rec.Identifier())
				}
			}
		}
		logger.Infof("Resuming %d item(s), %d recovered from an earlier run", len(ids), len(suspended))

		if len(ids) == 0 {
			fmt.Println(styles.HintStyle.Render("Nothing to resume."))
			return nil
		}

		for _, id := range ids {
			if err := a.engine.Resume(id); err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
		}

		return runUntilDone(cmd.Context(), ids...)
	},
}
