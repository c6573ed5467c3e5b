package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NamanBalaji/vidloader/internal/cli/styles"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := a.engine.List()
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println(styles.HintStyle.Render("No items. Add one with: vidloader get <url>"))
			return nil
		}

		printRecords(records)
		return nil
	},
}
