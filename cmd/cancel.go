package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NamanBalaji/vidloader/internal/cli/styles"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := a.engine.Cancel(args[0]); err != nil {
			return err
		}

		fmt.Println(styles.SuccessStyle.Render("Canceled " + args[0]))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete an item and its downloaded content",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := a.engine.Delete(args[0]); err != nil {
			return err
		}

		fmt.Println(styles.SuccessStyle.Render("Deleted " + args[0]))
		return nil
	},
}
