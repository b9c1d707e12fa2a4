package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// addAlertCommands adds the alerts command group.
func addAlertCommands(rootCmd *cobra.Command, app *App) {
	var unreadOnly bool

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show trading alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			alerts, err := app.Store.GetAlerts(ctx, unreadOnly)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(alerts)
			}

			if len(alerts) == 0 {
				output.Println("No alerts.")
				return nil
			}

			output.Println()
			for _, a := range alerts {
				marker := output.Cyan("●")
				if a.IsRead {
					marker = output.DimText("○")
				}
				output.Printf("%s %s  %s\n", marker, output.ColoredString(ColorBold, a.Title), FormatDateTime(a.Timestamp))
				output.Printf("  %s\n", a.Message)
				output.Dim("  %s  %s", a.Type, a.ID)
				output.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&unreadOnly, "unread", "u", false, "show unread alerts only")

	cmd.AddCommand(&cobra.Command{
		Use:   "read <alert-id>",
		Short: "Mark an alert as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			if err := app.Store.MarkAlertRead(ctx, args[0]); err != nil {
				return err
			}
			output.Success("✓ Marked %s as read", args[0])
			return nil
		},
	})

	rootCmd.AddCommand(cmd)
}
