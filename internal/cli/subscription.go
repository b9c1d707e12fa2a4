package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "virtual-trader/internal/errors"
	"virtual-trader/internal/subscription"
	"virtual-trader/pkg/utils"
)

// addSubscriptionCommands adds the subscription command group.
func addSubscriptionCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Manage the premium subscription",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "plans",
		Short: "List available premium plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			plans := subscription.Plans()

			if output.IsJSON() {
				return output.JSON(plans)
			}

			output.Println()
			for _, plan := range plans {
				name := plan.Name
				if plan.IsPopular {
					name += "  " + output.Yellow("★ POPULAR")
				}
				output.Bold(name)
				output.Printf("  %s for %d days  (%s)\n",
					utils.FormatIndianCurrency(plan.Price), plan.Duration, plan.ID)
				for _, feature := range plan.Features {
					output.Printf("    • %s\n", feature)
				}
				output.Println()
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "subscribe <plan-id>",
		Short: "Subscribe to a premium plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)

			if app.Subscription == nil {
				return fmt.Errorf("subscription service unavailable")
			}

			sub, err := app.Subscription.Subscribe(ctx, args[0])
			if err != nil {
				if apperrors.Is(err, apperrors.ErrInvalidPlan) {
					output.Error("Unknown plan: %s. See 'vtrader subscription plans'.", args[0])
				}
				return err
			}

			if output.IsJSON() {
				return output.JSON(sub)
			}

			output.Success("✓ Subscribed to %s until %s", sub.PlanID, FormatDate(sub.EndDate))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active subscription",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)

			if app.Subscription == nil {
				return fmt.Errorf("subscription service unavailable")
			}

			if err := app.Subscription.Cancel(ctx); err != nil {
				if apperrors.Is(err, apperrors.ErrNoActivePlan) {
					output.Warning("No active subscription to cancel.")
					return nil
				}
				return err
			}

			output.Success("✓ Auto-renew disabled")
			if sub, err := app.Subscription.Current(ctx); err == nil && sub != nil && sub.IsActive {
				output.Dim("  Premium stays active until %s", FormatDate(sub.EndDate))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show subscription status and limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)

			if app.Subscription == nil {
				return fmt.Errorf("subscription service unavailable")
			}

			sub, err := app.Subscription.Current(ctx)
			if err != nil {
				return err
			}
			limits, err := app.Subscription.Limits(ctx)
			if err != nil {
				return err
			}
			days, err := app.Subscription.DaysRemaining(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"subscription":   sub,
					"limits":         limits,
					"days_remaining": days,
				})
			}

			output.Println()
			if sub != nil && sub.IsActive {
				output.Bold("Premium: %s", output.Green("ACTIVE"))
				output.Printf("  Plan:      %s\n", sub.PlanID)
				output.Printf("  Expires:   %s (%d days left)\n", FormatDate(sub.EndDate), days)
				output.Printf("  AutoRenew: %v\n", sub.AutoRenew)
			} else {
				output.Bold("Plan: %s", output.Yellow("FREE"))
				output.Printf("  Trades/day:  %d\n", limits.TradesPerDay)
				output.Printf("  Watchlist:   %d symbols\n", limits.WatchlistLimit)
				output.Printf("  Data delay:  %d minutes\n", limits.DataDelayMins)
				output.Dim("  Upgrade with 'vtrader subscription subscribe <plan-id>'")
			}
			output.Println()
			return nil
		},
	})

	rootCmd.AddCommand(cmd)
}
