package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "virtual-trader/internal/errors"
	"virtual-trader/internal/models"
	"virtual-trader/internal/quotes"
)

// addWatchlistCommands adds the watchlist command group.
func addWatchlistCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage the symbol watchlist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show watchlist with live quotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			symbols, err := app.Store.GetWatchlist(ctx)
			if err != nil {
				return err
			}

			if len(symbols) == 0 {
				output.Println("Watchlist is empty. Add symbols with 'vtrader watchlist add <symbol>'.")
				return nil
			}

			entries := make([]models.Stock, 0, len(symbols))
			for _, symbol := range symbols {
				e := models.Stock{Symbol: symbol, Name: quotes.CompanyName(symbol)}
				if quote, err := app.Quotes.GetQuote(ctx, symbol); err == nil {
					e.LTP = quote.LTP
					e.Change = quote.Change
					e.ChangePercent = quote.ChangePercent
				}
				entries = append(entries, e)
			}

			if output.IsJSON() {
				return output.JSON(entries)
			}

			output.Println()
			table := NewTable(output, "SYMBOL", "NAME", "LTP", "CHANGE")
			for _, e := range entries {
				table.AddRow(
					e.Symbol,
					TruncateString(e.Name, 28),
					fmt.Sprintf("%.2f", e.LTP),
					output.ColoredString(output.PnLColor(e.Change), FormatChange(e.Change, e.ChangePercent)),
				)
			}
			table.Render()
			output.Println()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <symbol>",
		Short: "Add a symbol to the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			current, err := app.Store.GetWatchlist(ctx)
			if err != nil {
				return err
			}
			if app.Subscription != nil {
				if err := app.Subscription.AllowWatchlistAdd(ctx, len(current)); err != nil {
					if apperrors.Is(err, apperrors.ErrDailyLimitExceeded) {
						output.Warning("Watchlist limit reached. Upgrade with 'vtrader subscription plans'.")
					}
					return err
				}
			}

			if err := app.Store.AddToWatchlist(ctx, symbol); err != nil {
				return err
			}
			output.Success("✓ Added %s to watchlist", symbol)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <symbol>",
		Short: "Remove a symbol from the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			if err := app.Store.RemoveFromWatchlist(ctx, symbol); err != nil {
				return err
			}
			output.Success("✓ Removed %s from watchlist", symbol)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "universe",
		Short: "List the supported F&O symbol universe",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"stocks":  quotes.IndianFOStocks,
					"indices": quotes.IndianIndices,
				})
			}

			output.Println()
			output.Bold("Indices")
			for _, idx := range quotes.IndianIndices {
				output.Printf("  %-12s %s\n", idx.Symbol, idx.Name)
			}
			output.Println()
			output.Bold("F&O Stocks")
			for _, symbol := range quotes.IndianFOStocks {
				output.Printf("  %s\n", symbol)
			}
			output.Println()
			return nil
		},
	})

	rootCmd.AddCommand(cmd)
}
