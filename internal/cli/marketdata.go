package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	apperrors "virtual-trader/internal/errors"
	"virtual-trader/internal/models"
	"virtual-trader/internal/quotes"
	"virtual-trader/pkg/utils"
)

// addMarketDataCommands adds quote, chain, and market commands.
func addMarketDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
	rootCmd.AddCommand(newMarketCmd(app))
}

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbol>",
		Short: "Show the latest quote for a symbol",
		Long:  "Fetch the latest quote for an underlying, e.g. 'vtrader quote RELIANCE.NS' or 'vtrader quote ^NSEI'.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])

			quote, err := app.Quotes.GetQuote(ctx, symbol)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrSymbolNotFound) {
					output.Error("Symbol not found: %s", symbol)
				}
				return err
			}

			if output.IsJSON() {
				return output.JSON(quote)
			}

			output.Println()
			output.Bold("%s  %s", symbol, quotes.CompanyName(symbol))
			output.Printf("  LTP:       %s\n", utils.FormatIndianCurrency(quote.LTP))
			output.Printf("  Change:    %s\n", output.ColoredString(output.PnLColor(quote.Change), FormatChange(quote.Change, quote.ChangePercent)))
			output.Printf("  Open:      %.2f  High: %.2f  Low: %.2f\n", quote.Open, quote.High, quote.Low)
			output.Printf("  Prev Close: %.2f\n", quote.PreviousClose)
			output.Printf("  As of:     %s\n", FormatDateTime(quote.Timestamp))

			if app.Subscription != nil {
				if premium, err := app.Subscription.IsPremium(ctx); err == nil && !premium {
					output.Dim("  Free tier: quotes delayed by %d minutes", app.Config.Limits.DataDelayMins)
				}
			}
			output.Println()
			return nil
		},
	}
}

func newChainCmd(app *App) *cobra.Command {
	var expiryIdx int
	var window int

	cmd := &cobra.Command{
		Use:   "chain <symbol>",
		Short: "Show the options chain for an underlying",
		Long: `Generate and display the options chain for an underlying.

The chain is synthesized around the current spot price. When the live
quote is unavailable the chain is generated from mock data and marked
SYNTHETIC.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])

			chain := app.Generator.GenerateChain(ctx, symbol)

			if output.IsJSON() {
				return output.JSON(chain)
			}

			if len(chain.Expiries) == 0 {
				output.Warning("No expiries available")
				return nil
			}
			if expiryIdx < 0 || expiryIdx >= len(chain.Expiries) {
				return fmt.Errorf("expiry index out of range, chain has %d expiries", len(chain.Expiries))
			}
			expiry := chain.Expiries[expiryIdx]

			output.Println()
			header := fmt.Sprintf("%s  Spot: %s", symbol, utils.FormatIndianCurrency(chain.UnderlyingPrice))
			if chain.Source == models.ChainSourceSynthetic {
				header += "  " + output.Yellow("[SYNTHETIC]")
			}
			output.Bold(header)
			output.Printf("Expiry: %s  (%d of %d)\n", FormatExpiry(expiry), expiryIdx+1, len(chain.Expiries))
			output.Println()

			strikes := windowStrikes(chain.Strikes, chain.UnderlyingPrice, window)
			renderChainTable(output, strikes, chain, expiry)
			output.Println()
			output.Dim("Lot size: %d  |  Generated: %s", lotSizeOf(chain), FormatDateTime(chain.GeneratedAt))
			output.Println()
			return nil
		},
	}

	cmd.Flags().IntVarP(&expiryIdx, "expiry", "e", 0, "expiry index (0 = nearest)")
	cmd.Flags().IntVarP(&window, "strikes", "s", 5, "strikes to show on each side of ATM")
	return cmd
}

// renderChainTable renders the call/put table for one expiry.
func renderChainTable(output *Output, strikes []float64, chain *models.OptionsChain, expiry time.Time) {
	table := NewTable(output,
		"CALL LTP", "CHG%", "IV", "OI", "STRIKE", "PUT LTP", "CHG%", "IV", "OI")

	for _, strike := range strikes {
		call, put := chain.ContractsFor(strike, expiry)
		strikeCell := FormatStrike(strike)
		if isATM(strike, chain.UnderlyingPrice, chain.Strikes) {
			strikeCell = output.Cyan(strikeCell + " *")
		}
		var row []string
		row = append(row, contractColumns(output, call)...)
		row = append(row, strikeCell)
		row = append(row, contractColumns(output, put)...)
		table.AddRow(row...)
	}
	table.Render()
}

func contractColumns(output *Output, c *models.OptionContract) []string {
	if c == nil {
		return []string{"-", "-", "-", "-"}
	}
	return []string{
		fmt.Sprintf("%.2f", c.LTP),
		output.FormatPercent(c.ChangePercent),
		fmt.Sprintf("%.1f", c.ImpliedVolatility),
		FormatVolume(c.OpenInterest),
	}
}

// windowStrikes returns up to window strikes on each side of the ATM strike.
func windowStrikes(strikes []float64, spot float64, window int) []float64 {
	if len(strikes) == 0 || window <= 0 {
		return strikes
	}

	atm := 0
	for i, s := range strikes {
		if absDiff(s, spot) < absDiff(strikes[atm], spot) {
			atm = i
		}
	}

	lo := atm - window
	if lo < 0 {
		lo = 0
	}
	hi := atm + window + 1
	if hi > len(strikes) {
		hi = len(strikes)
	}
	return strikes[lo:hi]
}

func isATM(strike, spot float64, strikes []float64) bool {
	for _, s := range strikes {
		if absDiff(s, spot) < absDiff(strike, spot) {
			return false
		}
	}
	return true
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func lotSizeOf(chain *models.OptionsChain) int {
	if len(chain.Options) == 0 {
		return 0
	}
	return chain.Options[0].LotSize
}

func newMarketCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "market",
		Short: "Show market status and index levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)

			now := time.Now()
			status := utils.MarketStatusAt(now)

			if output.IsJSON() {
				payload := map[string]interface{}{
					"status": status,
					"time":   now.In(utils.IndiaLocation).Format(time.RFC3339),
				}
				if status != models.MarketOpen {
					payload["next_open"] = utils.NextMarketOpen(now).Format(time.RFC3339)
				}
				return output.JSON(payload)
			}

			fmt.Println()
			color.Cyan("🇮🇳 Indian Market")
			fmt.Println("─────────────────────────────────────────")
			output.Printf("Status:  %s\n", output.MarketStatus(string(status)))
			output.Printf("Time:    %s IST\n", FormatTime(now))
			if status != models.MarketOpen {
				output.Printf("Opens:   %s\n", FormatDateTime(utils.NextMarketOpen(now)))
			} else {
				output.Printf("Closes:  %s\n", FormatTime(utils.MarketCloseFor(now)))
			}
			fmt.Println()

			table := NewTable(output, "INDEX", "LTP", "CHANGE")
			for _, idx := range quotes.IndianIndices {
				quote, err := app.Quotes.GetQuote(ctx, idx.Symbol)
				if err != nil {
					table.AddRow(idx.Name, "-", "-")
					continue
				}
				table.AddRow(
					idx.Name,
					fmt.Sprintf("%.2f", quote.LTP),
					output.ColoredString(output.PnLColor(quote.Change), FormatChange(quote.Change, quote.ChangePercent)),
				)
			}
			table.Render()
			fmt.Println()
			return nil
		},
	}
}
