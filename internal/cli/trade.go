package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "virtual-trader/internal/errors"
	"virtual-trader/internal/models"
	"virtual-trader/internal/store"
	"virtual-trader/pkg/utils"
)

// addTradingCommands adds buy, sell, positions, portfolio, trades, and
// reset commands.
func addTradingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newOrderCmd(app, models.OrderSideBuy))
	rootCmd.AddCommand(newOrderCmd(app, models.OrderSideSell))
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newPortfolioCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newResetCmd(app))
}

func newOrderCmd(app *App, side models.OrderSide) *cobra.Command {
	var (
		instrument string
		strike     float64
		expiry     string
		price      float64
	)

	use := strings.ToLower(string(side))
	short := "Buy a contract"
	if side == models.OrderSideSell {
		short = "Sell a contract"
	}
	cmd := &cobra.Command{
		Use:   use + " <symbol> <quantity>",
		Short: short,
		Long: fmt.Sprintf(`Place a simulated %s order.

Examples:
  vtrader %s NSEI240926C19700 50 --instrument CE --strike 19700 --expiry 2024-09-26 --price 145.50
  vtrader %s RELIANCE.NS 250 --instrument FUTURES --price 2485.00`, use, use, use),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)

			if app.Portfolio == nil {
				return fmt.Errorf("portfolio unavailable, store failed to initialize")
			}

			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return apperrors.NewValidationError("quantity", args[1], "must be an integer")
			}

			order := models.TradeOrder{
				Symbol:     strings.ToUpper(args[0]),
				Side:       side,
				Instrument: models.Instrument(strings.ToUpper(instrument)),
				Quantity:   qty,
				Price:      price,
				OrderType:  models.OrderTypeMarket,
			}
			order.Strike = strike
			if expiry != "" {
				t, err := time.Parse("2006-01-02", expiry)
				if err != nil {
					return apperrors.NewValidationError("expiry", expiry, "must be YYYY-MM-DD")
				}
				order.Expiry = t
			}

			if app.Subscription != nil {
				if err := app.Subscription.AllowTrade(ctx); err != nil {
					if apperrors.Is(err, apperrors.ErrDailyLimitExceeded) {
						output.Warning("Daily trade limit reached. Upgrade with 'vtrader subscription plans'.")
					}
					return err
				}
			}

			trade, err := app.Portfolio.Place(ctx, order)
			if err != nil {
				return err
			}

			if app.Subscription != nil {
				if err := app.Subscription.RecordTrade(ctx); err != nil {
					app.Logger.Warn().Err(err).Msg("Failed to record trade usage")
				}
			}

			if output.IsJSON() {
				return output.JSON(trade)
			}

			output.Success("✓ %s %d x %s @ %s", trade.Side, trade.Quantity, trade.Symbol,
				utils.FormatIndianCurrency(trade.Price))
			output.Dim("  Trade ID: %s", trade.ID)
			output.Dim("  Available balance: %s", utils.FormatIndianCurrency(app.Portfolio.AvailableBalance()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&instrument, "instrument", "i", "CE", "instrument type (CE/PE/FUTURES)")
	cmd.Flags().Float64Var(&strike, "strike", 0, "strike price (options only)")
	cmd.Flags().StringVar(&expiry, "expiry", "", "expiry date YYYY-MM-DD (derivatives only)")
	cmd.Flags().Float64VarP(&price, "price", "p", 0, "execution price")
	cmd.MarkFlagRequired("price")
	return cmd
}

func newPositionsCmd(app *App) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Show open positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)

			if app.Portfolio == nil {
				return fmt.Errorf("portfolio unavailable, store failed to initialize")
			}

			if refresh {
				if err := refreshFuturesPrices(ctx, app); err != nil {
					app.Logger.Warn().Err(err).Msg("Price refresh failed")
				}
			}

			positions := app.Portfolio.Positions()
			if output.IsJSON() {
				return output.JSON(positions)
			}

			if len(positions) == 0 {
				output.Println("No open positions.")
				return nil
			}

			output.Println()
			table := NewTable(output, "SYMBOL", "TYPE", "QTY", "AVG", "LTP", "P&L", "P&L%", "EXPIRY")
			for _, pos := range positions {
				table.AddRow(
					pos.Symbol,
					string(pos.Instrument),
					strconv.Itoa(pos.Quantity),
					fmt.Sprintf("%.2f", pos.AvgPrice),
					fmt.Sprintf("%.2f", pos.CurrentPrice),
					output.FormatPnL(pos.PnL),
					output.FormatPercent(pos.PnLPercent),
					FormatExpiry(pos.Expiry),
				)
			}
			table.Render()

			total := 0.0
			for _, pos := range positions {
				total += pos.PnL
			}
			output.Println()
			output.Printf("Total P&L: %s\n", output.FormatPnL(total))
			output.Println()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "refresh futures prices before display")
	return cmd
}

// refreshFuturesPrices revalues futures positions from the quote source.
// Option positions keep their last traded price; their synthetic contract
// prices are not re-derivable from the underlying alone.
func refreshFuturesPrices(ctx context.Context, app *App) error {
	prices := make(map[string]float64)
	for _, pos := range app.Portfolio.Positions() {
		if pos.Instrument != models.InstrumentFutures {
			continue
		}
		if _, ok := prices[pos.Symbol]; ok {
			continue
		}
		quote, err := app.Quotes.GetQuote(ctx, pos.Symbol)
		if err != nil {
			continue
		}
		prices[pos.Symbol] = quote.LTP
	}
	if len(prices) == 0 {
		return nil
	}
	return app.Portfolio.RefreshPositions(ctx, prices)
}

func newPortfolioCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Show portfolio summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if app.Portfolio == nil {
				return fmt.Errorf("portfolio unavailable, store failed to initialize")
			}

			p := app.Portfolio.Snapshot()
			if output.IsJSON() {
				return output.JSON(p)
			}

			output.Println()
			output.Bold("Portfolio")
			output.Printf("  Total Balance:     %s\n", utils.FormatIndianCurrency(p.TotalBalance))
			output.Printf("  Available Balance: %s\n", utils.FormatIndianCurrency(p.AvailableBalance))
			output.Printf("  Total P&L:         %s\n", output.FormatPnL(p.TotalPnL))
			output.Printf("  Day P&L:           %s\n", output.FormatPnL(p.DayPnL))
			output.Printf("  Open Positions:    %d\n", len(p.Positions))
			output.Printf("  Trades:            %d\n", len(p.Trades))
			output.Println()
			return nil
		},
	}
}

func newTradesCmd(app *App) *cobra.Command {
	var (
		symbol string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Show trade history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)

			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}

			trades, err := app.Store.GetTrades(ctx, store.TradeFilter{
				Symbol: strings.ToUpper(symbol),
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}

			if len(trades) == 0 {
				output.Println("No trades yet.")
				return nil
			}

			output.Println()
			table := NewTable(output, "TIME", "ID", "SIDE", "SYMBOL", "TYPE", "QTY", "PRICE", "VALUE")
			for _, t := range trades {
				side := output.Green(string(t.Side))
				if t.Side == models.OrderSideSell {
					side = output.Red(string(t.Side))
				}
				table.AddRow(
					FormatDateTime(t.Timestamp),
					t.ID,
					side,
					t.Symbol,
					string(t.Instrument),
					strconv.Itoa(t.Quantity),
					fmt.Sprintf("%.2f", t.Price),
					utils.FormatIndianCurrency(float64(t.Quantity)*t.Price),
				)
			}
			table.Render()
			output.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum trades to show")
	return cmd
}

func newResetCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the portfolio to its initial balance",
		Long:  "Discard all positions and trade history and restore the initial virtual balance.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)

			if app.Portfolio == nil {
				return fmt.Errorf("portfolio unavailable, store failed to initialize")
			}

			if !force {
				output.Warning("This discards all positions and trade history. Re-run with --force to confirm.")
				return nil
			}

			if err := app.Portfolio.Reset(ctx); err != nil {
				return err
			}

			output.Success("✓ Portfolio reset to %s", utils.FormatIndianCurrency(app.Config.Trading.InitialBalance))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")
	return cmd
}
