package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"virtual-trader/internal/models"
	"virtual-trader/internal/quotes"
	"virtual-trader/internal/stream"
)

// addStreamCommands adds the watch command.
func addStreamCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newWatchCmd(app))
}

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [symbols...]",
		Short: "Stream live trades and opportunity alerts",
		Long: `Stream live trade prints for the given symbols (defaults to the
watchlist) and raise opportunity alerts on outsized moves. Requires a
Finnhub API key. Press Ctrl+C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			output := NewOutput(cmd)

			if app.Config.Quotes.APIKey == "" {
				return fmt.Errorf("streaming requires a Finnhub API key (set FINNHUB_API_KEY)")
			}

			symbols := make([]string, 0, len(args))
			for _, arg := range args {
				symbols = append(symbols, strings.ToUpper(arg))
			}
			if len(symbols) == 0 && app.Store != nil {
				watchlist, err := app.Store.GetWatchlist(ctx)
				if err != nil {
					return err
				}
				symbols = watchlist
			}
			if len(symbols) == 0 {
				return fmt.Errorf("no symbols to watch, pass symbols or add some with 'vtrader watchlist add'")
			}

			url := app.Config.Quotes.WebsocketURL + "?token=" + app.Config.Quotes.APIKey
			ticker := quotes.NewTicker(url, app.Logger)
			hub := stream.NewHub(ticker)

			monitor := stream.NewMonitor(app.Store, app.Logger, nil)
			monitor.OnAlert(func(alert models.Alert) {
				output.Warning("⚡ %s", alert.Message)
			})

			channels := make([]<-chan quotes.TradeTick, 0, len(symbols))
			for _, symbol := range symbols {
				channels = append(channels, hub.Subscribe(symbol))
			}

			if err := hub.Start(ctx); err != nil {
				return err
			}
			defer hub.Stop()

			output.Info("Watching %s", strings.Join(symbols, ", "))
			output.Dim("Press Ctrl+C to stop")
			output.Println()

			ticks := merge(channels)
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)

			for {
				select {
				case <-sig:
					output.Println()
					output.Info("Stopped")
					return nil
				case <-ctx.Done():
					return ctx.Err()
				case tick, ok := <-ticks:
					if !ok {
						return nil
					}
					monitor.Observe(ctx, tick.Symbol, tick.Price)
					output.Printf("%s  %-14s %10.2f  vol %s\n",
						FormatTime(tick.Timestamp), tick.Symbol, tick.Price, FormatVolume(tick.Volume))
				}
			}
		},
	}
}

// merge fans several tick channels into one. The output closes when all
// inputs close.
func merge(channels []<-chan quotes.TradeTick) <-chan quotes.TradeTick {
	out := make(chan quotes.TradeTick)
	done := make(chan struct{}, len(channels))

	for _, ch := range channels {
		go func(ch <-chan quotes.TradeTick) {
			for tick := range ch {
				out <- tick
			}
			done <- struct{}{}
		}(ch)
	}

	go func() {
		for range channels {
			<-done
		}
		close(out)
	}()

	return out
}
