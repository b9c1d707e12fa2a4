// Package cli provides the command-line interface for the virtual trader.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"virtual-trader/internal/config"
	"virtual-trader/internal/logging"
	"virtual-trader/internal/options"
	"virtual-trader/internal/portfolio"
	"virtual-trader/internal/quotes"
	"virtual-trader/internal/store"
	"virtual-trader/internal/subscription"
	"virtual-trader/internal/trading"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-01-01"
)

// App holds the application dependencies.
type App struct {
	Config       *config.Config
	Logger       zerolog.Logger
	Store        store.DataStore
	Quotes       quotes.Source
	Generator    *options.Generator
	Engine       *trading.Engine
	Portfolio    *portfolio.Manager
	Subscription *subscription.Service
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Quote source: live Finnhub when a key is configured, synthetic
	// otherwise. The resilient wrapper degrades to synthetic on failure.
	mock := quotes.NewMockSource(nil)
	if cfg.Quotes.APIKey != "" {
		finnhub := quotes.NewFinnhubClient(quotes.FinnhubConfig{
			APIKey:  cfg.Quotes.APIKey,
			BaseURL: cfg.Quotes.BaseURL,
			Timeout: cfg.Quotes.Timeout,
			Logger:  logger,
		})
		app.Quotes = quotes.NewResilientSource(finnhub, mock, logger)
		// The generator takes the raw client so a failed fetch is
		// visible and the chain gets marked synthetic.
		app.Generator = options.NewGenerator(options.GeneratorConfig{
			Source: finnhub,
			Logger: logger,
		})
		logger.Debug().Msg("Finnhub quote source initialized")
	} else {
		app.Quotes = mock
		app.Generator = options.NewGenerator(options.GeneratorConfig{
			Source: mock,
			Logger: logger,
		})
		logger.Debug().Msg("Using synthetic quote source, no API key configured")
	}

	app.Engine = trading.NewEngine(trading.EngineConfig{Logger: logger})

	dataStore, err := store.NewSQLiteStore(config.DatabasePath(cfg.Dir))
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, some features may be unavailable")
	} else {
		app.Store = dataStore
		app.Subscription = subscription.NewService(dataStore, logger, nil)

		manager, err := portfolio.NewManager(context.Background(), portfolio.Config{
			Store:          dataStore,
			Engine:         app.Engine,
			Logger:         logger,
			InitialBalance: cfg.Trading.InitialBalance,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to load portfolio")
		} else {
			app.Portfolio = manager
		}
	}

	rootCmd := &cobra.Command{
		Use:   "vtrader",
		Short: "Virtual Trader - simulated Indian F&O trading CLI",
		Long: `Virtual Trader is a paper trading CLI for the Indian derivatives market.

It simulates futures and options trading with virtual money, generates
synthetic options chains from live or mock underlying quotes, and tracks
positions, P&L, and trade history locally.

Use 'vtrader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/virtual-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addMarketDataCommands(rootCmd, app)
	addTradingCommands(rootCmd, app)
	addWatchlistCommands(rootCmd, app)
	addAlertCommands(rootCmd, app)
	addSubscriptionCommands(rootCmd, app)
	addStreamCommands(rootCmd, app)

	return rootCmd
}

// cmdContext returns the context for a command invocation.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Virtual Trader v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.Config.Dir})
			} else {
				output.Println(app.Config.Dir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config.toml",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path, err := config.WriteDefaultConfig(app.Config.Dir)
			if err != nil {
				return err
			}
			output.Success("Wrote %s", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Trading Configuration")
	output.Printf("  Initial Balance: %.2f\n", cfg.Trading.InitialBalance)
	output.Printf("  Currency:        %s\n", cfg.Trading.Currency)
	output.Println()

	output.Bold("Quote Provider")
	keyStatus := "not set"
	if cfg.Quotes.APIKey != "" {
		keyStatus = "configured"
	}
	output.Printf("  API Key:         %s\n", keyStatus)
	output.Printf("  Base URL:        %s\n", cfg.Quotes.BaseURL)
	output.Printf("  Websocket URL:   %s\n", cfg.Quotes.WebsocketURL)
	output.Printf("  Timeout:         %s\n", cfg.Quotes.Timeout)
	output.Println()

	output.Bold("Free Tier Limits")
	output.Printf("  Trades/Day:      %d\n", cfg.Limits.TradesPerDay)
	output.Printf("  Watchlist:       %d\n", cfg.Limits.WatchlistLimit)
	output.Printf("  Data Delay:      %d min\n", cfg.Limits.DataDelayMins)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  Console:         %v\n", cfg.Logging.Console)
	output.Printf("  File:            %v\n", cfg.Logging.File)
}
