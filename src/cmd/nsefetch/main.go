package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/nsefetch/src/config"
	"github.com/jiaming2012/nsefetch/src/logger"
	"github.com/jiaming2012/nsefetch/src/services"
	"github.com/jiaming2012/nsefetch/src/telemetry"
	"github.com/jiaming2012/nsefetch/src/transport"
	"github.com/jiaming2012/nsefetch/src/utils"
)

type App struct {
	Config  *config.Config
	Fetcher transport.Fetcher
	Format  Format
	Out     io.Writer

	close        func() error
	otelShutdown func(context.Context) error
}

func (a *App) Close() {
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			log.Warnf("failed to flush traces: %v", err)
		}
		a.otelShutdown = nil
	}

	if a.close != nil {
		if err := a.close(); err != nil {
			log.Errorf("failed to close output: %v", err)
		}
		a.close = nil
	}
}

func (a *App) symbolDirectory() *services.SymbolDirectory {
	return services.NewSymbolDirectory(a.Config.EquityListURL, a.Config.Headers, a.Config.Timeout)
}

// setup loads the environment file, the config and the logger, in that order,
// so that .env values can feed config overrides.
func setup(cmd *cobra.Command) (*App, error) {
	goEnv, err := cmd.Flags().GetString("go-env")
	if err != nil {
		return nil, fmt.Errorf("setup: error getting go-env: %w", err)
	}

	projectsDir := os.Getenv("PROJECTS_DIR")
	if projectsDir == "" {
		projectsDir = "."
	}

	if err := utils.InitEnvironmentVariables(projectsDir, goEnv); err != nil {
		return nil, fmt.Errorf("setup: error loading environment variables: %w", err)
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("setup: error getting config: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	if cmd.Flags().Changed("mode") {
		mode, _ := cmd.Flags().GetString("mode")
		cfg.Mode = config.Mode(mode)
	}

	if cmd.Flags().Changed("cookie-jar") {
		cfg.CookieJar, _ = cmd.Flags().GetString("cookie-jar")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	if err := logger.Init(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := parseFormat(formatFlag)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	fetcher, err := transport.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	app := &App{
		Config:  cfg,
		Fetcher: fetcher,
		Format:  format,
		Out:     os.Stdout,
	}

	if cfg.Telemetry {
		shutdown, err := telemetry.Setup(context.Background(), cfg.ServiceName)
		if err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}

		app.otelShutdown = shutdown
	}

	outPath, _ := cmd.Flags().GetString("out")
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("setup: failed to create %s: %w", outPath, err)
		}

		app.Out = f
		app.close = f.Close
	}

	log.WithField("mode", cfg.Mode).Debug("nsefetch configured")

	return app, nil
}

var optionChainCmd = &cobra.Command{
	Use:   "option-chain --symbol NIFTY",
	Short: "Fetch the current option chain of an index",
	Run: func(cmd *cobra.Command, args []string) {
		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		app, err := setup(cmd)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		svc := services.NewOptionChainService(app.Fetcher, app.Config.OptionChainURL)

		result := svc.FetchOptionChain(ctx, symbol)
		if !result.Found() {
			fmt.Fprintf(os.Stderr, "no result for %s: %v\n", symbol, result.Reason)
			app.Close()
			os.Exit(1)
		}

		if err := writeOptionChain(app.Out, result.Table, app.Format); err != nil {
			log.Fatalf("failed to write option chain: %v", err)
		}
	},
}

var candlesCmd = &cobra.Command{
	Use:   "candles --symbol INFY --from 01-01-2021 --to 31-12-2021",
	Short: "Fetch daily equity candles over a date range",
	Run: func(cmd *cobra.Command, args []string) {
		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		from, err := cmd.Flags().GetString("from")
		if err != nil {
			log.Fatalf("error getting from: %v", err)
		}

		to, err := cmd.Flags().GetString("to")
		if err != nil {
			log.Fatalf("error getting to: %v", err)
		}

		app, err := setup(cmd)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var symbols services.SymbolValidator
		if app.Config.VerifySymbols {
			symbols = app.symbolDirectory()
		}

		svc := services.NewCandleService(app.Fetcher, symbols, services.CandleServiceConfig{
			HistoricalURL:  app.Config.HistoricalURL,
			ChunkDays:      app.Config.ChunkDays,
			MaxConcurrency: app.Config.MaxConcurrency,
		})

		table, err := svc.GetCandleData(ctx, symbol, from, to)
		if err != nil {
			log.Fatalf("failed to fetch candles: %v", err)
		}

		if err := writeCandles(app.Out, table, app.Format); err != nil {
			log.Fatalf("failed to write candles: %v", err)
		}
	},
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List the equities (series EQ) traded on the exchange",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := setup(cmd)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer app.Close()

		listings, err := app.symbolDirectory().Listings(cmd.Context())
		if err != nil {
			log.Fatalf("failed to fetch listings: %v", err)
		}

		if err := writeListings(app.Out, listings, app.Format); err != nil {
			log.Fatalf("failed to write listings: %v", err)
		}
	},
}

var rootCmd = &cobra.Command{
	Use:   "nsefetch",
	Short: "Fetch option chains and historical candles from the National Stock Exchange of India",
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a yaml config file")
	rootCmd.PersistentFlags().String("go-env", "development", "environment file to load: development or production")
	rootCmd.PersistentFlags().String("mode", string(config.ModeDirect), "transport mode: direct or shell")
	rootCmd.PersistentFlags().String("cookie-jar", config.DefaultCookieJar, "cookie jar used by the shell relay")
	rootCmd.PersistentFlags().String("format", string(FormatTable), "output format: table, csv or json")
	rootCmd.PersistentFlags().String("out", "", "write output to this file instead of stdout")

	optionChainCmd.Flags().String("symbol", "", "index symbol, e.g. NIFTY or BANKNIFTY")
	optionChainCmd.MarkFlagRequired("symbol")

	candlesCmd.Flags().String("symbol", "", "equity symbol, e.g. INFY or M&M")
	candlesCmd.Flags().String("from", "", "start date (DD-MM-YYYY)")
	candlesCmd.Flags().String("to", "", "end date (DD-MM-YYYY)")
	candlesCmd.MarkFlagRequired("symbol")
	candlesCmd.MarkFlagRequired("from")
	candlesCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(optionChainCmd, candlesCmd, symbolsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
