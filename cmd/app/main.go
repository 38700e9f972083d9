package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/text/language"

	"SalesCast/internal/dataset"
	"SalesCast/internal/di"
	"SalesCast/internal/services/reporting"
	"SalesCast/internal/usecase"
	"SalesCast/pkg/config"
	applogger "SalesCast/pkg/logger"
	"SalesCast/pkg/server"
)

const usageText = `usage: salescast <command> [-config path] [flags]

commands:
  analyze    clean, report, forecast and evaluate the dataset
  forecast   forecast only; -by-category forecasts every category
  report     print the exploratory report
  generate   write a synthetic dataset (-out, -rows, -extended, -seed)
  runs       list stored forecast runs (-scope, -status, -limit)
  serve      run the HTTP API
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1], os.Args[2:])
	stop()
	os.Exit(code)
}

// action runs a command against the wired application.
type action func(ctx context.Context, app *server.App) error

func run(ctx context.Context, name string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "configs/config.yaml", "config file path; empty uses defaults and environment only")

	var act action
	switch name {
	case "analyze":
		act = analyze
	case "report":
		act = report
	case "serve":
		act = func(ctx context.Context, app *server.App) error { return app.Serve(ctx) }
	case "forecast":
		byCategory := fs.Bool("by-category", false, "forecast every category separately")
		act = func(ctx context.Context, app *server.App) error { return forecast(ctx, app, *byCategory) }
	case "runs":
		var p usecase.ListRunsParams
		fs.StringVar(&p.Scope, "scope", "", "only runs of this scope, e.g. all or category:Электроника")
		fs.StringVar(&p.Status, "status", "", "only runs with this status (ok|failed)")
		fs.IntVar(&p.Limit, "limit", 20, "maximum number of runs")
		act = func(ctx context.Context, app *server.App) error { return listRuns(ctx, app, p) }
	case "generate":
		return runGenerate(fs, configPath, args)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usageText)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", name, usageText)
		return 2
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Printf("config load failed: %v", err)
		return 1
	}

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Printf("app initialization failed: %v", err)
		return 1
	}
	defer cleanup()

	l := app.Logger()
	l.Info("salescast starting",
		applogger.String("command", name),
		applogger.String("dataset", cfg.Dataset.Path),
		applogger.String("engine", cfg.Forecast.Engine.Type),
		applogger.String("storage", cfg.Storage.Backend),
	)

	if err := act(ctx, app); err != nil {
		if errors.Is(err, context.Canceled) {
			l.Warn("interrupted", applogger.String("command", name))
			return 130
		}
		l.Error("command failed", applogger.String("command", name), applogger.Error(err))
		return 1
	}
	return 0
}

func analyze(ctx context.Context, app *server.App) error {
	a, err := app.Pipeline.Analyze(ctx)
	if a != nil && a.Report != nil {
		if rerr := reporting.Render(os.Stdout, a.Report, language.Russian); rerr != nil {
			return rerr
		}
	}
	if a != nil && a.Forecast != nil {
		printForecast(os.Stdout, a.Forecast)
	}
	return err
}

func report(ctx context.Context, app *server.App) error {
	rep, err := app.Pipeline.Report(ctx)
	if err != nil {
		return err
	}
	return reporting.Render(os.Stdout, rep, language.Russian)
}

func forecast(ctx context.Context, app *server.App, byCategory bool) error {
	if byCategory || app.Config().Forecast.PerCategory {
		cmp, err := app.Pipeline.ForecastByCategory(ctx)
		if cmp != nil {
			printComparison(os.Stdout, cmp)
		}
		return err
	}
	sf, err := app.Pipeline.Forecast(ctx, usecase.ForecastRequest{})
	if sf != nil {
		printForecast(os.Stdout, sf)
	}
	return err
}

func listRuns(ctx context.Context, app *server.App, p usecase.ListRunsParams) error {
	runs, err := app.Runs.ListRuns(ctx, p)
	if err != nil {
		return err
	}
	printRuns(os.Stdout, runs)
	return nil
}

func runGenerate(fs *flag.FlagSet, configPath *string, args []string) int {
	out := fs.String("out", "sales_data.xlsx", "output workbook")
	rows := fs.Int("rows", 1000, "number of transactions")
	days := fs.Int("days", 365, "dates are drawn from this many days before today")
	extended := fs.Bool("extended", false, "add client type and industry columns")
	seed := fs.Uint64("seed", 0, "random seed; 0 uses the current time")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Printf("config load failed: %v", err)
		return 1
	}

	opts := dataset.DefaultGenerateOptions(civil.DateOf(time.Now()))
	opts.Rows, opts.Days = *rows, *days
	if *extended {
		opts.Vocab = dataset.ExtendedVocabulary()
	}
	s := *seed
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}

	table := dataset.Generate(cfg.Schema, opts, rand.New(rand.NewPCG(s, s>>1)))
	if err := dataset.WriteTable(*out, table); err != nil {
		log.Printf("generate failed: %v", err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "wrote %d rows to %s (seed %d)\n", len(table.Records), *out, s)
	return 0
}
