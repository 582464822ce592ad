package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/lox/pointcast/internal/accuracy"
	"github.com/lox/pointcast/internal/ingest"
	"github.com/lox/pointcast/internal/metrics"
	"github.com/lox/pointcast/internal/store"
)

type CLI struct {
	Lat          float64 `env:"POINTCAST_LAT" default:"37.4478" help:"Target latitude."`
	Lon          float64 `env:"POINTCAST_LON" default:"-122.136" help:"Target longitude (signed convention)."`
	LocationName string  `env:"POINTCAST_LOCATION" default:"Palo Alto, CA" help:"Human-readable location name."`
	Model        string  `env:"POINTCAST_MODEL" default:"atlas-crps" help:"Model identifier for payloads."`
	ModelParams  string  `env:"POINTCAST_MODEL_PARAMS" default:"4.3B" help:"Model parameter count for payloads."`
	StepHours    int     `env:"POINTCAST_STEP_HOURS" default:"6" help:"Forecast step interval in hours."`
	Timezone     string  `env:"POINTCAST_TIMEZONE" default:"America/Los_Angeles" help:"Civil timezone for observed daily highs/lows."`

	SourceURL string `env:"POINTCAST_SOURCE_URL" help:"HTTP base URL where the inference job publishes field documents."`
	SourceFTP string `env:"POINTCAST_SOURCE_FTP" help:"FTP host:port of a field document mirror (overrides --source-url)."`
	SourceDir string `env:"POINTCAST_SOURCE_DIR" default:"/" help:"Directory on the FTP mirror."`

	GistID    string `env:"FORECAST_GIST_ID" help:"GitHub gist ID for persisted documents."`
	GistToken string `env:"GH_TOKEN" help:"GitHub token for gist writes."`
	DB        string `env:"POINTCAST_DB" default:"data/pointcast.db" help:"Path to the local SQLite archive."`

	ForecastDoc string `env:"POINTCAST_FORECAST_DOC" default:"atlas_forecast.json" help:"Forecast document name."`
	AccuracyDoc string `env:"POINTCAST_ACCURACY_DOC" default:"accuracy_log.json" help:"Accuracy log document name."`

	Pushgateway string `env:"POINTCAST_PUSHGATEWAY" help:"Prometheus Pushgateway URL (empty disables the push)."`

	Forecast ForecastCmd `cmd:"" help:"Run one forecast derivation pass and persist the payload."`
	Accuracy AccuracyCmd `cmd:"" help:"Score an archived prediction against observed ground truth."`
}

type ForecastCmd struct{}

type AccuracyCmd struct {
	Date string `help:"Target date (YYYY-MM-DD), defaults to yesterday UTC."`
}

// openStores opens the local archive and picks the document store: the gist
// when configured, otherwise the local database.
func openStores(cli *CLI) (*store.Store, store.DocumentStore, func(), error) {
	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	local := store.New(db)
	if err := local.Migrate(); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}

	var docs store.DocumentStore = local
	if cli.GistID != "" {
		docs = store.NewGistStore(cli.GistID, cli.GistToken)
	}
	return local, docs, func() { db.Close() }, nil
}

func fieldSource(cli *CLI) (ingest.FieldSource, error) {
	if cli.SourceFTP != "" {
		return ingest.NewFTPFieldSource(cli.SourceFTP, cli.SourceDir), nil
	}
	if cli.SourceURL != "" {
		return ingest.NewHTTPFieldSource(cli.SourceURL), nil
	}
	return nil, fmt.Errorf("no field source configured: set --source-url or --source-ftp")
}

func (c *ForecastCmd) Run(cli *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	source, err := fieldSource(cli)
	if err != nil {
		return err
	}

	local, docs, closer, err := openStores(cli)
	if err != nil {
		return err
	}
	defer closer()

	runner := ingest.NewRunner(source, docs, local, ingest.Config{
		Model:        cli.Model,
		ModelParams:  cli.ModelParams,
		LocationName: cli.LocationName,
		Lat:          cli.Lat,
		Lon:          cli.Lon,
		StepHours:    cli.StepHours,
		DocumentName: cli.ForecastDoc,
	})

	if err := runner.Run(ctx, time.Now().UTC()); err != nil {
		return err
	}

	if err := metrics.Push(cli.Pushgateway, "pointcast_forecast"); err != nil {
		log.Printf("main: %v", err)
	}
	return nil
}

func (c *AccuracyCmd) Run(cli *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	date := c.Date
	if date == "" {
		date = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	}

	_, docs, closer, err := openStores(cli)
	if err != nil {
		return err
	}
	defer closer()

	obs := ingest.NewOpenMeteo(cli.Lat, cli.Lon, cli.Timezone)
	evaluator := accuracy.NewEvaluator(obs, docs, cli.ForecastDoc, cli.AccuracyDoc)

	if err := evaluator.Run(ctx, date); err != nil {
		return err
	}

	if err := metrics.Push(cli.Pushgateway, "pointcast_accuracy"); err != nil {
		log.Printf("main: %v", err)
	}
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pointcast"),
		kong.Description("Derives point forecasts from gridded NWP output and tracks their accuracy."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)
	if err := ctx.Run(&cli); err != nil {
		log.Fatalf("%s: %v", ctx.Command(), err)
	}
}
