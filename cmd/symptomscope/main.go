package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/rewired-gh/symptomscope/internal/config"
	"github.com/rewired-gh/symptomscope/internal/ingest"
	"github.com/rewired-gh/symptomscope/internal/logger"
	"github.com/rewired-gh/symptomscope/internal/render"
	"github.com/rewired-gh/symptomscope/internal/series"
	"github.com/rewired-gh/symptomscope/internal/storage"
)

var cfg *config.Config

func main() {
	app := cli.NewApp()
	app.Name = "symptomscope"
	app.Usage = "explore symptom tracker exports by category and time window"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "config file path (defaults and SYMPTOMSCOPE_* env vars when empty)",
		},
		cli.StringFlag{
			Name:  "log, l",
			Usage: "log level: debug,info,warn,error (overrides config)",
		},
	}

	app.Before = initConfig

	windowFlags := []cli.Flag{
		cli.StringFlag{Name: "category", Usage: "symptom name (first category when empty)"},
		cli.StringFlag{Name: "start", Usage: "first date, YYYY-MM-DD"},
		cli.StringFlag{Name: "end", Usage: "last date, YYYY-MM-DD"},
	}
	fileFlag := cli.StringFlag{Name: "file, f", Usage: "CSV export to load"}

	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "start the HTTP API",
			Flags:  []cli.Flag{fileFlag},
			Action: serve,
		},
		{
			Name:   "categories",
			Usage:  "print per-category statistics of an export",
			Flags:  []cli.Flag{fileFlag},
			Action: categories,
		},
		{
			Name:   "query",
			Usage:  "print the points of one category inside a window",
			Flags:  append([]cli.Flag{fileFlag}, windowFlags...),
			Action: query,
		},
		{
			Name:  "chart",
			Usage: "write an SVG chart of one category inside a window",
			Flags: append([]cli.Flag{
				fileFlag,
				cli.StringFlag{Name: "out, o", Usage: "output SVG path", Value: "chart.svg"},
			}, windowFlags...),
			Action: chart,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal("%v", err)
	}
}

func initConfig(c *cli.Context) error {
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if lv := c.String("log"); lv != "" {
		cfg.Logging.Level = lv
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if path := c.String("config"); path != "" {
		logger.Debug("Configuration loaded from %s", path)
	}
	return nil
}

func newProjector() (*series.Projector, error) {
	start, end, err := cfg.Series.Window()
	if err != nil {
		return nil, err
	}
	return series.New(series.Window{Start: start, End: end}), nil
}

func chartOptions() render.Options {
	return render.Options{Width: cfg.Chart.Width, Height: cfg.Chart.Height}
}

// loadFile decodes the export at path into a published store.
func loadFile(holder *storage.Holder, path string) (*storage.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	started := time.Now()
	records, err := ingest.NewDecoder(cfg.Ingest.SymptomCategory).Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	store, err := holder.Rebuild(records)
	if err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", path, err)
	}
	logger.Debug("Loaded %s in %v", path, time.Since(started))
	return store, nil
}

func sourcePath(c *cli.Context) string {
	if path := c.String("file"); path != "" {
		return path
	}
	return cfg.Ingest.SourcePath
}

// requireStore loads the command's export, failing when none is given.
func requireStore(c *cli.Context) (*storage.Store, error) {
	path := sourcePath(c)
	if path == "" {
		return nil, fmt.Errorf("--file is required (or set ingest.source_path)")
	}
	return loadFile(storage.NewHolder(), path)
}

func windowRequest(c *cli.Context) (series.Request, error) {
	start, err := series.ParseDate(c.String("start"))
	if err != nil {
		return series.Request{}, err
	}
	end, err := series.ParseDate(c.String("end"))
	if err != nil {
		return series.Request{}, err
	}
	return series.Request{Category: c.String("category"), Start: start, End: end}, nil
}
