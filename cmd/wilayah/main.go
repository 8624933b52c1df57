package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/prasetya/wilayah/internal"
	pkgconfig "github.com/prasetya/wilayah/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	// An explicitly named config file must exist; the default path is
	// loaded only when present.
	configPath := cmd.String("config")
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Flag overrides beat both defaults and the config file.
	if cmd.IsSet("threshold") {
		cfg.Normalize.ConfidenceThreshold = float64(cmd.Float("threshold"))
	}
	if cmd.IsSet("tie-margin") {
		cfg.Normalize.TieMargin = float64(cmd.Float("tie-margin"))
	}
	if cmd.IsSet("workers") {
		cfg.Normalize.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("cache-dir") {
		cfg.Cache.Dir = cmd.String("cache-dir")
	}
	if cmd.IsSet("port") {
		cfg.Serve.Port = int(cmd.Int("port"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func commonOptions(cmd *cli.Command, cfg *internal.Config) []internal.Option {
	opts := []internal.Option{internal.WithConfig(cfg)}
	if dir := cmd.String("ground-truth"); dir != "" {
		opts = append(opts, internal.WithGroundTruthDir(dir))
	}
	if cmd.Bool("refresh") {
		opts = append(opts, internal.WithForceRefresh())
	}
	return opts
}

func runNormalize(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	params := internal.NormalizeParams{
		Area:       cmd.String("area"),
		InputPath:  cmd.String("input"),
		OutputPath: cmd.String("output"),
		ReportPath: cmd.String("report"),
	}
	return internal.RunNormalize(ctx, params, commonOptions(cmd, cfg)...)
}

func runFetch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunFetch(ctx, commonOptions(cmd, cfg)...)
}

func runVersion(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunVersion(ctx, internal.WithConfig(cfg))
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunServe(ctx, commonOptions(cmd, cfg)...)
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("WILAYAH_CONFIG_FILE"),
	}
	cacheDirFlag := &cli.StringFlag{
		Name:  "cache-dir",
		Usage: "Override the snapshot cache directory",
	}
	groundTruthFlag := &cli.StringFlag{
		Name:  "ground-truth",
		Usage: "Use a local directory of reference CSVs, skipping cache and network",
	}
	refreshFlag := &cli.BoolFlag{
		Name:  "refresh",
		Usage: "Contact the origin even when the cached snapshot is fresh",
	}

	cmd := &cli.Command{
		Name:  "wilayah",
		Usage: "Normalize Indonesian administrative area data against the reference dataset",
		Commands: []*cli.Command{
			{
				Name:   "normalize",
				Usage:  "Classify and repair the rows of an input CSV",
				Action: runNormalize,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:     "area",
						Aliases:  []string{"a"},
						Usage:    "Area type: province, regency, district, village, or island",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Input CSV path",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Corrected CSV path (default: <input>_normalized.csv)",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Report CSV path (default: <input>_report.csv)",
					},
					&cli.FloatFlag{
						Name:  "threshold",
						Usage: "Minimum fuzzy score accepted as a correction",
					},
					&cli.FloatFlag{
						Name:  "tie-margin",
						Usage: "Score gap under which the top two candidates are ambiguous",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent classification workers",
					},
					groundTruthFlag,
					refreshFlag,
					cacheDirFlag,
				},
			},
			{
				Name:   "fetch",
				Usage:  "Download or refresh the cached reference dataset",
				Action: runFetch,
				Flags:  []cli.Flag{configFlag, refreshFlag, cacheDirFlag},
			},
			{
				Name:   "version",
				Usage:  "Show the cached reference dataset version",
				Action: runVersion,
				Flags:  []cli.Flag{configFlag, cacheDirFlag},
			},
			{
				Name:   "serve",
				Usage:  "Run the area lookup HTTP service",
				Action: runServe,
				Flags: []cli.Flag{
					configFlag,
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP listen port",
					},
					groundTruthFlag,
					refreshFlag,
					cacheDirFlag,
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
