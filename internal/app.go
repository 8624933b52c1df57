package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prasetya/wilayah/internal/area"
	"github.com/prasetya/wilayah/internal/cache"
	"github.com/prasetya/wilayah/internal/groundtruth"
	"github.com/prasetya/wilayah/internal/normalizer"
	"github.com/prasetya/wilayah/internal/remote"
	"github.com/prasetya/wilayah/internal/writer"
)

// NormalizeParams are the per-invocation inputs of the normalize operation.
type NormalizeParams struct {
	Area       string
	InputPath  string
	OutputPath string
	ReportPath string
}

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// newManager wires the acquisition manager. The GITHUB_TOKEN environment
// variable, when set, raises the unauthenticated rate limits.
func newManager(cfg *Config, logger *slog.Logger) (*remote.Manager, error) {
	root := cfg.Cache.Dir
	if root == "" {
		var err error
		root, err = cache.DefaultRoot()
		if err != nil {
			return nil, err
		}
	}
	store, err := cache.NewStore(root)
	if err != nil {
		return nil, err
	}
	client := remote.NewClient(remote.ClientConfig{
		Owner:   cfg.Remote.Owner,
		Repo:    cfg.Remote.Repo,
		Token:   os.Getenv("GITHUB_TOKEN"),
		Timeout: cfg.Remote.Timeout(),
	})
	return remote.NewManager(store, client, logger, cfg.Cache.StalenessWindow(), downloadProgress(logger)), nil
}

// downloadProgress logs download progress roughly every 4 MiB instead of on
// every read.
func downloadProgress(logger *slog.Logger) remote.ProgressFunc {
	const step = 4 << 20
	var lastLogged int64
	return func(received, total int64) {
		if received-lastLogged < step && received != total {
			return
		}
		lastLogged = received
		logger.Info("downloading", slog.Int64("received_bytes", received), slog.Int64("total_bytes", total))
	}
}

func loadIndex(dir string, logger *slog.Logger) (*groundtruth.Index, error) {
	ix, err := groundtruth.Load(dir, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("ground truth loaded", slog.String("summary", ix.Summary()))
	for _, issue := range ix.Issues() {
		logger.Warn("ground truth integrity issue",
			slog.String("file", issue.File),
			slog.Int("line", issue.Line),
			slog.String("code", issue.Code),
			slog.String("reason", issue.Reason))
	}
	return ix, nil
}

// RunNormalize classifies every row of the input CSV and writes the
// corrected output plus the per-row report. Unresolvable rows are report
// content, not process failures; only a missing ground-truth source or an
// unreadable input is fatal.
func RunNormalize(ctx context.Context, params NormalizeParams, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg)

	t, err := area.Parse(params.Area)
	if err != nil {
		return err
	}
	if params.OutputPath == "" {
		params.OutputPath = derivePath(params.InputPath, "_normalized")
	}
	if params.ReportPath == "" {
		params.ReportPath = derivePath(params.InputPath, "_report")
	}

	mgr, err := newManager(cfg, logger)
	if err != nil {
		return err
	}
	dir, err := mgr.Resolve(ctx, app.groundTruthDir, app.forceRefresh)
	if err != nil {
		return err
	}
	ix, err := loadIndex(dir, logger)
	if err != nil {
		return err
	}

	input, err := os.Open(params.InputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer input.Close()

	norm := normalizer.New(ix, cfg.Normalize.ConfidenceThreshold, cfg.Normalize.TieMargin)
	pipeline := normalizer.NewPipeline(norm, cfg.Normalize.Workers)
	header, report, err := pipeline.Run(ctx, t, input)
	if err != nil {
		return err
	}

	out, err := os.Create(params.OutputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()
	if err := report.WriteCorrected(writer.NewCSV(out, header, cfg.Normalize.BatchSize)); err != nil {
		return err
	}

	rep, err := os.Create(params.ReportPath)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer rep.Close()
	if err := report.WriteReport(rep); err != nil {
		return err
	}

	logger.Info("normalization finished",
		slog.String("area", t.String()),
		slog.String("output", params.OutputPath),
		slog.String("report", params.ReportPath),
		slog.String("summary", report.Summary()))
	return nil
}

// RunFetch warms the snapshot cache. With force refresh the origin is
// contacted unconditionally; otherwise only an absent or stale cache
// triggers a download.
func RunFetch(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config)

	mgr, err := newManager(app.config, logger)
	if err != nil {
		return err
	}
	if app.forceRefresh {
		if _, err := mgr.Refresh(ctx); err != nil {
			return err
		}
	} else if _, err := mgr.Resolve(ctx, "", false); err != nil {
		return err
	}

	if meta := mgr.VersionInfo(); meta != nil {
		logger.Info("cache ready",
			slog.String("version", meta.Version),
			slog.Time("release_date", meta.ReleaseDate),
			slog.Time("fetched_at", meta.FetchedAt))
	}
	return nil
}

// RunVersion prints the cached dataset version to stdout.
func RunVersion(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config)

	mgr, err := newManager(app.config, logger)
	if err != nil {
		return err
	}
	meta := mgr.VersionInfo()
	if meta == nil {
		fmt.Println("no cached ground truth; run `wilayah fetch` first")
		return nil
	}
	fmt.Printf("version:      %s\n", meta.Version)
	fmt.Printf("release date: %s\n", meta.ReleaseDate.Format("2006-01-02"))
	fmt.Printf("fetched at:   %s\n", meta.FetchedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

// derivePath turns "villages.csv" into "villages_normalized.csv".
func derivePath(input, suffix string) string {
	base := strings.TrimSuffix(input, ".csv")
	return base + suffix + ".csv"
}
