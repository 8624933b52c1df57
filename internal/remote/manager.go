package remote

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prasetya/wilayah/internal/cache"
)

// DefaultStalenessWindow is how long a cached snapshot stays fresh before a
// refresh is attempted.
const DefaultStalenessWindow = 7 * 24 * time.Hour

// ReleaseFetcher is the slice of Client the acquisition manager needs.
type ReleaseFetcher interface {
	LatestRelease(ctx context.Context) (*Release, error)
	DownloadArchive(ctx context.Context, url, dst string, progress ProgressFunc) error
}

type cacheState int

const (
	cacheAbsent cacheState = iota
	cacheFresh
	cacheStale
)

// Manager decides where ground-truth data comes from: an explicit local
// directory, the cached snapshot, or a fresh download from the origin.
type Manager struct {
	store    *cache.Store
	client   ReleaseFetcher
	logger   *slog.Logger
	window   time.Duration
	progress ProgressFunc

	now func() time.Time
}

// NewManager wires a Manager. window <= 0 falls back to the default
// staleness window.
func NewManager(store *cache.Store, client ReleaseFetcher, logger *slog.Logger, window time.Duration, progress ProgressFunc) *Manager {
	if window <= 0 {
		window = DefaultStalenessWindow
	}
	return &Manager{
		store:    store,
		client:   client,
		logger:   logger,
		window:   window,
		progress: progress,
		now:      time.Now,
	}
}

// Resolve returns the directory holding reference CSVs for this run.
//
// An explicit directory bypasses the cache entirely. Otherwise the cache
// state decides: a fresh snapshot is used as-is, a stale one triggers a
// refresh attempt but still serves when the origin is unreachable, and an
// absent cache makes the first fetch mandatory.
func (m *Manager) Resolve(ctx context.Context, explicitDir string, forceRefresh bool) (string, error) {
	if explicitDir != "" {
		info, err := os.Stat(explicitDir)
		if err != nil {
			return "", fmt.Errorf("remote: ground-truth dir: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("remote: ground-truth path %s is not a directory", explicitDir)
		}
		m.logger.Info("using explicit ground-truth directory", slog.String("dir", explicitDir))
		return explicitDir, nil
	}

	state, meta := m.state()

	if forceRefresh {
		dir, err := m.refresh(ctx, meta)
		if err == nil {
			return dir, nil
		}
		if state == cacheAbsent {
			return "", err
		}
		m.logger.Warn("forced refresh failed, falling back to cached snapshot",
			slog.String("error", err.Error()))
		dir, _ = m.store.SnapshotDir()
		return dir, nil
	}

	switch state {
	case cacheFresh:
		m.logger.Info("using cached ground truth",
			slog.String("version", meta.Version),
			slog.Time("fetched_at", meta.FetchedAt))
		dir, _ := m.store.SnapshotDir()
		return dir, nil

	case cacheStale:
		dir, err := m.refresh(ctx, meta)
		if err == nil {
			return dir, nil
		}
		m.logger.Warn("refresh failed, serving stale snapshot",
			slog.String("version", meta.Version),
			slog.Time("fetched_at", meta.FetchedAt),
			slog.String("error", err.Error()))
		dir, _ = m.store.SnapshotDir()
		return dir, nil

	default: // cacheAbsent
		dir, err := m.refresh(ctx, nil)
		if err != nil {
			return "", fmt.Errorf("remote: no cached ground truth and fetch failed: %w", err)
		}
		return dir, nil
	}
}

// Refresh unconditionally contacts the origin and updates the cache.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	_, meta := m.state()
	return m.refresh(ctx, meta)
}

// VersionInfo reports the cached snapshot metadata, or nil without one.
func (m *Manager) VersionInfo() *cache.Metadata {
	state, meta := m.state()
	if state == cacheAbsent {
		return nil
	}
	return meta
}

// state classifies the cache. Corrupt metadata, a missing snapshot, or a
// fingerprint mismatch all collapse to absent.
func (m *Manager) state() (cacheState, *cache.Metadata) {
	meta := m.store.ReadMetadata()
	if meta == nil {
		return cacheAbsent, nil
	}
	if _, ok := m.store.SnapshotDir(); !ok {
		return cacheAbsent, nil
	}
	if !m.store.Verify(meta) {
		m.logger.Warn("cached snapshot failed integrity check, discarding",
			slog.String("version", meta.Version))
		return cacheAbsent, nil
	}
	if m.now().Sub(meta.FetchedAt) > m.window {
		return cacheStale, meta
	}
	return cacheFresh, meta
}

// refresh fetches the latest release and rebuilds the snapshot. When the
// origin version matches the cached one, only the fetch timestamp moves;
// the snapshot itself is left untouched.
func (m *Manager) refresh(ctx context.Context, meta *cache.Metadata) (string, error) {
	rel, err := m.client.LatestRelease(ctx)
	if err != nil {
		return "", err
	}

	if meta != nil && meta.Version == rel.Tag {
		m.logger.Info("cached ground truth already at latest version",
			slog.String("version", rel.Tag))
		meta.FetchedAt = m.now()
		if err := m.store.WriteMetadata(*meta); err != nil {
			return "", err
		}
		dir, _ := m.store.SnapshotDir()
		return dir, nil
	}

	m.logger.Info("downloading ground truth release",
		slog.String("version", rel.Tag),
		slog.Time("published_at", rel.PublishedAt))

	work, err := os.MkdirTemp("", "wilayah-fetch-*")
	if err != nil {
		return "", fmt.Errorf("remote: create work dir: %w", err)
	}
	defer os.RemoveAll(work)

	archivePath := filepath.Join(work, "release.zip")
	if err := m.client.DownloadArchive(ctx, rel.ZipballURL, archivePath, m.progress); err != nil {
		return "", err
	}

	extractDir := filepath.Join(work, "data")
	if err := os.Mkdir(extractDir, 0o755); err != nil {
		return "", fmt.Errorf("remote: create extract dir: %w", err)
	}
	n, err := extractDataCSVs(archivePath, extractDir)
	if err != nil {
		return "", err
	}
	m.logger.Info("extracted reference files", slog.Int("count", n))

	if err := m.store.WriteSnapshot(extractDir, cache.Metadata{
		Version:     rel.Tag,
		ReleaseDate: rel.PublishedAt,
		FetchedAt:   m.now(),
	}); err != nil {
		return "", err
	}

	dir, ok := m.store.SnapshotDir()
	if !ok {
		return "", fmt.Errorf("remote: snapshot missing after write")
	}
	return dir, nil
}
