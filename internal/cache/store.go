// Package cache persists ground-truth snapshots and their metadata under a
// fixed cache root on local disk.
//
// Writes are atomic from the caller's perspective: a snapshot is staged in
// a temporary directory and renamed into place, so a failure mid-write can
// never be mistaken for a valid cache.
package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/prasetya/wilayah/internal/checksum"
)

const (
	snapshotDirName  = "ground-truth"
	metadataFileName = "metadata.json"
)

// Metadata describes the cached snapshot. Timestamps are RFC 3339 in the
// persisted JSON.
type Metadata struct {
	Version     string    `json:"version"`
	ReleaseDate time.Time `json:"release_date"`
	FetchedAt   time.Time `json:"fetched_at"`
	Checksum    string    `json:"checksum,omitempty"`
}

// Store owns one cache root. It performs no staleness or network logic;
// that belongs to the acquisition manager.
type Store struct {
	root string
}

// DefaultRoot returns the per-user cache root.
func DefaultRoot() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cache: resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "wilayah"), nil
}

// NewStore creates a Store rooted at root, creating the directory if needed.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cache: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute cache root.
func (s *Store) Root() string { return s.root }

func (s *Store) snapshotPath() string { return filepath.Join(s.root, snapshotDirName) }
func (s *Store) metadataPath() string { return filepath.Join(s.root, metadataFileName) }

// ReadMetadata returns the cached metadata, or nil when it is missing or
// unreadable. Corrupt metadata means "no valid cache", never an error.
func (s *Store) ReadMetadata() *Metadata {
	data, err := os.ReadFile(s.metadataPath())
	if err != nil {
		return nil
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil
	}
	if meta.Version == "" || meta.FetchedAt.IsZero() {
		return nil
	}
	return &meta
}

// WriteMetadata atomically replaces the metadata file.
func (s *Store) WriteMetadata(meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: encode metadata: %w", err)
	}
	return s.writeFileAtomic(s.metadataPath(), append(data, '\n'))
}

// SnapshotDir returns the snapshot directory if it holds at least one CSV.
func (s *Store) SnapshotDir() (string, bool) {
	dir := s.snapshotPath()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			return dir, true
		}
	}
	return "", false
}

// WriteSnapshot copies every CSV from srcDir into a staging directory,
// promotes it to the live snapshot with a rename, and then persists meta.
// The fingerprint of the copied files is recorded in the metadata so later
// reads can detect a tampered or truncated snapshot.
func (s *Store) WriteSnapshot(srcDir string, meta Metadata) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("cache: read source %s: %w", srcDir, err)
	}

	staging, err := os.MkdirTemp(s.root, ".staging-*")
	if err != nil {
		return fmt.Errorf("cache: create staging dir: %w", err)
	}
	success := false
	defer func() {
		if !success {
			_ = os.RemoveAll(staging)
		}
	}()

	copied := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		if err := copyFile(filepath.Join(srcDir, e.Name()), filepath.Join(staging, e.Name())); err != nil {
			return fmt.Errorf("cache: stage %s: %w", e.Name(), err)
		}
		copied++
	}
	if copied == 0 {
		return fmt.Errorf("cache: no CSV files in %s", srcDir)
	}

	fp, err := fingerprint(staging)
	if err != nil {
		return fmt.Errorf("cache: fingerprint snapshot: %w", err)
	}
	meta.Checksum = fp

	// Swap the staged snapshot in. The old snapshot is moved aside first so
	// the rename of the new one lands on a free path.
	live := s.snapshotPath()
	old := live + ".old"
	_ = os.RemoveAll(old)
	if _, statErr := os.Stat(live); statErr == nil {
		if err := os.Rename(live, old); err != nil {
			return fmt.Errorf("cache: move old snapshot: %w", err)
		}
	}
	if err := os.Rename(staging, live); err != nil {
		// Try to restore the previous snapshot before giving up.
		_ = os.Rename(old, live)
		return fmt.Errorf("cache: promote snapshot: %w", err)
	}
	_ = os.RemoveAll(old)
	success = true

	return s.WriteMetadata(meta)
}

// Verify recomputes the snapshot fingerprint and compares it with the
// stored metadata. A mismatch means the cache must be treated as absent.
func (s *Store) Verify(meta *Metadata) bool {
	if meta == nil || meta.Checksum == "" {
		// Older caches carry no fingerprint; accept them as-is.
		return meta != nil
	}
	dir, ok := s.SnapshotDir()
	if !ok {
		return false
	}
	fp, err := fingerprint(dir)
	if err != nil {
		return false
	}
	return fp == meta.Checksum
}

// fingerprint digests every CSV in dir, in name order.
func fingerprint(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		sum, err := checksum.File(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s %s\n", name, sum)
	}
	return checksum.Sum([]byte(b.String())), nil
}

// writeFileAtomic writes data via a temp file and rename.
func (s *Store) writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.root, ".wilayah-tmp-*")
	if err != nil {
		return fmt.Errorf("cache: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("cache: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("cache: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("cache: rename: %w", err)
	}
	success = true
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
