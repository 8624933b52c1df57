package remote

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// extractDataCSVs pulls every CSV under the archive's data/ directory into
// dstDir, flattened to basenames. GitHub zipballs wrap the repository in a
// single top-level directory whose name embeds the commit, so matching is
// done on the path inside that wrapper.
func extractDataCSVs(archivePath, dstDir string) (int, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("remote: open archive: %w", err)
	}
	defer zr.Close()

	extracted := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isDataCSV(f.Name) {
			continue
		}
		if err := extractFile(f, filepath.Join(dstDir, path.Base(f.Name))); err != nil {
			return extracted, fmt.Errorf("remote: extract %s: %w", f.Name, err)
		}
		extracted++
	}
	if extracted == 0 {
		return 0, fmt.Errorf("remote: archive contains no data CSVs")
	}
	return extracted, nil
}

// isDataCSV reports whether name is a CSV directly under the repository's
// data/ directory, ignoring the zipball's top-level wrapper.
func isDataCSV(name string) bool {
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		return false
	}
	parts := strings.Split(path.Clean(name), "/")
	// wrapper/data/file.csv
	return len(parts) == 3 && parts[1] == "data"
}

func extractFile(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
