package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractZIPMember extracts one file from a ZIP archive into destDir and
// returns its path. With an empty member the archive must hold exactly one
// file. A member may be an exact entry name or a base name matched anywhere
// in the archive.
func ExtractZIPMember(zipPath, member, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var files []*zip.File
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}

	if member == "" {
		if len(files) != 1 {
			return "", eris.Errorf("zip: expected exactly 1 file, got %d", len(files))
		}
		return extractZIPEntry(files[0], destDir)
	}

	for _, f := range files {
		if f.Name == member {
			return extractZIPEntry(f, destDir)
		}
	}
	for _, f := range files {
		if filepath.Base(f.Name) == member {
			return extractZIPEntry(f, destDir)
		}
	}
	return "", eris.Errorf("zip: file %q not found in archive", member)
}

// extractZIPEntry writes a single zip.File under destDir.
func extractZIPEntry(f *zip.File, destDir string) (string, error) {
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("zip: illegal path %q (zip slip attempt)", f.Name)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	if _, err := writeFile(destPath, rc); err != nil {
		return "", eris.Wrap(err, "zip: extract entry")
	}
	return destPath, nil
}
