// Package export serializes ranked siting results: a GeoJSON feature
// collection, CSV companions, and a YAML run manifest, all written into a
// per-run output directory. Every file is written atomically so a failure
// mid-write leaves no partial output behind.
package export

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// writeAtomic writes data to path via a temp file in the same directory and
// a rename, so the destination either has the complete contents or does not
// exist.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "export: create temp file in %s", dir)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return eris.Wrapf(err, "export: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return eris.Wrapf(err, "export: close temp for %s", path)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return eris.Wrapf(err, "export: chmod temp for %s", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return eris.Wrapf(err, "export: rename into %s", path)
	}
	return nil
}

// NewRunDir creates the per-run output directory <base>/<runID>-<name>.
func NewRunDir(base, runID, name string) (string, error) {
	dir := filepath.Join(base, runID+"-"+name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "export: create run directory %s", dir)
	}
	return dir, nil
}
