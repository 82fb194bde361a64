// Package export writes comparison results as CSV, JSON and console tables.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/lapdelta/internal/alignment"
	"github.com/banshee-data/lapdelta/internal/comparison"
	"github.com/banshee-data/lapdelta/internal/config"
	"github.com/banshee-data/lapdelta/internal/fsutil"
	"github.com/banshee-data/lapdelta/internal/security"
)

// WriteDeltaCSV writes a gap curve as Distance,Delta rows with a header.
func WriteDeltaCSV(w io.Writer, delta alignment.AlignedDelta) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Distance", "Delta"}); err != nil {
		return err
	}
	for _, p := range delta.Points {
		row := []string{formatFloat(p.Distance), formatFloat(p.Delta)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReportJSON writes the whole report as indented JSON.
func WriteReportJSON(w io.Writer, report *comparison.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// FileName returns the export file name for one result. Driver codes are
// sanitised so they cannot introduce path separators.
func FileName(driver, reference, format string) string {
	return fmt.Sprintf("delta_%s_vs_%s.%s",
		security.SanitizeFilename(driver), security.SanitizeFilename(reference), format)
}

// WriteFiles writes one file per result into dir and returns the paths in
// result order. CSV files hold the gap curve only; JSON files hold the full
// result including lap gap and summary.
func WriteFiles(fsys fsutil.FileSystem, dir string, report *comparison.Report, format string) ([]string, error) {
	if format != config.FormatCSV && format != config.FormatJSON {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	paths := make([]string, 0, len(report.Results))
	for _, res := range report.Results {
		path := filepath.Join(dir, FileName(res.Driver, report.Reference, format))
		if err := security.WithinDir(path, dir); err != nil {
			return paths, err
		}
		if err := writeFile(fsys, path, func(w io.Writer) error {
			if format == config.FormatCSV {
				return WriteDeltaCSV(w, res.Delta)
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(fsys fsutil.FileSystem, path string, write func(io.Writer) error) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
