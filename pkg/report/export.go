// Package report writes computed results for the dashboard front end.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"shop-analytics/pkg/models"
)

// ExportJSON writes res as indented JSON to filename, creating its folder.
func ExportJSON(filename string, res *models.Result) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Encode(file, res); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Encode writes res as indented JSON. Map keys are emitted sorted, so equal
// results encode to equal bytes.
func Encode(w io.Writer, res *models.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// Tables returns a copy of res without run metadata, for comparing the
// output tables of two runs.
func Tables(res *models.Result) models.Result {
	t := *res
	t.RunID = ""
	t.GeneratedAt = time.Time{}
	return t
}
