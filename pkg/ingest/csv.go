// Package ingest reads the CSV exports the engine consumes: the order
// exports, the order -> medium lookup and the two session exports.
//
// A missing auxiliary file is not an error: the reader returns a nil table
// and the engine degrades the matching output.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"shop-analytics/pkg/logging"
	"shop-analytics/pkg/models"
)

// ReadOrderDir reads every *.csv file of dir in lexical order and returns
// their rows in file order.
func ReadOrderDir(dir string, verbose bool) ([]models.RawRow, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no order exports in %s", dir)
	}
	sort.Strings(files)

	bar := logging.NewProgress(len(files), "reading orders", verbose)
	var rows []models.RawRow
	for _, path := range files {
		recs, err := readRecords(path)
		if err != nil {
			return nil, err
		}
		rows = append(rows, recs...)
		_ = bar.Add(1)
	}
	return rows, nil
}

// ReadMediumLookup reads an order -> medium table. Accepted headers:
// Name or order_name for the order, medium or utm_medium for the medium.
func ReadMediumLookup(path string) (models.MediumLookup, error) {
	recs, err := readOptional(path)
	if recs == nil || err != nil {
		return nil, err
	}
	out := make(models.MediumLookup, len(recs))
	for _, r := range recs {
		id := strings.TrimSpace(pick(r, "Name", "order_name", "order"))
		if id == "" {
			continue
		}
		if _, ok := out[id]; !ok {
			out[id] = strings.TrimSpace(pick(r, "medium", "utm_medium", "Medium"))
		}
	}
	return out, nil
}

// ReadChannelSessions reads (week, channel, sessions, completed_checkouts) rows.
func ReadChannelSessions(path string) ([]models.ChannelSessionRow, error) {
	recs, err := readOptional(path)
	if recs == nil || err != nil {
		return nil, err
	}
	out := make([]models.ChannelSessionRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.ChannelSessionRow{
			Week:        strings.TrimSpace(pick(r, "week", "Week")),
			Channel:     strings.TrimSpace(pick(r, "channel", "Channel")),
			Sessions:    parseCount(pick(r, "sessions", "Sessions")),
			Completions: parseCount(pick(r, "completed_checkouts", "completions", "Sessions that completed checkout")),
		})
	}
	return out, nil
}

// ReadLandingSessions reads (week, landing_page_path, sessions, cart_additions) rows.
func ReadLandingSessions(path string) ([]models.LandingSessionRow, error) {
	recs, err := readOptional(path)
	if recs == nil || err != nil {
		return nil, err
	}
	out := make([]models.LandingSessionRow, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.LandingSessionRow{
			Week:     strings.TrimSpace(pick(r, "week", "Week")),
			Path:     strings.TrimSpace(pick(r, "landing_page_path", "Landing page path", "path")),
			Sessions: parseCount(pick(r, "sessions", "Sessions")),
			CartAdds: parseCount(pick(r, "cart_additions", "Sessions with cart additions", "atc")),
		})
	}
	return out, nil
}

// readOptional returns nil, nil when path is empty or does not exist.
func readOptional(path string) ([]models.RawRow, error) {
	if path == "" {
		return nil, nil
	}
	recs, err := readRecords(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []models.RawRow{}
	}
	return recs, nil
}

// readRecords reads a header-keyed CSV file. Short rows leave the missing
// columns empty.
func readRecords(path string) ([]models.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return recs, nil
}

func parse(r io.Reader) ([]models.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var out []models.RawRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(models.RawRow, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func pick(r models.RawRow, keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			return v
		}
	}
	return ""
}

func parseCount(s string) int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}
