// Package report renders the filtered canonical record set into the
// downstream artifacts: the machine-readable JSON/CSV/XLSX feed and the
// human-readable Markdown/HTML report. No normalization or conflict
// resolution happens here; that must already be done.
package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roadmap-cli/internal/model"
	"github.com/sells-group/roadmap-cli/internal/parse"
)

// FeedRow flattens a canonical record into the fixed feed column order
// (identical to parse.TableHeader).
func FeedRow(rec model.CanonicalRecord) []string {
	return []string{
		strconv.FormatInt(rec.ID, 10),
		rec.Title,
		rec.Product,
		string(rec.Status),
		string(rec.ReleasePhase),
		rec.TargetedDates,
		strings.Join(rec.CloudInstances, ", "),
		rec.Description,
		rec.OfficialLink,
	}
}

// WriteCSV emits the feed as CSV with the fixed header. Column order is a
// contract with the dashboard and report renderer; changing it is a
// breaking change.
func WriteCSV(w io.Writer, records []model.CanonicalRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(parse.TableHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, rec := range records {
		if err := cw.Write(FeedRow(rec)); err != nil {
			return eris.Wrapf(err, "report: write csv row %d", rec.ID)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// WriteJSON emits the feed as a canonical JSON array, provenance included.
func WriteJSON(w io.Writer, records []model.CanonicalRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if records == nil {
		records = []model.CanonicalRecord{}
	}
	return eris.Wrap(enc.Encode(records), "report: encode json feed")
}

// WriteFileAtomic writes via a temp file in the destination directory and
// renames on success, so an interrupted run leaves the previous feed intact.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "report: mkdir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return eris.Wrap(err, "report: create temp file")
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "report: close temp file")
	}
	return eris.Wrapf(os.Rename(tmp.Name(), path), "report: rename into %s", path)
}
