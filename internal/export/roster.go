package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/corpdesk/employee-portal/internal/domain"
)

// Keep header order stable; downstream HR imports map columns by position.
var rosterHeader = []string{
	"EMP_ID",
	"NAME",
	"EMAIL",
	"UID",
	"CREATED_AT",
}

// Options controls roster encoding.
type Options struct {
	Compress bool
}

// FileName returns the conventional roster file name for the given time.
func FileName(at time.Time, opts Options) string {
	name := fmt.Sprintf("employee-roster-%s.csv", at.UTC().Format("20060102-150405"))
	if opts.Compress {
		name += ".br"
	}
	return name
}

// WriteRoster writes employees as CSV sorted by employee ID, brotli-compressed when asked.
func WriteRoster(w io.Writer, employees []domain.Employee, opts Options) error {
	if !opts.Compress {
		return WriteRosterCSV(w, employees)
	}

	bw := brotli.NewWriterLevel(w, brotli.DefaultCompression)
	if err := WriteRosterCSV(bw, employees); err != nil {
		_ = bw.Close()
		return err
	}
	return bw.Close()
}

// WriteRosterCSV writes the plain CSV roster.
func WriteRosterCSV(w io.Writer, employees []domain.Employee) error {
	sorted := append([]domain.Employee(nil), employees...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].EmpID < sorted[j].EmpID })

	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(rosterHeader); err != nil {
		return err
	}
	for _, e := range sorted {
		if err := cw.Write(toRosterRow(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func toRosterRow(e domain.Employee) []string {
	created := ""
	if !e.CreatedAt.IsZero() {
		created = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []string{e.EmpID, e.Name, e.Email, e.UID, created}
}
