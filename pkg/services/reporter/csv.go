package reporter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
)

const listSeparator = "; "

var (
	RowsHeader    = []string{"Owner", "Asset", "ARN", "Violation Type"}
	SummaryHeader = []string{"Owner Email", "Total Violations", "Asset Count", "Asset Types", "Violation Types", "Violating Assets"}
)

// WriteRowsCSV writes the flat export. Every data field is quoted.
func WriteRowsCSV(w io.Writer, rows []domain.Row) error {
	cw := newQuotedWriter(w)
	cw.header(RowsHeader)
	for _, r := range rows {
		cw.record(r.Owner, r.Asset, r.ARN, r.ViolationType)
	}
	return cw.flush()
}

// WriteSummaryCSV writes one line per owner with list fields joined by "; ".
func WriteSummaryCSV(w io.Writer, rows []domain.SummaryRow) error {
	cw := newQuotedWriter(w)
	cw.header(SummaryHeader)
	for _, r := range rows {
		cw.record(
			r.Owner,
			strconv.Itoa(r.Violations),
			strconv.Itoa(r.AssetCount),
			strings.Join(r.AssetTypes, listSeparator),
			strings.Join(r.ViolationTypes, listSeparator),
			strings.Join(r.ViolatingAssets, listSeparator),
		)
	}
	return cw.flush()
}

// Filename returns the download name of an export produced at t.
func Filename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.csv", prefix, t.UTC().Format(time.DateOnly))
}

type quotedWriter struct {
	w     *bufio.Writer
	first bool
}

func newQuotedWriter(w io.Writer) *quotedWriter {
	return &quotedWriter{w: bufio.NewWriter(w), first: true}
}

func (q *quotedWriter) header(fields []string) {
	q.line(fields, false)
}

func (q *quotedWriter) record(fields ...string) {
	q.line(fields, true)
}

func (q *quotedWriter) line(fields []string, quoted bool) {
	if !q.first {
		_ = q.w.WriteByte('\n')
	}
	q.first = false
	for i, f := range fields {
		if i > 0 {
			_ = q.w.WriteByte(',')
		}
		if quoted {
			_, _ = q.w.WriteString(quote(f))
		} else {
			_, _ = q.w.WriteString(f)
		}
	}
}

func (q *quotedWriter) flush() error {
	if err := q.w.Flush(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
