// Package batch processes uploaded CSV files: it parses each file into rows,
// derives the owning user from the object key, and feeds every well-formed
// row through the usage ingestion pipeline.
package batch

import (
	"strings"

	"github.com/mccollumn/home-energy-monitoring/internal/identity/claims"
)

// Expected column headers. Column order is free; names are matched from the
// header line. Anything else is ignored.
const (
	colDate      = "date"
	colUsage     = "usage"
	colTimestamp = "timestamp"
)

// Row is one parsed CSV data line with the fields the pipeline needs.
// Timestamp is optional and empty when the file has no such column.
type Row struct {
	Line      int
	Date      string
	Usage     string
	Timestamp string
}

// Skipped records a data line that cannot become an observation, with the
// reason it was dropped. Skipped lines never fail the batch.
type Skipped struct {
	Line   int
	Reason string
}

// ParseCSV splits content into a header line and data lines, zipping each
// data line positionally against the header. A short or long line yields
// missing fields, not an error; lines missing date or usage are reported as
// skipped. Header-only content yields zero rows and zero skips.
//
// The split is a plain comma split on purpose: the upload format has no
// quoting or escaping, and this matches how files have always been parsed.
func ParseCSV(content string) ([]Row, []Skipped) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, nil
	}

	headers := splitFields(lines[0])
	var rows []Row
	var skipped []Skipped

	for i, line := range lines[1:] {
		lineNo := i + 2 // 1-based, after the header
		values := splitFields(line)
		fields := map[string]string{}
		for j, h := range headers {
			if j < len(values) {
				fields[h] = values[j]
			}
		}

		row := Row{
			Line:      lineNo,
			Date:      fields[colDate],
			Usage:     fields[colUsage],
			Timestamp: fields[colTimestamp],
		}
		switch {
		case row.Date == "" && row.Usage == "":
			skipped = append(skipped, Skipped{Line: lineNo, Reason: "missing date and usage"})
		case row.Date == "":
			skipped = append(skipped, Skipped{Line: lineNo, Reason: "missing date"})
		case row.Usage == "":
			skipped = append(skipped, Skipped{Line: lineNo, Reason: "missing usage"})
		default:
			rows = append(rows, row)
		}
	}
	return rows, skipped
}

func splitFields(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// DeriveUserID extracts the owning user id from an object key: everything
// before the first `_` or `-`. Keys with no delimiter (or an empty prefix)
// map to the fallback id rather than failing the batch. User ids that
// themselves contain `_` or `-` are truncated at the first delimiter.
func DeriveUserID(key string) string {
	i := strings.IndexAny(key, "_-")
	if i <= 0 {
		return claims.FallbackUserID
	}
	return key[:i]
}

// objectName strips any path prefix from the key so user-id derivation sees
// only the file name.
func objectName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}
