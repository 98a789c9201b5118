// Package export serializes flat records to comma-separated text.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "crmcal/internal/log"
	"crmcal/internal/model"
)

const (
	// DefaultFilename is the download name for the events export, without
	// extension.
	DefaultFilename = "calendar-events"

	// ContentType is the MIME type of the produced text.
	ContentType = "text/csv; charset=utf-8"

	delimiter     = ","
	listDelimiter = "; "
	lineBreak     = "\n"

	// isoLayout matches the millisecond UTC form browsers emit for ISO-8601.
	isoLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Field is one named value of a Record.
type Field struct {
	Name  string
	Value any
}

// Record is an ordered set of fields; order decides column order.
type Record []Field

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Encode renders records as CSV text. The header comes from the first
// record's field names; later records are matched by name and missing fields
// are left empty. Strings are quoted with inner quotes doubled, string slices
// are joined with "; " into one quoted field, and other values are printed
// as-is. An empty input produces nothing.
func Encode(w io.Writer, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	headers := make([]string, len(records[0]))
	for i, f := range records[0] {
		headers[i] = f.Name
	}

	var b strings.Builder
	b.WriteString(strings.Join(headers, delimiter))

	cols := make([]string, len(headers))
	for _, rec := range records {
		for i, h := range headers {
			v, _ := rec.Get(h)
			cols[i] = formatValue(v)
		}
		b.WriteString(lineBreak)
		b.WriteString(strings.Join(cols, delimiter))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Bytes is Encode into memory. It returns nil for an empty input.
func Bytes(records []Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes records to dir/name(.csv) and returns the path written.
// An empty input is a no-op and returns an empty path.
func WriteFile(dir, name string, records []Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	if dir == "" {
		return "", errors.New("export: directory is empty")
	}

	data, err := Bytes(records)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	path := filepath.Join(dir, Filename(name))
	tmp, err := os.CreateTemp(dir, ".crmcal-export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	appLog.Info("export written", "path", path, "rows", len(records))
	return path, nil
}

// Filename appends .csv unless already present; empty means DefaultFilename.
func Filename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultFilename
	}
	if strings.HasSuffix(strings.ToLower(name), ".csv") {
		return name
	}
	return name + ".csv"
}

// EventRecords maps events to the Title, Description, Start, End, Type
// columns of the calendar export.
func EventRecords(events []model.CalendarEvent) []Record {
	out := make([]Record, 0, len(events))
	for _, ev := range events {
		out = append(out, Record{
			{Name: "Title", Value: ev.Title},
			{Name: "Description", Value: ev.Description},
			{Name: "Start", Value: FormatInstant(ev.Start)},
			{Name: "End", Value: FormatInstant(ev.End)},
			{Name: "Type", Value: string(ev.Type)},
		})
	}
	return out
}

// FormatInstant renders t as an ISO-8601 UTC instant with milliseconds.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return quote(x)
	case []string:
		return quote(strings.Join(x, listDelimiter))
	case []any:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = fmt.Sprint(p)
		}
		return quote(strings.Join(parts, listDelimiter))
	case fmt.Stringer:
		return quote(x.String())
	default:
		return fmt.Sprint(x)
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
