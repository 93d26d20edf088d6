package contact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var exportHeader = []string{"name", "phone", "email", "tags"}

// ImportRow is one parsed CSV line.
type ImportRow struct {
	Name  string   `json:"name"`
	Phone string   `json:"phone"`
	Email *string  `json:"email"`
	Tags  []string `json:"tags"`
}

// RowError reports a CSV line by its 1-based line number, the header being line 1.
type RowError struct {
	Row     int       `json:"row"`
	Contact ImportRow `json:"contact"`
	Errors  []string  `json:"errors"`
}

var errEmptyCSV = errors.New("csv has no header row")

// ParseCSV reads a contacts CSV. Header names are case-insensitive and values are trimmed.
// Rows without a name or phone are returned as RowErrors alongside the valid rows.
func ParseCSV(r io.Reader) ([]ImportRow, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errEmptyCSV
		}
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	get := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var (
		rows    []ImportRow
		invalid []RowError
		line    = 1
		// rows are numbered as in a spreadsheet, header first, blank lines not counted
		row = 1
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv line %d: %w", line+1, err)
		}
		line++
		if blank(record) {
			continue
		}
		row++

		parsed := ImportRow{
			Name:  get(record, "name"),
			Phone: get(record, "phone"),
			Tags:  SplitTags(get(record, "tags")),
		}
		if email := get(record, "email"); email != "" {
			parsed.Email = &email
		}

		var problems []string
		if parsed.Name == "" {
			problems = append(problems, "Name is required")
		}
		if parsed.Phone == "" {
			problems = append(problems, "Phone is required")
		}
		if len(problems) > 0 {
			invalid = append(invalid, RowError{Row: row, Contact: parsed, Errors: problems})
			continue
		}
		rows = append(rows, parsed)
	}
	return rows, invalid, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes the export format: name,phone,email,tags with tags comma-joined.
func WriteCSV(w io.Writer, contacts []*Contact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, c := range contacts {
		email := ""
		if c.Email != nil {
			email = *c.Email
		}
		if err := cw.Write([]string{c.Name, c.Phone, email, strings.Join(c.Tags, ",")}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
