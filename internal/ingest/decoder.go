// Package ingest decodes symptom tracker CSV exports into records.
//
// The export has one row per logged item:
//
//	date,weekday,time of day,category,rating/amount,detail,notes
//	"8th Dec 2021","Wednesday","mid","Symptom","2","Neck pain (Moderate)",""
//
// Only rows whose category equals the configured marker (Symptom by
// default) are turned into records; all other rows are dropped.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/rewired-gh/symptomscope/internal/logger"
	"github.com/rewired-gh/symptomscope/internal/models"
)

// DefaultSymptomCategory is the marker category of symptom rows.
const DefaultSymptomCategory = "Symptom"

// Column names of the export header.
const (
	ColumnDate      = "date"
	ColumnWeekday   = "weekday"
	ColumnTimeOfDay = "time of day"
	ColumnCategory  = "category"
	ColumnAmount    = "rating/amount"
	ColumnDetail    = "detail"
	ColumnNotes     = "notes"
)

var requiredColumns = []string{ColumnDate, ColumnTimeOfDay, ColumnCategory, ColumnAmount, ColumnDetail}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// RowError reports a malformed row. Line is 1-based and counts the header.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Row is one raw export row with its date already parsed.
type Row struct {
	Line      int
	Date      time.Time
	Weekday   string
	TimeOfDay string
	Category  string
	Amount    string
	Detail    string
	Notes     string
}

// Decoder turns export text into records
type Decoder struct {
	symptomCategory string
}

// NewDecoder creates a decoder keeping rows of the given marker category.
// An empty marker selects DefaultSymptomCategory.
func NewDecoder(symptomCategory string) *Decoder {
	if symptomCategory == "" {
		symptomCategory = DefaultSymptomCategory
	}
	return &Decoder{symptomCategory: symptomCategory}
}

// IsSymptom reports whether a row carries the symptom marker category.
func (d *Decoder) IsSymptom(row Row) bool {
	return strings.EqualFold(strings.TrimSpace(row.Category), d.symptomCategory)
}

// DecodeRows reads every row of the export. Any malformed row aborts the read.
func (d *Decoder) DecodeRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	field := func(fields []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	var rows []Row
	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}

		date, err := ParseDate(field(fields, ColumnDate))
		if err != nil {
			return nil, &RowError{Line: line, Column: ColumnDate, Err: err}
		}

		rows = append(rows, Row{
			Line:      line,
			Date:      date,
			Weekday:   field(fields, ColumnWeekday),
			TimeOfDay: field(fields, ColumnTimeOfDay),
			Category:  field(fields, ColumnCategory),
			Amount:    field(fields, ColumnAmount),
			Detail:    field(fields, ColumnDetail),
			Notes:     field(fields, ColumnNotes),
		})
	}

	return rows, nil
}

// Decode reads an export and returns the records of all symptom rows.
// The day-part token is carried through unchecked; span derivation at
// build time rejects unknown tokens.
func (d *Decoder) Decode(r io.Reader) ([]models.Record, error) {
	rows, err := d.DecodeRows(r)
	if err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		if !d.IsSymptom(row) {
			dropped++
			continue
		}

		severity, err := ParseSeverity(row.Amount)
		if err != nil {
			return nil, &RowError{Line: row.Line, Column: ColumnAmount, Err: err}
		}

		name := ParseSymptomName(row.Detail)
		if name == "" {
			return nil, &RowError{Line: row.Line, Column: ColumnDetail, Err: errors.New("symptom name must not be empty")}
		}

		records = append(records, models.Record{
			ID:       uuid.New().String(),
			Category: name,
			Date:     row.Date,
			DayPart:  models.DayPart(strings.ToLower(row.TimeOfDay)),
			Severity: severity,
			Label:    row.Detail,
		})
	}

	logger.Debug("Decoded %d rows: %d symptom records, %d other rows dropped", len(rows), len(records), dropped)
	return records, nil
}

var ordinalSuffix = regexp.MustCompile(`^(\d{1,2})(st|nd|rd|th)\b`)

// ParseDate parses export dates such as "8th Dec 2021" or "22nd Jan 2022".
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	plain := ordinalSuffix.ReplaceAllString(s, "$1")
	for _, layout := range []string{"2 Jan 2006", "2 January 2006", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, plain, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseSeverity parses a decimal rating in 0..255. Leading zeros are
// allowed and base prefixes such as 0x are not.
func ParseSeverity(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	digits := strings.TrimPrefix(s, "+")
	if digits == "" {
		return 0, errors.New("severity must not be empty")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid severity %q: not a decimal integer", s)
		}
	}

	// cast treats a leading 0 as an octal prefix
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}
	if len(digits) > 3 {
		return 0, fmt.Errorf("severity %s out of range 0..255", s)
	}
	v, err := cast.ToIntE(digits)
	if err != nil {
		return 0, fmt.Errorf("invalid severity %q: %w", s, err)
	}
	if v > 255 {
		return 0, fmt.Errorf("severity %d out of range 0..255", v)
	}
	return uint8(v), nil
}

var severitySuffix = regexp.MustCompile(`^(.*?)\s*\((Mild|Moderate|Severe|Unbearable)\)\s*$`)

// ParseSymptomName strips the trailing "(Mild)", "(Moderate)", "(Severe)"
// or "(Unbearable)" from a detail. Details without one are returned trimmed.
func ParseSymptomName(detail string) string {
	detail = strings.TrimSpace(detail)
	if m := severitySuffix.FindStringSubmatch(detail); m != nil {
		return strings.TrimSpace(m[1])
	}
	return detail
}
