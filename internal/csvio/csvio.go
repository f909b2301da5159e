// Package csvio moves directory records in and out of CSV files.
package csvio

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"advocatehub/pkg/models"
)

// Header is the column layout written by WriteAdvocates.
var Header = []string{
	"id", "firstName", "lastName", "city", "degree",
	"specialties", "yearsOfExperience", "phoneNumber",
}

// ReadRecords turns every data row into a raw record keyed by the header
// names exactly as written, so both camelCase and snake_case files work.
// Empty cells are left out of the record.
func ReadRecords(r io.Reader) ([]models.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv has no header row")
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var out []models.RawRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec := make(models.RawRecord, len(header))
		for i, name := range header {
			if name == "" || i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				rec[name] = v
			}
		}
		if len(rec) == 0 {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteAdvocates writes records under Header. Specialties are written as a
// JSON array so entries containing commas survive a round trip.
func WriteAdvocates(w io.Writer, records []models.Advocate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	for _, a := range records {
		specs, err := encodeSpecialties(a.Specialties)
		if err != nil {
			return fmt.Errorf("encode specialties for %s: %w", a.ID, err)
		}
		if err := cw.Write([]string{
			a.ID,
			a.FirstName,
			a.LastName,
			a.City,
			a.Degree,
			specs,
			a.YearsOfExperience,
			a.PhoneNumber,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func encodeSpecialties(specs []string) (string, error) {
	if specs == nil {
		specs = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(specs); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
