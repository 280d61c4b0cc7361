package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"rental-directory/core/utils"
)

const (
	minCompanyFields = 7
	minProductFields = 4
)

// ParseCSV reads the line-oriented company/product format:
//
//	K1234, Acme, Main St 1, Berlin, DE, 12345, website, phone, email
//	559-1065-2012, Green-GO MCXEXT, Green-GO, 15
//
// A line whose first field starts with K and has at least 7 fields opens a
// company; following lines with at least 4 fields are its inventory. Lines
// that fit neither rule are skipped and reported as warnings. Only read
// failures are returned as errors.
func ParseCSV(r io.Reader) (*Result, error) {
	br := bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	result := &Result{Shape: ShapeCSV, Records: []Record{}, Warnings: []Warning{}}
	var current *Record

	flush := func() {
		if current != nil {
			result.Records = append(result.Records, *current)
			current = nil
		}
	}

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.warn(parseErr.StartLine, "unreadable line: %v", parseErr.Err)
				continue
			}
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		line, _ := reader.FieldPos(0)
		fields = cleanFields(fields)
		if isBlank(fields) {
			continue
		}

		switch {
		case strings.HasPrefix(fields[0], "K") && len(fields) >= minCompanyFields:
			flush()
			current = &Record{
				ID:         fields[0],
				Name:       fields[1],
				Address:    fields[2],
				City:       fields[3],
				Country:    fields[4],
				PostalCode: fields[5],
				Website:    field(fields, 6),
				Phone:      field(fields, 7),
				Email:      field(fields, 8),
				Inventory:  []InventoryLine{},
			}
		case len(fields) >= minProductFields && current == nil:
			result.warn(line, "product line %q without a preceding company line", fields[0])
		case len(fields) >= minProductFields:
			quantity, ok := utils.ToInt(fields[3])
			if !ok || quantity <= 0 {
				result.warn(line, "invalid quantity %q for product %s", fields[3], fields[0])
				continue
			}
			current.Inventory = append(current.Inventory, InventoryLine{
				ProductID:        fields[0],
				ProductName:      fields[1],
				ManufacturerName: fields[2],
				Quantity:         quantity,
			})
		default:
			result.warn(line, "expected at least %d fields, got %d", minProductFields, len(fields))
		}
	}
	flush()

	return result, nil
}

// cleanFields trims whitespace and stray wrapping quotes.
func cleanFields(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		f = strings.Trim(f, `"'`)
		out[i] = strings.TrimSpace(f)
	}
	return out
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}
