package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidJSON is returned when a JSON payload cannot be decoded.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrUnknownShape is returned when a JSON payload is none of the accepted shapes.
	ErrUnknownShape = errors.New("unrecognized JSON import shape")
	// ErrUnknownFormat is returned for formats other than csv and json.
	ErrUnknownFormat = errors.New("unknown import format")
)

// Supported import formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Shape identifies which JSON layout a payload used.
type Shape string

const (
	// ShapeCSV marks results parsed from CSV.
	ShapeCSV Shape = "csv"
	// ShapeArray is a top level array of records.
	ShapeArray Shape = "array"
	// ShapeEnvelope is an object with a rentalCompanies array.
	ShapeEnvelope Shape = "envelope"
	// ShapeKeyed is an object whose values are records with K ids.
	ShapeKeyed Shape = "keyed"
)

// InventoryLine is one raw, unresolved inventory reference.
type InventoryLine struct {
	ProductID        string `json:"productId" validate:"required,product_id"`
	ProductName      string `json:"productName,omitempty"`
	ManufacturerName string `json:"manufacturerName,omitempty"`
	Quantity         int    `json:"quantity" validate:"gt=0"`
}

// Record is one rental company as read from an import payload.
type Record struct {
	ID         string          `json:"id" validate:"required,company_id"`
	Name       string          `json:"name" validate:"required"`
	Address    string          `json:"address" validate:"required"`
	City       string          `json:"city" validate:"required"`
	Country    string          `json:"country" validate:"required,len=2,alpha"`
	PostalCode string          `json:"postalCode" validate:"required"`
	Website    string          `json:"website,omitempty"`
	Phone      string          `json:"phone,omitempty"`
	Email      string          `json:"email,omitempty"`
	IsActive   *bool           `json:"isActive,omitempty"`
	Inventory  []InventoryLine `json:"inventory" validate:"required,min=1,dive"`
}

// Warning describes an input line or value that was skipped.
type Warning struct {
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// String formats the warning for logs and API responses.
func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// Result is the parsed payload together with the skipped lines.
type Result struct {
	Shape    Shape     `json:"shape"`
	Records  []Record  `json:"records"`
	Warnings []Warning `json:"warnings"`
}

func (r *Result) warn(line int, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Line: line, Message: fmt.Sprintf(format, args...)})
}

// WarningStrings returns the warnings formatted with String.
func (r *Result) WarningStrings() []string {
	out := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.String()
	}
	return out
}

// Parse dispatches on format.
func Parse(format string, data []byte) (*Result, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return ParseCSV(strings.NewReader(string(data)))
	case FormatJSON:
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// DetectFormat guesses the format from a file name.
func DetectFormat(name string) (string, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV, true
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON, true
	default:
		return "", false
	}
}
