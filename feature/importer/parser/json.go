package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"rental-directory/core/utils"
)

const envelopeKey = "rentalCompanies"

// ParseJSON accepts exactly three shapes:
//
//	[ {record}, ... ]                          ShapeArray
//	{ "rentalCompanies": [ {record}, ... ] }   ShapeEnvelope
//	{ "anyKey": {record with K id}, ... }      ShapeKeyed
//
// Anything else is ErrUnknownShape. Numbers and flags may be given as
// numbers or strings.
func ParseJSON(data []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidJSON)
	}

	result := &Result{Records: []Record{}, Warnings: []Warning{}}

	switch trimmed[0] {
	case '[':
		raws, err := decodeArray(trimmed)
		if err != nil {
			return nil, err
		}
		result.Shape = ShapeArray
		result.addRecords(raws)
		return result, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if env, ok := obj[envelopeKey]; ok {
			raws, err := decodeArray(bytes.TrimSpace(env))
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be an array", ErrUnknownShape, envelopeKey)
			}
			result.Shape = ShapeEnvelope
			result.addRecords(raws)
			return result, nil
		}
		if err := result.addKeyed(obj); err != nil {
			return nil, err
		}
		return result, nil
	default:
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: unexpected character %q", ErrInvalidJSON, trimmed[0])
		}
		return nil, fmt.Errorf("%w: top level value must be an array or object", ErrUnknownShape)
	}
}

func decodeArray(data []byte) ([]map[string]any, error) {
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: expected array", ErrUnknownShape)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	out := make([]map[string]any, 0, len(raws))
	for i, raw := range raws {
		obj, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrUnknownShape, i)
		}
		out = append(out, obj)
	}
	return out, nil
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("null object")
	}
	return obj, nil
}

func (r *Result) addRecords(objs []map[string]any) {
	for _, obj := range objs {
		r.Records = append(r.Records, r.toRecord(obj))
	}
}

// addKeyed collects the values that look like company records, in key order.
func (r *Result) addKeyed(obj map[string]json.RawMessage) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		value, err := decodeObject(obj[k])
		if err != nil {
			r.warn(0, "ignored key %q: not a company record", k)
			continue
		}
		if !strings.HasPrefix(utils.ToString(value["id"]), "K") {
			r.warn(0, "ignored key %q: id does not start with K", k)
			continue
		}
		r.Records = append(r.Records, r.toRecord(value))
	}

	if len(r.Records) == 0 {
		return fmt.Errorf("%w: object has no %s array and no company records", ErrUnknownShape, envelopeKey)
	}
	r.Shape = ShapeKeyed
	return nil
}

func (r *Result) toRecord(obj map[string]any) Record {
	rec := Record{
		ID:         str(obj["id"]),
		Name:       str(obj["name"]),
		Address:    str(obj["address"]),
		City:       str(obj["city"]),
		Country:    str(obj["country"]),
		PostalCode: str(obj["postalCode"]),
		Website:    str(obj["website"]),
		Phone:      str(obj["phone"]),
		Email:      str(obj["email"]),
		Inventory:  []InventoryLine{},
	}
	if v, ok := obj["isActive"]; ok && v != nil {
		active := utils.ToBool(v, true)
		rec.IsActive = &active
	}

	lines, _ := obj["inventory"].([]any)
	for i, l := range lines {
		line, ok := l.(map[string]any)
		if !ok {
			r.warn(0, "company %q: ignored inventory entry %d: not an object", rec.ID, i+1)
			continue
		}
		// Non-integral quantities stay 0 and fail validation.
		quantity, _ := utils.ToInt(line["quantity"])
		rec.Inventory = append(rec.Inventory, InventoryLine{
			ProductID:        str(line["productId"]),
			ProductName:      str(line["productName"]),
			ManufacturerName: str(line["manufacturerName"]),
			Quantity:         quantity,
		})
	}
	return rec
}

func str(v any) string {
	return strings.TrimSpace(utils.ToString(v))
}
