package reconcile

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"rental-directory/core/ids"
	"rental-directory/feature/importer/parser"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names, e.g. inventory[0].productId.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("company_id", func(fl validator.FieldLevel) bool {
		return ids.ValidateRentalCompanyID(fl.Field().String())
	})
	_ = v.RegisterValidation("product_id", func(fl validator.FieldLevel) bool {
		return ids.ValidateProductID(ids.NormalizeProductID(fl.Field().String()))
	})
	return v
}

// validateRecords returns every problem found in records. An empty result
// means the batch may proceed.
func (r *Reconciler) validateRecords(records []parser.Record) []string {
	if len(records) == 0 {
		return []string{"no rental companies found in import data"}
	}

	var problems []string
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		label := fmt.Sprintf("record %d (%s)", i+1, displayID(rec.ID))

		if err := r.validate.Struct(rec); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				problems = append(problems, fmt.Sprintf("%s: %v", label, err))
				continue
			}
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s: %s %s", label, fieldPath(fe), describe(fe)))
			}
		}

		if rec.ID != "" {
			if first, dup := seen[rec.ID]; dup {
				problems = append(problems, fmt.Sprintf("%s: duplicate company id, first seen in record %d", label, first))
			} else {
				seen[rec.ID] = i + 1
			}
		}
	}
	return problems
}

// fieldPath strips the struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "company_id":
		return fmt.Sprintf("%q must be K followed by at least 4 digits", fe.Value())
	case "product_id":
		return fmt.Sprintf("%q is not a valid product id", fe.Value())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "alpha":
		return "must contain only letters"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func displayID(id string) string {
	if id == "" {
		return "no id"
	}
	return id
}
