package services

import (
	"errors"
	"reflect"
	"strings"

	"contact-intake/db"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports a submission rejected before any storage access.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return e.Fields[0] + " is required"
	}
	return strings.Join(e.Fields, " and ") + " are required"
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range fieldErrs {
		ve.Fields = append(ve.Fields, fe.Field())
	}
	return ve
}

// DescribeStorageError turns a storage failure into a message that is safe
// to show to the submitter.
func DescribeStorageError(err error) string {
	switch db.KindOf(err) {
	case db.KindValueTooLong:
		return "One or more fields exceed the maximum allowed length"
	case db.KindUniqueViolation:
		return "A record with this information already exists"
	case db.KindNotNullViolation:
		return "A required field is missing"
	default:
		return "Failed to save contact"
	}
}
