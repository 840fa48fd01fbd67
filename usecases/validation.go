package usecases

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(JSONFieldName)
	return v
}

// JSONFieldName reports a struct field by its json name so errors read the
// same way the request body does.
func JSONFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned before the repositories are reached.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

// DescribeValidation turns validator output into field errors. Anything that
// is not a validator.ValidationErrors yields nil.
func DescribeValidation(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: ruleMessage(fe.Tag(), fe.Param())})
	}
	return out
}

func ruleMessage(tag, param string) string {
	switch tag {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", param)
	case "min":
		return fmt.Sprintf("must be at least %s characters", param)
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "url":
		return "must be a valid URL"
	case "datetime":
		return "must be a date formatted as " + param
	}
	return fmt.Sprintf("failed on the '%s' rule", tag)
}

// check validates a single value and records a field error when it fails.
func check(fields []FieldError, name string, value interface{}, rules string) []FieldError {
	if err := validate.Var(value, rules); err != nil {
		for _, fe := range DescribeValidation(err) {
			fields = append(fields, FieldError{Field: name, Message: fe.Message})
		}
	}
	return fields
}

func validationResult(fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
