package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/authkit/errors"
)

// detailFields is the AppError detail key holding []FieldError.
const detailFields = "fields"

// FieldError is one failed rule, named by the field's wire name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validatorInstance = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(wireName)
	return v
})

// wireName prefers the json tag, then mapstructure, then snake_case.
func wireName(f reflect.StructField) string {
	for _, key := range []string{"json", "mapstructure"} {
		if name, _, _ := strings.Cut(f.Tag.Get(key), ","); name != "" && name != "-" {
			return name
		}
	}
	return toSnakeCase(f.Name)
}

// Validate checks s against its `validate` tags. A failure is an
// *errors.AppError with code INVALID_INPUT whose message lists every field,
// e.g. "email: is required; password: must be at least 8 characters".
func Validate(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Validation("validation failed").WithCause(err)
	}

	fields := make([]FieldError, len(verrs))
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: fe.Field(), Message: describe(fe)}
		parts[i] = fields[i].Field + ": " + fields[i].Message
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail(detailFields, fields)
}

// Fields returns the per-field failures carried by an error from Validate.
func Fields(err error) []FieldError {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return nil
	}
	fields, _ := appErr.Details[detailFields].([]FieldError)
	return fields
}

var messages = map[string]string{
	"required":      "is required",
	"email":         "must be a valid email address",
	"url":           "must be a valid URL",
	"http_url":      "must be a valid URL",
	"hostname_port": "must be host:port",
}

func describe(fe validator.FieldError) string {
	if msg, ok := messages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "eqfield":
		return "must match " + toSnakeCase(fe.Param())
	}
	return "is invalid"
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
