package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps every JSON body; rows and goal maps stay far below it.
const MaxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports fields by their json names so error details match
// what the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]; tag != "" && tag != "-" {
			return tag
		}
		return f.Name
	})
	return v
}

// DecodeJSONBody decodes a JSON object into dest, rejecting unknown fields,
// and runs struct validation.
func DecodeJSONBody(r *http.Request, dest any) error {
	if err := decode(r, dest, true); err != nil {
		return err
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// DecodeJSONMap decodes a free-form JSON object, such as a sheet row.
func DecodeJSONMap(r *http.Request) (map[string]any, error) {
	var out map[string]any
	if err := decode(r, &out, false); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request body must be a JSON object")
	}
	return out, nil
}

func decode(r *http.Request, dest any, strict bool) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()
	dec := json.NewDecoder(body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dest); err != nil {
		return bodyError(err)
	}
	if dec.More() {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body must hold a single JSON value")
	}
	return nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large").
			WithDetails(map[string]any{"limit": tooLarge.Limit})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
		WithDetails(map[string]any{"error": err.Error()})
}

func formatValidationErrors(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return "is invalid"
}
