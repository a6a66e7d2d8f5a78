package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	nonstandard "github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/payments-service/pkg/errors"
)

const validationPrefix = "Validation failed: "

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	// Lets numeric tags such as gt=0 apply to money fields.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("notblank", nonstandard.NotBlank)
	_ = v.RegisterValidation("cents", maxTwoDecimals)
	_ = v.RegisterValidation("currency", currencyCode)
	return v
}

// maxTwoDecimals rejects amounts that a numeric(10,2) column would round.
// Money fields reach it as float64 through the decimal type func.
func maxTwoDecimals(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		d := decimal.NewFromFloat(field.Float())
		return d.Equal(d.Round(2))
	}
	return true
}

// currencyCode accepts an empty value or a code of at most 3 characters once
// surrounding spaces are trimmed.
func currencyCode(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) <= 3
}

// DecodeOption tweaks body decoding.
type DecodeOption func(*json.Decoder)

// DisallowUnknownFields rejects properties dest does not declare. Bodies are
// lenient by default so clients may send extra fields.
func DisallowUnknownFields() DecodeOption {
	return func(d *json.Decoder) { d.DisallowUnknownFields() }
}

// DecodeJSONBody decodes a single JSON object into dest and runs struct
// validation. Unknown properties are ignored unless DisallowUnknownFields is
// passed. Failures carry CodeValidation and a message of the form
// "Validation failed: <field> <reason>; ...".
func DecodeJSONBody(r *http.Request, dest any, opts ...DecodeOption) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	for _, opt := range opts {
		opt(decoder)
	}
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, validationPrefix+"invalid request body").
			WithDetails(map[string]any{"error": err.Error()})
	}
	if decoder.More() {
		return pkgerrors.New(pkgerrors.CodeValidation, validationPrefix+"request body must contain a single JSON object")
	}
	return Struct(dest)
}

// Struct validates dest against its validate tags.
func Struct(dest any) error {
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, validationPrefix+err.Error())
	}
	details := map[string]string{}
	parts := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		msg := validationMessage(fieldErr)
		details[fieldErr.Field()] = msg
		parts = append(parts, fieldErr.Field()+" "+msg)
	}
	sort.Strings(parts)
	return pkgerrors.New(pkgerrors.CodeValidation, validationPrefix+strings.Join(parts, "; ")).WithDetails(details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "cents":
		return "must have at most 2 decimal places"
	case "currency":
		return "must be at most 3 characters"
	}
	return "is invalid"
}
