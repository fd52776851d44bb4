package validation

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	goerrors "github.com/goliatone/go-errors"

	"github.com/PratikDhanave/sms-webhook-inbox/internal/models"
)

// Text codes carried by the errors Parse returns.
const (
	// TextCodeMalformedJSON marks a body that is not valid JSON.
	TextCodeMalformedJSON = "MALFORMED_JSON"
	// TextCodeSchemaViolation marks a JSON body that fails field checks.
	TextCodeSchemaViolation = "SCHEMA_VIOLATION"
)

// msisdnPattern is E.164-like: a leading + followed by digits only.
var msisdnPattern = regexp.MustCompile(`^\+\d+$`)

// fieldOrder fixes the order violations are reported in.
var fieldOrder = []string{"message_id", "from", "to", "ts", "text"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report violations under wire names (from, not From).
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
		return msisdnPattern.MatchString(fl.Field().String())
	})
	return v
}

// Parse decodes and validates a webhook body. Every violation found is
// returned in a single SCHEMA_VIOLATION error; undecodable input yields
// MALFORMED_JSON.
func Parse(rawBody []byte) (models.Message, error) {
	var doc any
	if err := sonic.ConfigStd.Unmarshal(rawBody, &doc); err != nil {
		return models.Message{}, malformedJSON()
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return models.Message{}, schemaViolation([]goerrors.FieldError{{
			Field:   "",
			Message: "body must be a JSON object",
		}})
	}

	var payload models.WebhookPayload
	found := map[string]string{}

	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"message_id", &payload.MessageID},
		{"from", &payload.From},
		{"to", &payload.To},
		{"ts", &payload.TS},
	} {
		raw, present := obj[field.name]
		if !present || raw == nil {
			found[field.name] = "field required"
			continue
		}
		s, isString := raw.(string)
		if !isString {
			found[field.name] = "must be a string"
			continue
		}
		*field.dst = s
	}

	if raw, present := obj["text"]; present && raw != nil {
		if s, isString := raw.(string); isString {
			payload.Text = &s
		} else {
			found["text"] = "must be a string"
		}
	}

	if err := validate.Struct(payload); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return models.Message{}, err
		}
		for _, fe := range fieldErrs {
			if _, seen := found[fe.Field()]; seen {
				continue
			}
			found[fe.Field()] = describe(fe)
		}
	}

	if len(found) > 0 {
		out := make([]goerrors.FieldError, 0, len(found))
		for _, name := range fieldOrder {
			if msg, ok := found[name]; ok {
				out = append(out, goerrors.FieldError{Field: name, Message: msg})
			}
		}
		return models.Message{}, schemaViolation(out)
	}

	return payload.Message(), nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "msisdn":
		return "must be in E.164 format (e.g. +1234567890)"
	case "endswith":
		return "timestamp must be UTC and end with Z"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func malformedJSON() error {
	return goerrors.NewValidation("validation: malformed JSON", goerrors.FieldError{
		Field:   "",
		Message: "invalid JSON",
	}).
		WithCode(http.StatusUnprocessableEntity).
		WithTextCode(TextCodeMalformedJSON)
}

func schemaViolation(fields []goerrors.FieldError) error {
	return goerrors.NewValidation("validation: schema violation", fields...).
		WithCode(http.StatusUnprocessableEntity).
		WithTextCode(TextCodeSchemaViolation)
}

// Violations returns the field errors carried by a Parse error, or nil when
// err did not come from Parse.
func Violations(err error) []goerrors.FieldError {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryValidation {
		return nil
	}
	return rich.AllValidationErrors()
}

// IsMalformedJSON reports whether err is a MALFORMED_JSON Parse error.
func IsMalformedJSON(err error) bool {
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode == TextCodeMalformedJSON
}

// ToDetail renders field errors as the 422 detail list. An empty field name
// refers to the body as a whole.
func ToDetail(fields []goerrors.FieldError) []models.Violation {
	out := make([]models.Violation, 0, len(fields))
	for _, f := range fields {
		loc := []string{"body"}
		if f.Field != "" {
			loc = append(loc, f.Field)
		}
		out = append(out, models.Violation{Loc: loc, Msg: f.Message})
	}
	return out
}
