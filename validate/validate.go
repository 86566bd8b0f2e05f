// Package validate checks request data with go-playground/validator and
// reports failures as *arus.ValidationError, which the dispatcher renders
// as 422 responses.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ryanbekhen/arus"
)

// Validator wraps a validator instance configured to report fields by their
// json names.
type Validator struct {
	Instance *validator.Validate
}

// New returns a Validator that names fields by their json tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return &Validator{Instance: v}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

var std = New()

// Struct validates v with the package default Validator.
func Struct(v any) error {
	return std.Struct(v)
}

// Validate checks data against rules with the package default Validator.
func Validate(data map[string]any, rules map[string]any) (bool, map[string]any, map[string][]string) {
	return std.Validate(data, rules)
}

// BindJSON decodes and validates with the package default Validator.
func BindJSON(c *arus.Ctx, dst any) error {
	return std.BindJSON(c, dst)
}

// Struct validates a struct. Field failures are returned as a
// *arus.ValidationError keyed by field path.
func (v *Validator) Struct(s any) error {
	err := v.Instance.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := arus.NewValidationError(nil)
	for _, fe := range fieldErrs {
		verr.Add(fieldPath(fe.Namespace()), Message(fe))
	}
	return verr
}

// Validate checks data against rules, keyed by field name. It reports
// whether data is valid, the subset of data named by rules, and the
// messages of every failed field.
func (v *Validator) Validate(data map[string]any, rules map[string]any) (bool, map[string]any, map[string][]string) {
	sanitized := make(map[string]any, len(rules))
	for field := range rules {
		if value, ok := data[field]; ok {
			sanitized[field] = value
		}
	}

	failures := map[string][]string{}
	collectMapErrors("", v.Instance.ValidateMap(data, rules), failures)
	return len(failures) == 0, sanitized, failures
}

func collectMapErrors(prefix string, errs map[string]any, out map[string][]string) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		switch e := errs[k].(type) {
		case map[string]any:
			collectMapErrors(name, e, out)
		case validator.ValidationErrors:
			for _, fe := range e {
				out[name] = append(out[name], Message(fe))
			}
		case error:
			out[name] = append(out[name], e.Error())
		}
	}
}

// BindJSON decodes the request body into dst and validates it. A malformed
// body yields a 400 *arus.HttpError, a rule violation a
// *arus.ValidationError.
func (v *Validator) BindJSON(c *arus.Ctx, dst any) error {
	if err := c.Request.BindJSON(dst); err != nil {
		return err
	}
	return v.Struct(dst)
}

// fieldPath drops the root struct name from a namespace, so that
// "User.address.city" reads "address.city".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// Message renders a readable message for a single field failure.
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min":
		if isSized(fe.Kind()) {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if isSized(fe.Kind()) {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "alpha":
		return "must contain only letters"
	case "alphanum":
		return "must contain only letters and numbers"
	case "numeric", "number":
		return "must be numeric"
	case "eqfield":
		return "must match " + fe.Param()
	}
	if fe.Param() != "" {
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
	return "failed " + fe.Tag()
}

func isSized(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Map || k == reflect.Array
}
