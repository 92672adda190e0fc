// Package forms holds the request forms, their validation rules and the
// field configuration the UI renders them from.
package forms

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"medicare/utils"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field to the message shown under it.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// normalizer is implemented by forms that clean their input before validation.
type normalizer interface {
	Normalize()
}

// messenger supplies per-form messages keyed by "field.tag".
type messenger interface {
	Messages() map[string]string
}

type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("has_upper", containsRune(unicode.IsUpper))
	_ = v.RegisterValidation("has_lower", containsRune(unicode.IsLower))
	_ = v.RegisterValidation("has_digit", containsRune(unicode.IsDigit))
	_ = v.RegisterValidation("has_special", containsRune(func(r rune) bool {
		return !(r >= 'A' && r <= 'Z') && !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	}))
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := utils.ParseClock(fl.Field().String())
		return err == nil
	})

	return &Validator{v: v}
}

func containsRune(pred func(rune) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), pred) >= 0
	}
}

// Validate normalizes form and checks it. Failures come back as FieldErrors.
func (v *Validator) Validate(form any) error {
	if n, ok := form.(normalizer); ok {
		n.Normalize()
	}

	err := v.v.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	var msgs map[string]string
	if m, ok := form.(messenger); ok {
		msgs = m.Messages()
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		if msg, ok := msgs[field+"."+fe.Tag()]; ok {
			out[field] = msg
			continue
		}
		out[field] = "Invalid value"
	}
	return out
}
