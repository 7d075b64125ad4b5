// Package validator checks decoded request models against their `validate`
// struct tags and reports failures per JSON field.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// UIColors is the palette a space, status or tag color is chosen from.
var UIColors = []string{
	"bronze", "gold", "brown", "orange", "tomato", "red", "ruby", "crimson", "pink", "plum",
	"purple", "violet", "iris", "indigo", "blue", "cyan", "teal", "jade", "green", "grass",
}

func IsUIColor(s string) bool {
	for _, c := range UIColors {
		if c == s {
			return true
		}
	}
	return false
}

type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors is returned by Check when one or more fields are invalid.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return strings.Join(parts, "; ")
}

// Fields maps each field to its message.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, f := range fe {
		m[f.Field] = f.Err
	}
	return m
}

func NewFieldError(field, msg string) FieldErrors {
	return FieldErrors{{Field: field, Err: msg}}
}

// AsFieldErrors unwraps err into FieldErrors.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

var (
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

func setup() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	enLocale := en.New()
	translator, _ = ut.New(enLocale, enLocale).GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(fmt.Sprintf("validator translations: %v", err))
	}

	validate.RegisterValidation("uicolor", func(fl validator.FieldLevel) bool {
		return IsUIColor(fl.Field().String())
	})
	validate.RegisterTranslation("uicolor", translator,
		func(trans ut.Translator) error {
			return trans.Add("uicolor", "{0} must be one of the palette colors", true)
		},
		func(trans ut.Translator, fe validator.FieldError) string {
			msg, _ := trans.T("uicolor", fe.Field())
			return msg
		},
	)
}

// Check validates v. It returns FieldErrors for invalid input, or nil.
func Check(v interface{}) error {
	once.Do(setup)

	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(FieldErrors, 0, len(verrs))
	for _, verr := range verrs {
		fields = append(fields, FieldError{
			Field: verr.Field(),
			Err:   verr.Translate(translator),
		})
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return fields
}
