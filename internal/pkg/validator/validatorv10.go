package validator

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/YessineAmor/stampd/internal/pkg/strcase"
)

// ErrTranslatorNotFound indicates the English translator could not be loaded.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10ValidationError maps snake_case field names to translated messages.
type V10ValidationError map[string]string

func (e V10ValidationError) Error() string {
	if len(e) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

// Values returns the underlying field error map.
func (e V10ValidationError) Values() map[string]string { return e }

// V10Validator validates structs with go-playground/validator and translates
// failure messages to English.
type V10Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewV10Validator builds a validator with English translations registered.
func NewV10Validator() (*V10Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	trans, ok := ut.New(english, english).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}

	return &V10Validator{validate: v, trans: trans}, nil
}

// Validate checks data against its struct tags. Failures come back as a
// V10ValidationError; anything else is returned as-is.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.trans)
	}
	return out
}
