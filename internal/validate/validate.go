// Package validate holds the shared validator instance with English
// translations registered, so field errors surface as readable sentences.
package validate

import (
	"errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ = uni.GetTranslator("en")

	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}
}

// Struct validates s against its validate tags.
func Struct(s any) error {
	return validate.Struct(s)
}

// Translate renders a validation error as a single English sentence. The
// first failing field wins; non-validation errors pass through unchanged.
func Translate(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldErrs[0].Translate(trans)
	}
	return err.Error()
}