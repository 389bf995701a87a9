package curriculum

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mentora/core"
)

var (
	slugTag   = "slug"
	slugText  = "only letters, digits, dashes and underscores are allowed"
	slugRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// InitValidators registers the curriculum validators. core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(slugTag, slugValidation)
	core.RegisterCustomTranslation(validate, translator, slugTag, slugText)
}

// slugValidation checks that IDs can safely be used in URLs.
func slugValidation(fl validator.FieldLevel) bool {
	return slugRegex.MatchString(fl.Field().String())
}
