package announcement

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Wrug-hu/school-portal/core"
	"github.com/Wrug-hu/school-portal/core/principal"
)

var (
	portalRoleTag  = "portalrole"
	portalRoleText = "invalid role"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(portalRoleTag, func(fl validator.FieldLevel) bool {
		return principal.Role(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, portalRoleTag, portalRoleText)
}
