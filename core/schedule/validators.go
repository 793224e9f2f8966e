package schedule

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Wrug-hu/school-portal/core"
)

var (
	schoolDayTag  = "schoolday"
	schoolDayText = "must be a school day (monday through friday)"

	wallTimeTag   = "walltime"
	wallTimeText  = "must be a 24h wall-clock time (HH:MM)"
	wallTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(schoolDayTag, func(fl validator.FieldLevel) bool {
		return Day(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, schoolDayTag, schoolDayText)

	_ = validate.RegisterValidation(wallTimeTag, func(fl validator.FieldLevel) bool {
		return wallTimeRegex.MatchString(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, wallTimeTag, wallTimeText)
}
