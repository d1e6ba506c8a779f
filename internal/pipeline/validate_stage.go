package pipeline

import (
	"regexp"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/common"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
)

var indonesianMobile = regexp.MustCompile(`^\+628\d{8,11}$`)

// Validate checks a record before it is trusted. Every violated rule is reported,
// in field order name, email, phone, companies.
func Validate(rec entity.ExtractedRecord) error {
	v := common.NewValidator().
		Field("name", rec.Name, common.Required).
		Field("email", rec.Email, common.OrSentinel(constants.NotAvailable, common.Email)).
		Field("phone", rec.Phone, common.OrSentinel(constants.NotAvailable,
			common.Pattern(indonesianMobile, "+628 followed by 8-11 digits"))).
		Field("companies", rec.Companies, common.Required, common.NonBlankItems)

	if err := v.Error(); err != nil {
		return common.ValidationFailure("extracted record failed validation", err)
	}
	return nil
}
