package llm

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/cv-intake/constants"
)

const (
	localMobilePrefix = "08"
	countryCode       = "+62"
	intlMobilePrefix  = "+628"
	bareMobilePrefix  = "628"
)

var intlMobile = regexp.MustCompile(`^\+628\d{8,11}$`)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "", "\u00a0", "")

// NormalizePhone applies the Indonesian mobile rule to a number returned by the model.
// "08..." becomes "+628..." and "+628..." is kept; either must then be a complete mobile number.
// A bare "628..." without the plus is left untouched so validation rejects it. Everything else,
// landlines and foreign numbers included, maps to N/A.
func NormalizePhone(raw string) string {
	s := phoneSeparators.Replace(strings.TrimSpace(raw))
	switch strings.ToLower(s) {
	case "", "na", "n/a", "none", "null", "-":
		return constants.NotAvailable
	}
	switch {
	case strings.HasPrefix(s, localMobilePrefix):
		s = countryCode + s[1:]
	case strings.HasPrefix(s, intlMobilePrefix):
	case strings.HasPrefix(s, bareMobilePrefix):
		return s
	default:
		return constants.NotAvailable
	}
	if !intlMobile.MatchString(s) {
		return constants.NotAvailable
	}
	return s
}
