package phone

import (
	"github.com/nyaruka/phonenumbers"
	"github.com/promorail/promorail/pkg/domain"
)

const defaultRegion = "US"

// Normalize validates a phone number and returns its E.164 form. Numbers
// without a country prefix are parsed against the default region.
func Normalize(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return "", domain.NewValidationError("invalid phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", domain.NewValidationError("invalid phone number")
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
