package patient

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// defaultRegion is applied when a number carries no international prefix.
// The clinic is UK based, so bare numbers are read as GB.
const defaultRegion = "GB"

// normalizePhone parses and reformats a phone number to E.164. Empty input
// stays empty; anything unparseable or invalid reports ErrInvalidPhone.
func normalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
