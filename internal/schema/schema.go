// Package schema validates the semi-structured fields of directory
// entities before anything touches storage. Checks are pure: value in,
// accept or a structured rejection out. A field is accepted as a whole
// or rejected as a whole.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	// Embedded tzdata keeps zone validation working on hosts without
	// a system zoneinfo database.
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
)

// ErrViolation is the sentinel all field rejections unwrap to.
var ErrViolation = errors.New("schema_violation")

// Error describes a rejected field value.
type Error struct {
	Field  string
	Reason string
	Value  any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Field, e.Reason, e.Value)
}

func (e *Error) Unwrap() error { return ErrViolation }

func reject(field, reason string, value any) error {
	return &Error{Field: field, Reason: reason, Value: value}
}

var (
	phoneRe  = regexp.MustCompile(`^\+\d{9,15}$`)
	validate = validator.New()
)

// ValidatePhoneNumber checks a single phone number against +<9..15 digits>.
func ValidatePhoneNumber(value string) error {
	if !phoneRe.MatchString(value) {
		return reject("phone_number", "must match ^\\+\\d{9,15}$", value)
	}
	return nil
}

// ValidatePhoneNumbers checks an ordered set of additional phone numbers.
// An empty set is valid.
func ValidatePhoneNumbers(values []string) error {
	for _, v := range values {
		if !phoneRe.MatchString(v) {
			return reject("additional_phone_numbers", "must match ^\\+\\d{9,15}$", values)
		}
	}
	return nil
}

// ValidateEmails checks an ordered set of email addresses.
func ValidateEmails(values []string) error {
	for _, v := range values {
		if err := validate.Var(v, "required,email"); err != nil {
			return reject("email", "must be a valid email address", values)
		}
	}
	return nil
}

// Recognized social-network platforms. VK and FB carry a list of profile
// URLs, the rest a single URL.
var (
	multiURLPlatforms  = map[string]struct{}{"VK": {}, "FB": {}}
	singleURLPlatforms = map[string]struct{}{
		"ОК":        {},
		"Instagram": {},
		"Telegram":  {},
		"WhatsApp":  {},
		"Viber":     {},
	}
)

// ValidateSocialNetworks checks a platform-name to profile-URL map.
// Unrecognized platform keys pass through unchecked; recognized keys must
// match the shape required for their platform.
func ValidateSocialNetworks(value map[string]any) error {
	for platform, raw := range value {
		if _, ok := multiURLPlatforms[platform]; ok {
			urls, ok := toStringSlice(raw)
			if !ok {
				return reject("social_networks", platform+" requires a list of URLs", value)
			}
			for _, u := range urls {
				if err := validate.Var(u, "required,uri"); err != nil {
					return reject("social_networks", platform+" entries must be valid URLs", value)
				}
			}
			continue
		}
		if _, ok := singleURLPlatforms[platform]; ok {
			u, ok := raw.(string)
			if !ok {
				return reject("social_networks", platform+" requires a single URL", value)
			}
			if err := validate.Var(u, "required,uri"); err != nil {
				return reject("social_networks", platform+" must be a valid URL", value)
			}
		}
	}
	return nil
}

// ValidateTimeZone checks that the value names a known IANA time zone.
func ValidateTimeZone(value string) error {
	if value == "" || value == "Local" {
		return reject("time_zone", "must name an IANA time zone", value)
	}
	if _, err := time.LoadLocation(value); err != nil {
		return reject("time_zone", "must name an IANA time zone", value)
	}
	return nil
}

func toStringSlice(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
