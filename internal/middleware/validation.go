package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidatePhoneNumber validates a call destination or source.
func ValidatePhoneNumber(number string) error {
	if len(number) > 64 {
		return errors.New("phone number exceeds maximum length")
	}
	if !utf8.ValidString(number) {
		return errors.New("phone number must be valid UTF-8")
	}
	return nil
}

// ValidateCallSid validates a provider call identifier.
func ValidateCallSid(callSid string) error {
	if len(callSid) > 64 {
		return errors.New("callSid exceeds maximum length")
	}
	if !utf8.ValidString(callSid) {
		return errors.New("callSid must be valid UTF-8")
	}
	return nil
}

// ValidateIdentity validates a client identity.
func ValidateIdentity(identity string) error {
	if len(identity) > 121 {
		return errors.New("identity exceeds maximum length")
	}
	if !utf8.ValidString(identity) {
		return errors.New("identity must be valid UTF-8")
	}
	return nil
}
