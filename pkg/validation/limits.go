package validation

import (
	"fmt"

	dErrors "vcdemo/pkg/domain-errors"
)

// MaxBodySize is the maximum allowed request body size (64 KB).
const MaxBodySize = 64 * 1024

// String element length limits
const (
	MaxCredentialIDLength   = 64
	MaxFullNameLength       = 200
	MaxIDNumberLength       = 64
	MaxNationalityLength    = 64
	MaxLanguageLength       = 64
	MaxAdditionalInfoLength = 2000
	MaxReasonLength         = 500
)

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
