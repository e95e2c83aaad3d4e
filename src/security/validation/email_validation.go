package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationFailed wraps all payload validation errors so handlers can
// branch with errors.Is.
var ErrValidationFailed = errors.New("validation failed")

// ValidateEmailPayload checks an incoming raw email before parsing: required
// fields present and body within the configured size limit.
func ValidateEmailPayload(subject, body string, maxBodyBytes int64) error {
	if strings.TrimSpace(subject) == "" {
		return fmt.Errorf("%w: email subject is required", ErrValidationFailed)
	}
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: email body is required", ErrValidationFailed)
	}
	if maxBodyBytes > 0 && int64(len(body)) > maxBodyBytes {
		return fmt.Errorf("%w: email body exceeds maximum size of %d bytes", ErrValidationFailed, maxBodyBytes)
	}
	return nil
}
