// Package validation provides input validation middleware for the FraudGuard API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB)
const MaxRequestSize = 1 << 20 // 1MB

// MaxStringLength is the maximum length for string fields
const MaxStringLength = 10000

// ownerKey is the gin context key the identity middleware stores the caller
// under.
const ownerKey = "authOwner"

var (
	// ownerRegex validates owner identities: an email address or an opaque
	// account handle.
	ownerRegex = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+(@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})?$`)
	// externalIDRegex validates caller-supplied transaction references.
	externalIDRegex = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,64}$`)
)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IdentityMiddleware requires the X-User-ID header set by the fronting
// gateway and stores it on the context. All owner-scoped routes sit behind it.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if owner == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "X-User-ID header is required",
			})
			return
		}
		if !IsValidOwner(owner) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "X-User-ID header is malformed",
			})
			return
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}

// OwnerFrom returns the authenticated owner stored by IdentityMiddleware.
func OwnerFrom(c *gin.Context) string {
	return c.GetString(ownerKey)
}

// IsValidOwner checks if a string is an acceptable owner identity
func IsValidOwner(owner string) bool {
	return len(owner) <= 320 && ownerRegex.MatchString(owner)
}

// IsValidExternalID checks if a string is an acceptable transaction reference
func IsValidExternalID(id string) bool {
	return externalIDRegex.MatchString(id)
}

// SanitizeString removes dangerous characters and limits length
func SanitizeString(s string, maxLen int) string {
	// Trim whitespace
	s = strings.TrimSpace(s)

	// Limit length
	if len(s) > maxLen {
		s = s[:maxLen]
	}

	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	return s
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Field + ": " + e[0].Message
}

// Validate validates a request and returns errors
func Validate(validators ...func() *ValidationError) ValidationErrors {
	var errors ValidationErrors
	for _, v := range validators {
		if err := v(); err != nil {
			errors = append(errors, *err)
		}
	}
	return errors
}

// Required checks if a field is non-empty
func Required(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}
}

// MaxLength checks if a field exceeds max length
func MaxLength(field, value string, max int) func() *ValidationError {
	return func() *ValidationError {
		if len(value) > max {
			return &ValidationError{Field: field, Message: "exceeds maximum length"}
		}
		return nil
	}
}

// ValidExternalID checks if a field is an acceptable transaction reference
func ValidExternalID(field, value string) func() *ValidationError {
	return func() *ValidationError {
		if value == "" {
			return nil // Use Required for required fields
		}
		if !IsValidExternalID(value) {
			return &ValidationError{Field: field, Message: "must be 1-64 characters of letters, digits, underscore or dash"}
		}
		return nil
	}
}

// ValidRiskScore checks if a supplied risk score sits within [0, 1]
func ValidRiskScore(field string, value *float64) func() *ValidationError {
	return func() *ValidationError {
		if value == nil {
			return nil
		}
		if *value < 0 || *value > 1 {
			return &ValidationError{Field: field, Message: "must be between 0 and 1"}
		}
		return nil
	}
}
