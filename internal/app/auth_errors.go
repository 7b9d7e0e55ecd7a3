package app

import (
	"errors"
	"fmt"
)

// AuthCode identifies one authentication failure class.
type AuthCode string

// AuthCode values returned by the account service.
const (
	AuthCodeEmailAlreadyInUse   AuthCode = "auth/email-already-in-use"
	AuthCodeInvalidEmail        AuthCode = "auth/invalid-email"
	AuthCodeUserNotFound        AuthCode = "auth/user-not-found"
	AuthCodeOperationNotAllowed AuthCode = "auth/operation-not-allowed"
	AuthCodeWeakPassword        AuthCode = "auth/weak-password"
	AuthCodeWrongPassword       AuthCode = "auth/wrong-password"
	AuthCodeMissingEmail        AuthCode = "auth/missing-email"
	AuthCodeMissingPassword     AuthCode = "auth/missing-password"
)

var authMessages = map[AuthCode]string{
	AuthCodeEmailAlreadyInUse:   "The email address is already in use",
	AuthCodeInvalidEmail:        "The email address is not valid",
	AuthCodeUserNotFound:        "No user found with this email address",
	AuthCodeOperationNotAllowed: "Operation not allowed",
	AuthCodeWeakPassword:        "The password is too weak",
	AuthCodeWrongPassword:       "The password is incorrect",
	AuthCodeMissingEmail:        "Please enter an email address",
	AuthCodeMissingPassword:     "Please enter your password",
}

// AuthError is an authentication failure with a stable code.
type AuthError struct {
	Code AuthCode
	Err  error
}

// Error implements error.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError constructs one coded authentication error.
func NewAuthError(code AuthCode, cause error) error {
	return &AuthError{Code: code, Err: cause}
}

// AuthErrorCode extracts the auth code from err when one is present.
func AuthErrorCode(err error) (AuthCode, bool) {
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		return "", false
	}
	return authErr.Code, true
}

// AuthMessage maps an authentication failure to the message shown to users.
// Unknown codes, and errors without a code, are returned verbatim.
func AuthMessage(err error) string {
	if err == nil {
		return ""
	}
	code, ok := AuthErrorCode(err)
	if !ok {
		return err.Error()
	}
	if msg, ok := authMessages[code]; ok {
		return msg
	}
	return string(code)
}
