// Package signin holds the credential form state of the login screen.
package signin

import (
	"strings"

	"github.com/hylla/tickit/internal/app"
)

// Action identifies what a submission asks the session provider to do.
type Action int

// Action values.
const (
	ActionSignIn Action = iota
	ActionSignUp
	ActionFederated
)

// String returns the action label used in logs and status lines.
func (a Action) String() string {
	switch a {
	case ActionSignUp:
		return "sign up"
	case ActionFederated:
		return "federated sign in"
	default:
		return "sign in"
	}
}

// Form holds the email and password fields and one error message. Editing
// either field clears the message.
type Form struct {
	email    string
	password string
	errMsg   string
	pending  bool
}

// Email returns the email field.
func (f *Form) Email() string { return f.email }

// Password returns the password field.
func (f *Form) Password() string { return f.password }

// Error returns the current error message, or "".
func (f *Form) Error() string { return f.errMsg }

// Pending reports whether a submission is in flight.
func (f *Form) Pending() bool { return f.pending }

// SetEmail replaces the email field and clears the error.
func (f *Form) SetEmail(v string) {
	f.email = v
	f.errMsg = ""
}

// SetPassword replaces the password field and clears the error.
func (f *Form) SetPassword(v string) {
	f.password = v
	f.errMsg = ""
}

// Begin validates the fields for action and marks the form pending. It
// returns false, with the error slot set, when the submission must not be
// sent. Federated sign-in needs no fields.
func (f *Form) Begin(action Action) (app.Credentials, bool) {
	if f.pending {
		return app.Credentials{}, false
	}
	creds := app.Credentials{Email: strings.TrimSpace(f.email), Password: f.password}
	if action != ActionFederated {
		if creds.Email == "" {
			f.errMsg = app.AuthMessage(app.NewAuthError(app.AuthCodeMissingEmail, nil))
			return app.Credentials{}, false
		}
		if creds.Password == "" {
			f.errMsg = app.AuthMessage(app.NewAuthError(app.AuthCodeMissingPassword, nil))
			return app.Credentials{}, false
		}
	}
	f.errMsg = ""
	f.pending = true
	return creds, true
}

// Fail ends the pending submission and replaces the error with the message
// for err.
func (f *Form) Fail(err error) {
	f.pending = false
	f.errMsg = app.AuthMessage(err)
}

// Succeed ends the pending submission and forgets the password.
func (f *Form) Succeed() {
	f.pending = false
	f.password = ""
	f.errMsg = ""
}

// Reset clears every field.
func (f *Form) Reset() {
	*f = Form{}
}
