package apperr

import "errors"

// Kind classifies a service failure so handlers can pick the HTTP status and
// the UI can pick the right flow (sign-in prompt vs account-switch prompt).
type Kind int

const (
	KindValidation Kind = iota
	KindAuthenticationRequired
	KindNotFound
	KindForbidden
	KindWrongEmail
	KindSelfJoinForbidden
	KindConflict
	KindPersistence
)

// Error is the uniform failure shape returned by every service entry point.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return e.Message
}

// Status maps a kind to its HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return 400
	case KindAuthenticationRequired:
		return 401
	case KindForbidden, KindWrongEmail, KindSelfJoinForbidden:
		return 403
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	default:
		return 500
	}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func AuthenticationRequired(msg string) *Error {
	return &Error{Kind: KindAuthenticationRequired, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// WrongEmail carries the invitation's target email so the UI can suggest
// switching accounts.
func WrongEmail(msg, invitationEmail string) *Error {
	return &Error{
		Kind:    KindWrongEmail,
		Message: msg,
		Details: map[string]interface{}{"invitation_email": invitationEmail},
	}
}

func SelfJoinForbidden(msg string) *Error {
	return &Error{Kind: KindSelfJoinForbidden, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Message: err.Error()}
}

// From returns err as an *Error, wrapping unclassified errors as persistence
// failures so handlers always have a kind to map.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Persistence(err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
