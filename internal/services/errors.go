package services

import "errors"

// NotFoundError reports that an identifier did not resolve to a user. Message
// is safe to return to clients as is.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

var (
	// ErrInvalidCredentials is returned by Login for an unknown identity or a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned by Register when the username or email is taken.
	ErrUserExists = errors.New("an account with this username or email already exists")
	// ErrInvalidRole is returned by Register for a role outside student, counselor and admin.
	ErrInvalidRole = errors.New("role must be one of student, counselor, admin")
)
