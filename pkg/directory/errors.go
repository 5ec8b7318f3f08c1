package directory

import (
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
)

var (
	// ErrEmptyCredentials is returned before any network activity when the
	// username or password is empty. An LDAP bind with an empty password is
	// an unauthenticated bind and would otherwise succeed.
	ErrEmptyCredentials = errors.New("username and password are required")

	// ErrConnection matches every *ConnectionError.
	ErrConnection = errors.New("directory unreachable")

	// ErrBindRejected matches every *BindRejectedError.
	ErrBindRejected = errors.New("directory rejected bind")
)

// ConnectionError means the directory could not be asked: dial failure,
// network error, timeout or cancellation.
type ConnectionError struct {
	URL string
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("directory %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnection, e.Err}
}

// BindRejectedError means the directory answered and refused the bind.
type BindRejectedError struct {
	ResultCode uint16
	Err        error
}

func (e *BindRejectedError) Error() string {
	return fmt.Sprintf("directory rejected bind: %s (%d)", resultName(e.ResultCode), e.ResultCode)
}

func (e *BindRejectedError) Unwrap() []error {
	return []error{ErrBindRejected, e.Err}
}

func resultName(code uint16) string {
	if name, ok := ldap.LDAPResultCodeMap[code]; ok {
		return name
	}
	return "Unknown"
}

// classifyBindError maps a bind failure onto the two failure kinds.
func classifyBindError(url string, err error) error {
	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) && ldapErr.ResultCode != ldap.ErrorNetwork {
		return &BindRejectedError{ResultCode: ldapErr.ResultCode, Err: err}
	}
	return &ConnectionError{URL: url, Op: "bind", Err: err}
}
