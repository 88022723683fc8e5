package pam

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeAuthenticationRejected  = "PAM_AUTHENTICATION_REJECTED"
	TextCodeAccountInvalid          = "PAM_ACCOUNT_INVALID"
	TextCodeCredentialEstablishment = "PAM_CREDENTIAL_ESTABLISHMENT_FAILED"
	TextCodeSession                 = "PAM_SESSION_FAILED"
	TextCodePermissionDenied        = "PAM_PERMISSION_DENIED"
	TextCodeEnvironmentResolution   = "PAM_ENVIRONMENT_RESOLUTION_FAILED"
	TextCodeEnvironmentAssignment   = "PAM_ENVIRONMENT_ASSIGNMENT_FAILED"
	TextCodeInitialization          = "PAM_INITIALIZATION_FAILED"
	TextCodeCredentialsLocked       = "PAM_CREDENTIALS_LOCKED"
	TextCodeReleased                = "PAM_AUTHENTICATOR_RELEASED"
)

// ErrAuthenticationRejected is returned when the backend rejects the credentials.
var ErrAuthenticationRejected = goerrors.New("authentication rejected", goerrors.CategoryAuth).
	WithTextCode(TextCodeAuthenticationRejected).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountInvalid is returned when the account is expired, locked or disabled.
var ErrAccountInvalid = goerrors.New("account is not valid", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrCredentialEstablishment is returned when the backend cannot establish credentials.
var ErrCredentialEstablishment = goerrors.New("credential establishment failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeCredentialEstablishment).
	WithCode(goerrors.CodeUnauthorized)

// ErrSession is returned when a session cannot be opened or closed.
var ErrSession = goerrors.New("session operation failed", goerrors.CategoryOperation).
	WithTextCode(TextCodeSession).
	WithCode(goerrors.CodeInternal)

// ErrPermissionDenied is returned for operations attempted out of order.
var ErrPermissionDenied = goerrors.New("operation not permitted in current state", goerrors.CategoryAuthz).
	WithTextCode(TextCodePermissionDenied)

// ErrEnvironmentResolution is returned when the authenticated identity has no account entry.
var ErrEnvironmentResolution = goerrors.New("unable to resolve account for environment", goerrors.CategoryNotFound).
	WithTextCode(TextCodeEnvironmentResolution).
	WithCode(goerrors.CodeNotFound)

// ErrEnvironmentAssignment is returned when the backend refuses an environment variable.
var ErrEnvironmentAssignment = goerrors.New("unable to set session environment", goerrors.CategoryOperation).
	WithTextCode(TextCodeEnvironmentAssignment).
	WithCode(goerrors.CodeInternal)

// ErrInitialization is returned when a backend context cannot be started.
var ErrInitialization = goerrors.New("unable to initialize authentication context", goerrors.CategoryInternal).
	WithTextCode(TextCodeInitialization).
	WithCode(goerrors.CodeInternal)

// ErrCredentialsLocked is returned by SetCredentials once authentication has begun.
var ErrCredentialsLocked = goerrors.New("credentials can not change after authentication started", goerrors.CategoryConflict).
	WithTextCode(TextCodeCredentialsLocked).
	WithCode(goerrors.CodeConflict)

// ErrReleased is returned by any operation issued after Close.
var ErrReleased = goerrors.New("authenticator already released", goerrors.CategoryConflict).
	WithTextCode(TextCodeReleased).
	WithCode(goerrors.CodeConflict)

// statusError clones kind and attaches the backend status that caused it.
func statusError(kind *goerrors.Error, operation string, status Status, extra ...map[string]any) *goerrors.Error {
	clone := kind.Clone()
	if clone == nil {
		clone = kind
	}
	clone.Source = status

	meta := map[string]any{
		"operation": operation,
		"status":    status.String(),
		"code":      int(status),
	}
	for _, m := range extra {
		for k, v := range m {
			meta[k] = v
		}
	}
	return clone.WithMetadata(meta)
}

// StatusOf returns the backend status carried by err.
// A nil error is Success; errors that carry no status report SystemErr.
func StatusOf(err error) Status {
	if err == nil {
		return Success
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if status, ok := richErr.Source.(Status); ok {
			return status
		}
	}

	var status Status
	if errors.As(err, &status) {
		return status
	}
	return SystemErr
}

// HasTextCode reports whether err is a rich error with the given text code.
func HasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsAuthenticationRejected checks for rejected credentials
func IsAuthenticationRejected(err error) bool {
	return HasTextCode(err, TextCodeAuthenticationRejected)
}

// IsAccountInvalid checks for expired, locked or disabled accounts
func IsAccountInvalid(err error) bool {
	return HasTextCode(err, TextCodeAccountInvalid)
}

// IsPermissionDenied checks for out of order operations
func IsPermissionDenied(err error) bool {
	return HasTextCode(err, TextCodePermissionDenied)
}
