// Package libpam connects the Authenticator to the host PAM stack.
//
// It needs cgo and the libpam headers. Other builds compile, but New
// returns ErrUnsupported.
package libpam

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-pam"
)

// ErrUnsupported is returned where the host PAM stack is unavailable.
var ErrUnsupported = goerrors.New("libpam: host PAM requires a linux cgo build", goerrors.CategoryOperation).
	WithTextCode("PAM_UNSUPPORTED")

// Backend starts contexts on the host PAM stack. Its handles do not
// implement pam.FinalizerSafe: libpam transactions must be ended from the
// goroutine that drives them, so callers always Close the Authenticator.
type Backend struct {
	// User is handed to pam_start. Leave it empty so modules ask for the
	// user through the conversation.
	User string
}

// New returns the host backend.
func New() (*Backend, error) {
	if !supported {
		return nil, ErrUnsupported
	}
	return &Backend{}, nil
}

// Start implements pam.Backend.
func (b *Backend) Start(service string, conv pam.Conversation) (pam.Handle, pam.Status) {
	if conv == nil {
		return nil, pam.SystemErr
	}
	return start(service, b.User, conv)
}

// answer runs conv for a single message as delivered by libpam.
func answer(conv pam.Conversation, style pam.Style, text string) (string, pam.Status) {
	responses, status := conv.Converse([]pam.Message{{Style: style, Text: text}})
	if status != pam.Success {
		return "", status
	}
	if len(responses) != 1 {
		return "", pam.ConvErr
	}
	return responses[0].Text, pam.Success
}
