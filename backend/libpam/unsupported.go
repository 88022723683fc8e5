//go:build !linux || !cgo

package libpam

import "github.com/goliatone/go-pam"

const supported = false

func start(string, string, pam.Conversation) (pam.Handle, pam.Status) {
	return nil, pam.OpenErr
}
