//go:build linux && cgo

package libpam

import (
	"errors"

	"github.com/goliatone/go-pam"
	native "github.com/msteinert/pam/v2"
)

const supported = true

func start(service, user string, conv pam.Conversation) (pam.Handle, pam.Status) {
	tx, err := native.StartFunc(service, user, func(s native.Style, msg string) (string, error) {
		reply, status := answer(conv, pam.Style(s), msg)
		if status != pam.Success {
			return "", native.Error(status)
		}
		return reply, nil
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &handle{tx: tx}, pam.Success
}

// handle forwards every call to a native transaction.
type handle struct {
	tx *native.Transaction
}

func (h *handle) Authenticate(flags pam.Flag) pam.Status {
	return toStatus(h.tx.Authenticate(native.Flags(flags)))
}

func (h *handle) AcctMgmt(flags pam.Flag) pam.Status {
	return toStatus(h.tx.AcctMgmt(native.Flags(flags)))
}

func (h *handle) SetCred(flags pam.Flag) pam.Status {
	return toStatus(h.tx.SetCred(native.Flags(flags)))
}

func (h *handle) OpenSession(flags pam.Flag) pam.Status {
	return toStatus(h.tx.OpenSession(native.Flags(flags)))
}

func (h *handle) CloseSession(flags pam.Flag) pam.Status {
	return toStatus(h.tx.CloseSession(native.Flags(flags)))
}

func (h *handle) PutEnv(nameValue string) pam.Status {
	return toStatus(h.tx.PutEnv(nameValue))
}

func (h *handle) GetEnvList() (map[string]string, pam.Status) {
	env, err := h.tx.GetEnvList()
	return env, toStatus(err)
}

// End releases the transaction. The binding reports the status of the
// last native call to pam_end itself.
func (h *handle) End(pam.Status) pam.Status {
	return toStatus(h.tx.End())
}

func toStatus(err error) pam.Status {
	if err == nil {
		return pam.Success
	}
	var perr native.Error
	if errors.As(err, &perr) {
		return pam.Status(perr)
	}
	return pam.SystemErr
}
