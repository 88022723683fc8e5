package userdb

import (
	"strings"
	"sync"

	"github.com/goliatone/go-pam"
)

// Call is one recorded backend operation. For "end" Status holds the
// final status reported by the caller.
type Call struct {
	Service   string
	Operation string
	Flags     pam.Flag
	Status    pam.Status
}

// Backend is a pam.Backend that authenticates against a Store. It drives
// the conversation the way pam_unix does: an optional banner, a visible
// login prompt, then a masked password prompt.
type Backend struct {
	store *Store

	mu    sync.Mutex
	calls []Call
}

// New returns a Backend over store.
func New(store *Store) *Backend {
	return &Backend{store: store}
}

// Start implements pam.Backend.
func (b *Backend) Start(service string, conv pam.Conversation) (pam.Handle, pam.Status) {
	status := pam.Success
	switch {
	case conv == nil:
		status = pam.SystemErr
	case b.store == nil:
		status = pam.OpenErr
	case !b.store.allowsService(service):
		status = pam.ServiceErr
	}
	b.record(service, "start", pam.FlagNone, status)
	if status != pam.Success {
		return nil, status
	}

	return &handle{
		backend: b,
		service: service,
		conv:    conv,
		env:     map[string]string{},
	}, pam.Success
}

// Calls returns the operations recorded so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Count returns how many times operation was recorded.
func (b *Backend) Count(operation string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, c := range b.calls {
		if c.Operation == operation {
			n++
		}
	}
	return n
}

// Reset clears the call log.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

func (b *Backend) record(service, op string, flags pam.Flag, status pam.Status) pam.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Call{Service: service, Operation: op, Flags: flags, Status: status})
	return status
}

type handle struct {
	backend *Backend
	service string
	conv    pam.Conversation

	user          *User
	authenticated bool
	established   bool
	sessionOpen   bool
	ended         bool
	env           map[string]string
}

func (h *handle) done(op string, flags pam.Flag, status pam.Status) pam.Status {
	return h.backend.record(h.service, op, flags, status)
}

func (h *handle) Authenticate(flags pam.Flag) pam.Status {
	const op = "authenticate"
	if h.ended {
		return h.done(op, flags, pam.SystemErr)
	}

	h.authenticated = false
	store := h.backend.store

	var msgs []pam.Message
	if store.banner != "" && !flags.Has(pam.Silent) {
		msgs = append(msgs, pam.Message{Style: pam.TextInfo, Text: store.banner})
	}
	msgs = append(msgs,
		pam.Message{Style: pam.PromptEchoOn, Text: "login: "},
		pam.Message{Style: pam.PromptEchoOff, Text: "Password: "},
	)

	responses, status := h.conv.Converse(msgs)
	if status != pam.Success {
		return h.done(op, flags, status)
	}
	if len(responses) != len(msgs) {
		return h.done(op, flags, pam.ConvErr)
	}

	login := responses[len(msgs)-2]
	password := responses[len(msgs)-1]
	if !login.HasText || !password.HasText {
		return h.done(op, flags, pam.ConvErr)
	}

	u, ok := store.Lookup(login.Text)
	if !ok {
		return h.done(op, flags, pam.UserUnknown)
	}
	if password.Text == "" && flags.Has(pam.DisallowNullAuthtok) {
		return h.done(op, flags, pam.AuthErr)
	}
	if err := ComparePasswordAndHash(password.Text, u.PasswordHash); err != nil {
		return h.done(op, flags, pam.AuthErr)
	}

	h.user = &u
	h.authenticated = true
	return h.done(op, flags, pam.Success)
}

func (h *handle) AcctMgmt(flags pam.Flag) pam.Status {
	const op = "acct_mgmt"
	switch {
	case h.ended:
		return h.done(op, flags, pam.SystemErr)
	case h.user == nil:
		return h.done(op, flags, pam.UserUnknown)
	case h.user.Expired:
		return h.done(op, flags, pam.AcctExpired)
	case h.user.PasswordExpired:
		return h.done(op, flags, pam.NewAuthtokReqd)
	}
	return h.done(op, flags, pam.Success)
}

func (h *handle) SetCred(flags pam.Flag) pam.Status {
	if h.ended {
		return h.done("setcred", flags, pam.SystemErr)
	}

	if flags.Has(pam.DeleteCred) {
		h.established = false
		return h.done("delete_cred", flags, pam.Success)
	}

	const op = "establish_cred"
	switch {
	case !h.authenticated:
		return h.done(op, flags, pam.CredErr)
	case h.user.DenyCredentials:
		return h.done(op, flags, pam.CredErr)
	}
	h.established = true
	return h.done(op, flags, pam.Success)
}

func (h *handle) OpenSession(flags pam.Flag) pam.Status {
	const op = "open_session"
	switch {
	case h.ended:
		return h.done(op, flags, pam.SystemErr)
	case !h.authenticated:
		return h.done(op, flags, pam.SessionErr)
	case h.user.DenySession:
		return h.done(op, flags, pam.SessionErr)
	}
	h.sessionOpen = true
	return h.done(op, flags, pam.Success)
}

func (h *handle) CloseSession(flags pam.Flag) pam.Status {
	const op = "close_session"
	if h.ended || !h.sessionOpen {
		return h.done(op, flags, pam.SessionErr)
	}
	h.sessionOpen = false
	return h.done(op, flags, pam.Success)
}

// PutEnv sets NAME=value, or removes NAME when no '=' is present.
func (h *handle) PutEnv(nameValue string) pam.Status {
	const op = "putenv"
	if h.ended {
		return h.done(op, pam.FlagNone, pam.SystemErr)
	}

	key, value, hasValue := strings.Cut(nameValue, "=")
	if key == "" {
		return h.done(op, pam.FlagNone, pam.BadItem)
	}
	if h.user != nil && h.user.deniesEnv(key) {
		return h.done(op, pam.FlagNone, pam.BufErr)
	}

	if !hasValue {
		if _, ok := h.env[key]; !ok {
			return h.done(op, pam.FlagNone, pam.BadItem)
		}
		delete(h.env, key)
		return h.done(op, pam.FlagNone, pam.Success)
	}

	h.env[key] = value
	return h.done(op, pam.FlagNone, pam.Success)
}

func (h *handle) GetEnvList() (map[string]string, pam.Status) {
	if h.ended {
		return nil, h.done("getenvlist", pam.FlagNone, pam.SystemErr)
	}
	out := make(map[string]string, len(h.env))
	for k, v := range h.env {
		out[k] = v
	}
	return out, h.done("getenvlist", pam.FlagNone, pam.Success)
}

func (h *handle) End(last pam.Status) pam.Status {
	if h.ended {
		return h.done("end", pam.FlagNone, pam.SystemErr)
	}
	h.ended = true
	h.established = false
	h.sessionOpen = false
	h.conv = nil
	h.done("end", pam.FlagNone, last)
	return pam.Success
}

// FinalizerSafe implements pam.FinalizerSafe. The handle holds no native
// state and its call log is guarded by the backend mutex.
func (h *handle) FinalizerSafe() bool {
	return true
}
