package pam_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-pam"
	"github.com/stretchr/testify/mock"
)

// MockBackend implements pam.Backend
type MockBackend struct {
	mock.Mock
	conv pam.Conversation
}

func (m *MockBackend) Start(service string, conv pam.Conversation) (pam.Handle, pam.Status) {
	m.conv = conv
	args := m.Called(service, conv)
	h, _ := args.Get(0).(pam.Handle)
	return h, args.Get(1).(pam.Status)
}

// MockHandle implements pam.Handle
type MockHandle struct {
	mock.Mock
}

func (m *MockHandle) Authenticate(flags pam.Flag) pam.Status {
	args := m.Called(flags)
	return args.Get(0).(pam.Status)
}

func (m *MockHandle) AcctMgmt(flags pam.Flag) pam.Status {
	args := m.Called(flags)
	return args.Get(0).(pam.Status)
}

func (m *MockHandle) SetCred(flags pam.Flag) pam.Status {
	args := m.Called(flags)
	return args.Get(0).(pam.Status)
}

func (m *MockHandle) OpenSession(flags pam.Flag) pam.Status {
	args := m.Called(flags)
	return args.Get(0).(pam.Status)
}

func (m *MockHandle) CloseSession(flags pam.Flag) pam.Status {
	args := m.Called(flags)
	return args.Get(0).(pam.Status)
}

func (m *MockHandle) PutEnv(nameValue string) pam.Status {
	args := m.Called(nameValue)
	return args.Get(0).(pam.Status)
}

func (m *MockHandle) GetEnvList() (map[string]string, pam.Status) {
	args := m.Called()
	env, _ := args.Get(0).(map[string]string)
	return env, args.Get(1).(pam.Status)
}

func (m *MockHandle) End(last pam.Status) pam.Status {
	args := m.Called(last)
	return args.Get(0).(pam.Status)
}

// MockActivitySink implements pam.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event pam.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// stubIdentityDB resolves accounts from a map
type stubIdentityDB map[string]*pam.Account

func (s stubIdentityDB) LookupAccount(name string) (*pam.Account, error) {
	if acc, ok := s[name]; ok {
		return acc, nil
	}
	return nil, fmt.Errorf("user %q not found", name)
}

// memoryEnv is a ProcessEnv that records assignments in order
type memoryEnv struct {
	vars map[string]string
	keys []string
}

func newMemoryEnv(initial map[string]string) *memoryEnv {
	vars := map[string]string{}
	for k, v := range initial {
		vars[k] = v
	}
	return &memoryEnv{vars: vars}
}

func (e *memoryEnv) Getenv(key string) string { return e.vars[key] }

func (e *memoryEnv) Setenv(key, value string) error {
	e.vars[key] = value
	e.keys = append(e.keys, key)
	return nil
}

// outcomes configures the status each fakeHandle call returns.
type outcomes struct {
	authenticate pam.Status
	acctMgmt     pam.Status
	establish    pam.Status
	openSession  pam.Status
	// putEnvFailAt is the 1-based PutEnv call that fails, 0 for none.
	putEnvFailAt int
	putEnvStatus pam.Status
}

// fakeHandle tracks whether credentials are established so tests can
// compare it against the Authenticator state.
type fakeHandle struct {
	out         outcomes
	conv        pam.Conversation
	established bool
	sessionOpen bool
	ended       bool
	endStatus   pam.Status
	env         map[string]string
	calls       map[string]int
	order       []string
}

func newFakeHandle(out outcomes, conv pam.Conversation) *fakeHandle {
	return &fakeHandle{
		out:   out,
		conv:  conv,
		env:   map[string]string{},
		calls: map[string]int{},
	}
}

func (h *fakeHandle) record(name string) {
	h.calls[name]++
	h.order = append(h.order, name)
}

func (h *fakeHandle) Authenticate(pam.Flag) pam.Status {
	h.record("authenticate")
	if h.conv != nil {
		if _, status := h.conv.Converse([]pam.Message{
			{Style: pam.PromptEchoOn, Text: "login: "},
			{Style: pam.PromptEchoOff, Text: "Password: "},
		}); status != pam.Success {
			return status
		}
	}
	return h.out.authenticate
}

func (h *fakeHandle) AcctMgmt(pam.Flag) pam.Status {
	h.record("acct_mgmt")
	return h.out.acctMgmt
}

func (h *fakeHandle) SetCred(flags pam.Flag) pam.Status {
	switch {
	case flags.Has(pam.DeleteCred):
		h.record("delete_cred")
		h.established = false
		return pam.Success
	case flags.Has(pam.EstablishCred):
		h.record("establish_cred")
		if h.out.establish == pam.Success {
			h.established = true
		}
		return h.out.establish
	}
	return pam.BadItem
}

func (h *fakeHandle) OpenSession(pam.Flag) pam.Status {
	h.record("open_session")
	if h.out.openSession == pam.Success {
		h.sessionOpen = true
	}
	return h.out.openSession
}

func (h *fakeHandle) CloseSession(pam.Flag) pam.Status {
	h.record("close_session")
	h.sessionOpen = false
	return pam.Success
}

func (h *fakeHandle) PutEnv(nameValue string) pam.Status {
	h.record("putenv")
	if h.out.putEnvFailAt == h.calls["putenv"] {
		return h.out.putEnvStatus
	}
	parts := strings.SplitN(nameValue, "=", 2)
	h.env[parts[0]] = parts[1]
	return pam.Success
}

func (h *fakeHandle) GetEnvList() (map[string]string, pam.Status) {
	h.record("getenvlist")
	out := make(map[string]string, len(h.env))
	for k, v := range h.env {
		out[k] = v
	}
	return out, pam.Success
}

func (h *fakeHandle) End(last pam.Status) pam.Status {
	h.record("end")
	h.ended = true
	h.endStatus = last
	return pam.Success
}

// fakeBackend hands out a single fakeHandle.
type fakeBackend struct {
	out           outcomes
	finalizerSafe bool
	handle        *fakeHandle
}

func (b *fakeBackend) Start(service string, conv pam.Conversation) (pam.Handle, pam.Status) {
	b.handle = newFakeHandle(b.out, conv)
	if b.finalizerSafe {
		return finalizerSafeHandle{b.handle}, pam.Success
	}
	return b.handle, pam.Success
}

// finalizerSafeHandle lets the finalizer release a fakeHandle.
type finalizerSafeHandle struct {
	*fakeHandle
}

func (finalizerSafeHandle) FinalizerSafe() bool { return true }

func successOutcomes() outcomes {
	return outcomes{}
}

func testAccounts() stubIdentityDB {
	return stubIdentityDB{
		"alice": {Name: "alice", UID: "1000", GID: "1000", HomeDir: "/home/alice", Shell: "/bin/bash"},
		"bob":   {Name: "bob", UID: "1001", GID: "1001", HomeDir: "/home/bob", Shell: "/bin/zsh"},
	}
}

// captureLogger records log calls
type captureLogger struct {
	levels   []string
	messages []string
}

func (l *captureLogger) record(level, msg string) {
	l.levels = append(l.levels, level)
	l.messages = append(l.messages, msg)
}

func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg) }

// signalLogger forwards warnings to a channel so tests can wait for
// messages logged from other goroutines.
type signalLogger struct {
	warnings chan string
}

func newSignalLogger() *signalLogger {
	return &signalLogger{warnings: make(chan string, 8)}
}

func (l *signalLogger) Debug(string, ...any) {}
func (l *signalLogger) Info(string, ...any)  {}
func (l *signalLogger) Error(string, ...any) {}

func (l *signalLogger) Warn(msg string, args ...any) {
	select {
	case l.warnings <- msg:
	default:
	}
}
