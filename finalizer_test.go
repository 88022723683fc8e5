package pam_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/goliatone/go-pam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dropAuthenticated authenticates and returns without closing, leaving the
// Authenticator unreachable.
func dropAuthenticated(t *testing.T, backend pam.Backend, logger pam.Logger) {
	t.Helper()

	authn, err := pam.New(backend, "login",
		pam.WithLogger(logger),
		pam.WithIdentityDB(testAccounts()),
		pam.WithProcessEnv(newMemoryEnv(nil)),
	)
	require.NoError(t, err)
	require.NoError(t, authn.SetCredentials("alice", "secret"))
	require.NoError(t, authn.Authenticate(context.Background()))
}

func awaitFinalizerWarning(t *testing.T, logger *signalLogger) string {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		runtime.GC()
		select {
		case msg := <-logger.warnings:
			return msg
		case <-deadline:
			t.Fatal("finalizer did not run")
			return ""
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDroppedAuthenticatorLeavesUnsafeHandleAlone(t *testing.T) {
	backend := &fakeBackend{out: successOutcomes()}
	logger := newSignalLogger()

	dropAuthenticated(t, backend, logger)

	msg := awaitFinalizerWarning(t, logger)
	assert.Contains(t, msg, "leaked")

	h := backend.handle
	assert.Equal(t, 0, h.calls["end"])
	assert.Equal(t, 0, h.calls["delete_cred"])
	assert.False(t, h.ended)
	assert.True(t, h.established)
}

func TestDroppedAuthenticatorReleasesFinalizerSafeHandle(t *testing.T) {
	backend := &fakeBackend{out: successOutcomes(), finalizerSafe: true}
	logger := newSignalLogger()

	dropAuthenticated(t, backend, logger)

	msg := awaitFinalizerWarning(t, logger)
	assert.Contains(t, msg, "released by finalizer")

	h := backend.handle
	assert.Equal(t, 1, h.calls["delete_cred"])
	assert.Equal(t, 1, h.calls["end"])
	assert.True(t, h.ended)
	assert.False(t, h.established)
	assert.Equal(t, pam.Success, h.endStatus)
}
