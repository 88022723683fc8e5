package pam

import (
	"fmt"
	"os"
	"strings"
)

// Logger receives a message followed by key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Backend starts authentication contexts for a service.
type Backend interface {
	// Start registers conv as the conversation callback for the new
	// context. The backend may invoke conv during any later Handle call.
	Start(service string, conv Conversation) (Handle, Status)
}

// Handle is an opaque authentication context owned by one Authenticator.
// Every call blocks and reports its outcome as a Status.
type Handle interface {
	Authenticate(flags Flag) Status
	AcctMgmt(flags Flag) Status
	SetCred(flags Flag) Status
	OpenSession(flags Flag) Status
	CloseSession(flags Flag) Status
	// PutEnv takes a NAME=value pair.
	PutEnv(nameValue string) Status
	GetEnvList() (map[string]string, Status)
	// End releases the context. last is the final outcome of the sequence.
	End(last Status) Status
}

// FinalizerSafe is implemented by handles whose calls may be made from the
// garbage collector's finalizer goroutine. An Authenticator that is dropped
// without Close only releases its handle when FinalizerSafe reports true.
// Handles backed by native stacks bound to a thread must not report true.
type FinalizerSafe interface {
	FinalizerSafe() bool
}

// Account is the identity database entry for a user.
type Account struct {
	Name    string
	UID     string
	GID     string
	HomeDir string
	Shell   string
}

// IdentityDB resolves user names to account entries.
type IdentityDB interface {
	LookupAccount(name string) (*Account, error)
}

// ProcessEnv is the environment inherited by child processes.
type ProcessEnv interface {
	Getenv(key string) string
	Setenv(key, value string) error
}

// OSEnv is the ProcessEnv of the running process.
type OSEnv struct{}

func (OSEnv) Getenv(key string) string { return os.Getenv(key) }

func (OSEnv) Setenv(key, value string) error { return os.Setenv(key, value) }

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] PAM " + format(msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] PAM " + format(msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] PAM " + format(msg, args...))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] PAM " + format(msg, args...))
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

func format(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	b.WriteString("\n")
	return b.String()
}
