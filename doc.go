// Package pam authenticates users against a pluggable authentication
// backend and manages the lifecycle of the resulting session.
//
// Lifecycle:
//   - New starts a backend context and registers a conversation that
//     answers prompts from a pre-supplied credential pair. Echo-on prompts
//     receive the user name, echo-off prompts the secret, informational
//     messages are acknowledged without an answer. Nothing is ever prompted
//     interactively.
//   - Authenticate runs authentication, account validation and credential
//     establishment. OpenSession opens a session and sets USER, LOGNAME,
//     HOME, PWD, SHELL and PATH in both the process and the backend
//     environment.
//   - Any failure after the backend accepted the credentials revokes them
//     and returns the Authenticator to StateCreated.
//   - Close, usually deferred, closes an open session, revokes credentials
//     and ends the context exactly once.
//
// Backends:
//   - backend/libpam talks to the host PAM stack (cgo).
//   - backend/userdb is a file backed simulation for development and tests.
//
// The environment step mutates process wide state. Callers driving several
// Authenticators concurrently must serialize OpenSession themselves.
package pam
