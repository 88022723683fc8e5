package pam

import "time"

// Option customizes Authenticator construction.
type Option func(*Authenticator)

// WithLogger overrides the logger used for backend outcomes and cleanup results.
func WithLogger(logger Logger) Option {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithActivitySink sets the ActivitySink used to publish lifecycle events.
func WithActivitySink(sink ActivitySink) Option {
	return func(a *Authenticator) {
		a.activitySink = normalizeActivitySink(sink)
	}
}

// WithIdentityDB sets the account database used to build the session environment.
func WithIdentityDB(db IdentityDB) Option {
	return func(a *Authenticator) {
		if db != nil {
			a.identity = db
		}
	}
}

// WithProcessEnv sets the process side of the session environment.
func WithProcessEnv(env ProcessEnv) Option {
	return func(a *Authenticator) {
		if env != nil {
			a.process = env
		}
	}
}

// WithCloseSessionOnRelease controls whether Close ends an open session.
// Disable it when the session is closed by another owner.
func WithCloseSessionOnRelease(enabled bool) Option {
	return func(a *Authenticator) {
		a.closeSessionOnRelease = enabled
	}
}

// WithEnvironment controls whether OpenSession initializes the session environment.
func WithEnvironment(enabled bool) Option {
	return func(a *Authenticator) {
		a.initEnvironment = enabled
	}
}

// WithSilent adds the Silent flag to every backend call.
func WithSilent() Option {
	return func(a *Authenticator) {
		a.flags |= Silent
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(a *Authenticator) {
		if clock != nil {
			a.now = clock
		}
	}
}
