package pam

// Config holds Authenticator options. Every getter is applied as is, so
// a Config that returns false from GetCloseSessionOnRelease turns off
// closing the session on Close, and false from GetInitializeEnvironment
// skips the session environment. Implementations that want the New
// defaults must return true for both.
type Config interface {
	GetService() string
	GetCloseSessionOnRelease() bool
	GetInitializeEnvironment() bool
	GetSilent() bool
}

// NewFromConfig starts an Authenticator using cfg. Explicit options are
// applied after the configured ones.
func NewFromConfig(backend Backend, cfg Config, opts ...Option) (*Authenticator, error) {
	if cfg == nil {
		return New(backend, "", opts...)
	}

	base := []Option{
		WithCloseSessionOnRelease(cfg.GetCloseSessionOnRelease()),
		WithEnvironment(cfg.GetInitializeEnvironment()),
	}
	if cfg.GetSilent() {
		base = append(base, WithSilent())
	}

	return New(backend, cfg.GetService(), append(base, opts...)...)
}
