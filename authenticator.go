package pam

import (
	"context"
	"runtime"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// Authenticator drives one backend context through
// authenticate, account validation, credential establishment and session
// opening. It is not safe for concurrent use.
//
// Credentials are established in the backend if and only if State reports
// StateAuthenticated or StateSessionOpen. Close must be called, usually
// deferred, to release the context. A dropped Authenticator is only
// cleaned up for handles implementing FinalizerSafe.
type Authenticator struct {
	id      string
	service string
	handle  Handle
	creds   *credentials

	state      State
	lastStatus Status
	released   bool

	flags                 Flag
	closeSessionOnRelease bool
	initEnvironment       bool

	identity     IdentityDB
	process      ProcessEnv
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

// New starts a backend context for service and registers the credential
// bridge as its conversation.
func New(backend Backend, service string, opts ...Option) (*Authenticator, error) {
	a := &Authenticator{
		id:                    uuid.NewString(),
		service:               service,
		creds:                 &credentials{},
		state:                 StateCreated,
		lastStatus:            Success,
		closeSessionOnRelease: true,
		initEnvironment:       true,
		identity:              PasswdDB{},
		process:               OSEnv{},
		logger:                defLogger{},
		activitySink:          noopActivitySink{},
		now:                   time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	if backend == nil || service == "" {
		return nil, statusError(ErrInitialization, "start", ServiceErr, map[string]any{"service": service})
	}

	handle, status := backend.Start(service, newCredentialBridge(a.creds, a.logger))
	if status != Success || handle == nil {
		if status == Success {
			status = SystemErr
		}
		a.logger.Error("backend start failed", "service", service, "status", status)
		return nil, statusError(ErrInitialization, "start", status, map[string]any{"service": service})
	}

	a.handle = handle
	runtime.SetFinalizer(a, finalizeAuthenticator)

	a.logger.Debug("authentication context started", "service", service, "transaction", a.id)
	return a, nil
}

// Verify checks user and secret against service and releases the context.
func Verify(ctx context.Context, backend Backend, service, user, secret string, opts ...Option) error {
	authn, err := New(backend, service, opts...)
	if err != nil {
		return err
	}
	defer authn.Close()

	if err := authn.SetCredentials(user, secret); err != nil {
		return err
	}
	return authn.Authenticate(ctx)
}

// SetCredentials stores the pair answered to backend prompts. It fails
// once Authenticate has been called, since the backend keeps reading the
// same record for the rest of the context's life.
func (a *Authenticator) SetCredentials(user, secret string) error {
	if err := a.ensureActive("set_credentials"); err != nil {
		return err
	}
	if a.creds.locked {
		return ErrCredentialsLocked.Clone().WithMetadata(map[string]any{
			"transaction": a.id,
			"state":       a.state,
		})
	}

	a.creds.user = user
	a.creds.secret = secret
	return nil
}

// SetCloseSessionOnRelease controls whether Close ends an open session.
func (a *Authenticator) SetCloseSessionOnRelease(enabled bool) {
	a.closeSessionOnRelease = enabled
}

// Authenticate moves the Authenticator from StateCreated to
// StateAuthenticated. A failure after the backend accepted the credentials
// revokes them and leaves the Authenticator in StateCreated, ready for a
// new attempt.
func (a *Authenticator) Authenticate(ctx context.Context) error {
	const op = "authenticate"

	if err := a.ensureActive(op); err != nil {
		return err
	}
	if a.state != StateCreated {
		return a.outOfOrder(op)
	}

	a.creds.locked = true

	if status := a.call(a.handle.Authenticate(a.flags)); status != Success {
		err := statusError(ErrAuthenticationRejected, op, status, a.meta())
		a.logFailure(op, err)
		a.recordActivity(ctx, ActivityEventAuthFailure, a.state, a.state, status, map[string]any{"operation": op})
		return err
	}

	if status := a.call(a.handle.AcctMgmt(a.flags)); status != Success {
		return a.reset(ctx, ErrAccountInvalid, "acct_mgmt", status, ActivityEventAuthFailure)
	}

	if status := a.call(a.handle.SetCred(a.flags | EstablishCred)); status != Success {
		return a.reset(ctx, ErrCredentialEstablishment, "setcred", status, ActivityEventAuthFailure)
	}

	a.moveTo(ctx, StateAuthenticated, ActivityEventAuthSuccess, Success)
	return nil
}

// OpenSession moves the Authenticator from StateAuthenticated to
// StateSessionOpen and initializes the session environment. An environment
// error is returned with the session still open so Close can end it.
func (a *Authenticator) OpenSession(ctx context.Context) error {
	const op = "open_session"

	if err := a.ensureActive(op); err != nil {
		return err
	}
	if a.state != StateAuthenticated {
		return a.outOfOrder(op)
	}

	if status := a.call(a.handle.OpenSession(a.flags)); status != Success {
		return a.reset(ctx, ErrSession, op, status, ActivityEventSessionOpenFailure)
	}

	a.moveTo(ctx, StateSessionOpen, ActivityEventSessionOpened, Success)

	if !a.initEnvironment {
		return nil
	}

	env := environmentInitializer{
		handle:   a.handle,
		identity: a.identity,
		process:  a.process,
		logger:   a.logger,
	}
	if err := env.initialize(a.creds.user); err != nil {
		a.lastStatus = StatusOf(err)
		return err
	}
	return nil
}

// CloseSession ends an open session and keeps the credentials established.
func (a *Authenticator) CloseSession(ctx context.Context) error {
	const op = "close_session"

	if err := a.ensureActive(op); err != nil {
		return err
	}
	if a.state != StateSessionOpen {
		return a.outOfOrder(op)
	}

	if status := a.call(a.handle.CloseSession(a.flags)); status != Success {
		err := statusError(ErrSession, op, status, a.meta())
		a.logFailure(op, err)
		return err
	}

	a.moveTo(ctx, StateAuthenticated, ActivityEventSessionClosed, Success)
	return nil
}

// Environment returns the variables tracked by the backend context.
func (a *Authenticator) Environment() (map[string]string, error) {
	const op = "getenvlist"

	if err := a.ensureActive(op); err != nil {
		return nil, err
	}

	env, status := a.handle.GetEnvList()
	if status != Success {
		return nil, statusError(ErrEnvironmentAssignment, op, status, a.meta())
	}
	return env, nil
}

// Close releases the backend context. If a session is open and
// close-on-release is enabled the session is closed first; established
// credentials are always revoked. Cleanup results are logged, never
// returned. Calling Close more than once is a no-op.
func (a *Authenticator) Close() {
	if a.released {
		return
	}
	runtime.SetFinalizer(a, nil)
	a.release()
}

// State returns the current lifecycle state.
func (a *Authenticator) State() State {
	return a.state
}

// LastStatus returns the most recent backend outcome.
func (a *Authenticator) LastStatus() Status {
	return a.lastStatus
}

// User returns the user name the credentials were set for.
func (a *Authenticator) User() string {
	return a.creds.user
}

// Service returns the service name the context was started with.
func (a *Authenticator) Service() string {
	return a.service
}

// TransactionID identifies this context in logs and activity events.
func (a *Authenticator) TransactionID() string {
	return a.id
}

func (a *Authenticator) call(status Status) Status {
	a.lastStatus = status
	return status
}

// reset revokes credentials, returns to StateCreated and reports the
// status that triggered the rollback. The revoke result is discarded.
func (a *Authenticator) reset(ctx context.Context, kind *goerrors.Error, op string, status Status, event ActivityEventType) error {
	if revoked := a.handle.SetCred(a.flags | DeleteCred); revoked != Success {
		a.logger.Debug("rollback revoke result ignored", "operation", op, "status", revoked)
	}

	from := a.state
	if from != StateCreated {
		if canTransition(from, StateCreated) {
			a.state = StateCreated
		}
	}

	err := statusError(kind, op, status, a.meta())
	a.logFailure(op, err)
	a.recordActivity(ctx, event, from, a.state, status, map[string]any{"operation": op})
	a.recordActivity(ctx, ActivityEventCredentialsRevoked, from, a.state, status, nil)
	return err
}

func (a *Authenticator) moveTo(ctx context.Context, to State, event ActivityEventType, status Status) {
	from := a.state
	if !canTransition(from, to) {
		a.logger.Error("invalid state transition", "from", from, "to", to)
		return
	}
	a.state = to
	a.logger.Debug("state changed", "transaction", a.id, "from", from, "to", to)
	a.recordActivity(ctx, event, from, to, status, nil)
}

func (a *Authenticator) outOfOrder(op string) error {
	a.logger.Warn("operation rejected", "operation", op, "state", a.state)
	return statusError(ErrPermissionDenied, op, PermDenied, a.meta())
}

func (a *Authenticator) ensureActive(op string) error {
	if !a.released {
		return nil
	}
	return statusError(ErrReleased, op, Abort, a.meta())
}

// release issues the final cleanup calls: close session, revoke
// credentials, end the context. No caller remains to observe failures.
func (a *Authenticator) release() {
	ctx := context.Background()
	a.released = true

	if a.state == StateSessionOpen && a.closeSessionOnRelease {
		if status := a.handle.CloseSession(a.flags); status != Success {
			a.logger.Warn("teardown close session ignored", "transaction", a.id, "status", status)
		} else {
			a.recordActivity(ctx, ActivityEventSessionClosed, a.state, StateAuthenticated, status, nil)
		}
	}

	from := a.state
	revoked := a.handle.SetCred(a.flags | DeleteCred)
	if revoked != Success {
		a.logger.Debug("teardown revoke ignored", "transaction", a.id, "status", revoked)
	}
	a.recordActivity(ctx, ActivityEventCredentialsRevoked, from, StateCreated, revoked, nil)

	if status := a.handle.End(a.lastStatus); status != Success {
		a.logger.Warn("teardown end ignored", "transaction", a.id, "status", status)
	}

	a.state = StateCreated
	a.handle = nil
	a.recordActivity(ctx, ActivityEventReleased, from, a.state, a.lastStatus, nil)
}

// finalizeAuthenticator runs on the finalizer goroutine. Backend calls
// are only made when the handle declares itself safe to use from there;
// otherwise the context is reported as leaked and left alone.
func finalizeAuthenticator(a *Authenticator) {
	if a.released {
		return
	}
	if !finalizerSafe(a.handle) {
		a.logger.Warn("authenticator was not closed, backend context leaked", "transaction", a.id, "service", a.service)
		return
	}
	a.release()
	a.logger.Warn("authenticator was not closed, released by finalizer", "transaction", a.id, "service", a.service)
}

func finalizerSafe(h Handle) bool {
	safe, ok := h.(FinalizerSafe)
	return ok && safe.FinalizerSafe()
}

func (a *Authenticator) meta() map[string]any {
	return map[string]any{
		"transaction": a.id,
		"service":     a.service,
		"user":        a.creds.user,
		"state":       string(a.state),
	}
}

func (a *Authenticator) logFailure(op string, err *goerrors.Error) {
	a.logger.Error(
		"backend operation failed",
		"operation", op,
		"error", err.Message,
		"text_code", err.TextCode,
		"details", print.MaybePrettyJSON(err.Metadata),
	)
}

func (a *Authenticator) recordActivity(ctx context.Context, eventType ActivityEventType, from, to State, status Status, metadata map[string]any) {
	event := ActivityEvent{
		EventType:     eventType,
		TransactionID: a.id,
		Service:       a.service,
		User:          a.creds.user,
		FromState:     from,
		ToState:       to,
		Status:        status,
		Metadata:      metadata,
		OccurredAt:    a.now(),
	}

	sink := normalizeActivitySink(a.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink error", "event", eventType, "error", err)
	}
}
