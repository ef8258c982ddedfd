package vertixauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vertixhq/vertixauth/session"
)

// SessionStore owns the one current session of an application instance.
//
// All mutation goes through Login, Logout and Restore. Each completed
// transition advances a generation counter; a Login or Restore that started
// before the latest transition is discarded with ErrSuperseded instead of
// overwriting it. Backend writes are ordered the same way, so the persisted
// state always follows the newest transition.
//
// SessionStore is safe for concurrent use.
type SessionStore struct {
	config        Config
	authenticator Authenticator
	verifier      IdentityVerifier
	adapter       *session.Adapter
	metrics       *Metrics
	audit         *auditDispatcher
	logger        *slog.Logger
	now           func() time.Time

	mu         sync.Mutex
	current    *session.Session
	generation uint64
	inflight   int
	closed     bool
	subs       map[uint64]chan Change
	nextSub    uint64

	persistMu sync.Mutex
}

// Current returns a copy of the current session.
func (s *SessionStore) Current() (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, false
	}
	return s.current.Clone(), true
}

// State reports Authenticated when a session is current.
func (s *SessionStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Loading reports whether a Login or Restore is in flight. Callers that
// render from Current should treat the value as provisional while true.
func (s *SessionStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Generation returns the number of transitions applied so far.
func (s *SessionStore) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Login authenticates the pair and adopts the resulting identity as a new
// session, replacing any current one.
//
// Authentication failures are returned unchanged and leave the state as it
// was. If ctx is done before adoption the session is dropped and ctx.Err()
// returned. Once adopted, the session is persisted; a write failure is
// reported and, with Persistence.Required, returned wrapped in
// ErrPersistenceWrite together with the adopted session.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*session.Session, error) {
	start := time.Now()
	gen, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer s.end()

	id, err := s.authenticator.Authenticate(ctx, Credentials{Email: email, Password: password})
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		if verr := id.Validate(); verr != nil {
			err = fmt.Errorf("authenticator returned invalid identity: %w", verr)
		}
	}
	if err != nil {
		s.loginFailed(ctx, err)
		return nil, err
	}

	sess := session.New(id, s.now())
	adopted, err := s.adopt(gen, sess, ReasonLogin)
	if err != nil {
		s.loginFailed(ctx, err)
		return nil, err
	}

	s.metricInc(MetricLoginSuccess)
	s.metricInc(MetricSessionCreated)
	s.metricObserve(MetricLoginLatency, start)
	s.emitAudit(ctx, auditEventLoginSuccess, true, sess, nil, nil)

	if err := s.save(ctx, adopted, sess); err != nil && s.config.Persistence.Required {
		return sess.Clone(), fmt.Errorf("%w: %v", ErrPersistenceWrite, err)
	}
	return sess.Clone(), nil
}

// Logout clears the in-memory session, then the persisted one. The memory
// clear always happens; calling Logout while unauthenticated is a no-op
// success that still clears persistence.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.generation++
	gen := s.generation
	if prev != nil {
		s.notifyLocked(Change{
			Previous:   Authenticated,
			State:      Unauthenticated,
			Reason:     ReasonLogout,
			Generation: gen,
		})
	}
	s.mu.Unlock()

	s.metricInc(MetricLogout)
	if prev != nil {
		s.metricInc(MetricSessionCleared)
	}
	s.emitAudit(ctx, auditEventLogout, true, prev, nil, nil)

	if err := s.clear(ctx, gen, prev); err != nil && s.config.Persistence.Required {
		return fmt.Errorf("%w: %v", ErrPersistenceWrite, err)
	}
	return nil
}

// Restore adopts the persisted session, if any, without contacting the
// authenticator unless Session.VerifyOnRestore is set. It is meant to run
// once at start.
//
// A missing or unreadable payload leaves the store unauthenticated and
// returns nil. A backend read failure is reported and only returned, wrapped
// in ErrPersistenceRead, with Persistence.Required.
func (s *SessionStore) Restore(ctx context.Context) error {
	gen, err := s.begin()
	if err != nil {
		return err
	}
	defer s.end()

	// Held from load to adoption so a concurrent Logout cannot clear the
	// backend in between and have its transition undone.
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	opCtx, cancel := s.opContext(ctx)
	sess, err := s.adapter.Load(opCtx)
	cancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.reportPersistence(ctx, auditEventPersistenceReadFailure, MetricPersistenceReadFailure, nil, err)
		if s.config.Persistence.Required {
			return fmt.Errorf("%w: %v", ErrPersistenceRead, err)
		}
		return nil
	}
	if sess == nil {
		s.metricInc(MetricRestoreEmpty)
		return nil
	}

	if s.verifier != nil {
		if err := s.verifier.VerifyIdentity(ctx, sess.Identity); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if !errors.Is(err, ErrIdentityRejected) {
				return fmt.Errorf("verify restored identity: %w", err)
			}
			s.metricInc(MetricRestoreRejected)
			s.emitAudit(ctx, auditEventRestoreRejected, false, sess, err, nil)
			if s.Generation() == gen {
				_ = s.clearLocked(ctx, sess)
			}
			return nil
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.adopt(gen, sess, ReasonRestore); err != nil {
		return err
	}
	s.metricInc(MetricRestoreSuccess)
	s.emitAudit(ctx, auditEventRestoreSuccess, true, sess, nil, nil)
	return nil
}

// Subscribe returns a channel that receives every subsequent Change and a
// function that cancels the subscription. Delivery never blocks the store:
// a full channel misses the event. A buffer of zero or less uses
// Session.SubscriberBuffer.
func (s *SessionStore) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer <= 0 {
		buffer = s.config.Session.SubscriberBuffer
	}
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close ends all subscriptions and drains the audit queue. Login and Restore
// fail with ErrStoreClosed afterwards; Logout still clears state.
func (s *SessionStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	s.audit.Close()
}

// MetricsSnapshot returns the store's counters.
func (s *SessionStore) MetricsSnapshot() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// AuditDropped returns how many audit events were lost to backpressure.
func (s *SessionStore) AuditDropped() uint64 {
	return s.audit.Dropped()
}

func (s *SessionStore) stateLocked() State {
	if s.current == nil {
		return Unauthenticated
	}
	return Authenticated
}

func (s *SessionStore) begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	s.inflight++
	return s.generation, nil
}

func (s *SessionStore) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

// adopt installs sess if no transition happened since gen and returns the
// new generation.
func (s *SessionStore) adopt(gen uint64, sess *session.Session, reason ChangeReason) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	if s.generation != gen {
		return 0, ErrSuperseded
	}

	prev := s.stateLocked()
	s.current = sess
	s.generation++
	s.notifyLocked(Change{
		Previous:   prev,
		State:      Authenticated,
		Reason:     reason,
		Session:    sess,
		Generation: s.generation,
	})
	return s.generation, nil
}

func (s *SessionStore) notifyLocked(c Change) {
	for _, ch := range s.subs {
		out := c
		out.Session = c.Session.Clone()
		select {
		case ch <- out:
		default:
		}
	}
}

func (s *SessionStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Persistence.Timeout > 0 {
		return context.WithTimeout(ctx, s.config.Persistence.Timeout)
	}
	return context.WithCancel(ctx)
}

// save and clear skip the backend when a newer transition already owns it.
// Both detach from the caller's cancellation: the in-memory transition has
// already happened and the backend has to follow it.
func (s *SessionStore) save(ctx context.Context, gen uint64, sess *session.Session) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.Generation() != gen {
		return nil
	}

	opCtx, cancel := s.opContext(context.WithoutCancel(ctx))
	defer cancel()
	if err := s.adapter.Save(opCtx, sess); err != nil {
		s.reportPersistence(ctx, auditEventPersistenceWriteFailure, MetricPersistenceWriteFailure, sess, err)
		return err
	}
	return nil
}

func (s *SessionStore) clear(ctx context.Context, gen uint64, prev *session.Session) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.Generation() != gen {
		return nil
	}
	return s.clearLocked(ctx, prev)
}

// clearLocked requires persistMu.
func (s *SessionStore) clearLocked(ctx context.Context, prev *session.Session) error {
	opCtx, cancel := s.opContext(context.WithoutCancel(ctx))
	defer cancel()
	if err := s.adapter.Clear(opCtx); err != nil {
		s.reportPersistence(ctx, auditEventPersistenceClearFailure, MetricPersistenceClearFailure, prev, err)
		return err
	}
	return nil
}

func (s *SessionStore) loginFailed(ctx context.Context, err error) {
	switch {
	case errors.Is(err, ErrSuperseded):
		s.metricInc(MetricLoginSuperseded)
	case Classify(err) == FailureCanceled:
		s.metricInc(MetricLoginCanceled)
	default:
		s.metricInc(MetricLoginFailure)
	}
	s.emitAudit(ctx, auditEventLoginFailure, false, nil, err, nil)
}
