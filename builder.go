package vertixauth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vertixhq/vertixauth/jwt"
	"github.com/vertixhq/vertixauth/session"
)

// Builder assembles a SessionStore. A Builder can be used for one Build.
type Builder struct {
	config Config

	authenticator Authenticator
	backend       session.Backend
	redis         redis.UniversalClient
	sealer        session.Sealer
	auditSink     AuditSink
	logger        *slog.Logger
	now           func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. It is validated by Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAuthenticator sets the credential check used by Login. Required.
func (b *Builder) WithAuthenticator(a Authenticator) *Builder {
	b.authenticator = a
	return b
}

// WithBackend sets the durable store for the session payload.
func (b *Builder) WithBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

// WithRedis persists through client using Persistence.RedisPrefix and
// Persistence.RedisTTL. It is ignored when WithBackend is also used.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSealer installs a custom payload sealer and overrides Config.Seal.
func (b *Builder) WithSealer(sealer session.Sealer) *Builder {
	b.sealer = sealer
	return b
}

// WithAuditSink sets where audit events go. It has no effect unless
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for best-effort failures. The default
// discards everything.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for session timestamps and audit events.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the store counters. They are on by default.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns an unauthenticated store.
// It performs no I/O; call Restore to pick up a persisted session.
func (b *Builder) Build() (*SessionStore, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.authenticator == nil {
		return nil, ErrAuthenticatorRequired
	}

	backend := b.backend
	if backend == nil && b.redis != nil {
		backend = session.NewRedisBackend(b.redis, cfg.Persistence.RedisPrefix, cfg.Persistence.RedisTTL)
	}
	if backend == nil {
		return nil, ErrPersistenceRequired
	}

	var verifier IdentityVerifier
	if cfg.Session.VerifyOnRestore {
		v, ok := b.authenticator.(IdentityVerifier)
		if !ok {
			return nil, errors.New("Session VerifyOnRestore requires an authenticator implementing IdentityVerifier")
		}
		verifier = v
	}

	sealer := b.sealer
	if sealer == nil && cfg.Seal.Enabled {
		m, err := newSealer(cfg.Seal)
		if err != nil {
			return nil, err
		}
		sealer = m
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	store := &SessionStore{
		config:        cfg,
		authenticator: b.authenticator,
		verifier:      verifier,
		metrics:       NewMetrics(cfg.Metrics),
		logger:        logger,
		now:           now,
		subs:          make(map[uint64]chan Change),
	}

	adapter, err := session.NewAdapter(backend, session.AdapterConfig{
		Key:       cfg.Persistence.Key,
		Sealer:    sealer,
		OnCorrupt: store.reportCorrupt,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}
	store.adapter = adapter
	store.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	b.built = true
	return store, nil
}

func newSealer(cfg SealConfig) (*jwt.Manager, error) {
	return jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.SigningMethod),
		PrivateKey:    cfg.PrivateKey,
		PublicKey:     cfg.PublicKey,
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		TTL:           cfg.TTL,
		KeyID:         cfg.KeyID,
	})
}
