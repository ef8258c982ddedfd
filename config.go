package vertixauth

import (
	"errors"
	"strings"
	"time"

	"github.com/vertixhq/vertixauth/session"
)

// Config holds every tunable of a SessionStore. Start from DefaultConfig and
// override fields; the Builder validates the result.
type Config struct {
	Session     SessionConfig
	Persistence PersistenceConfig
	Seal        SealConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls in-memory session handling.
type SessionConfig struct {
	// VerifyOnRestore re-checks a restored identity with the authenticator's
	// IdentityVerifier before adopting it. Rejected sessions are cleared.
	VerifyOnRestore bool
	// SubscriberBuffer is the default channel size for Subscribe(0).
	SubscriberBuffer int
}

/*
====================================
PERSISTENCE CONFIG
====================================
*/

// PersistenceConfig controls the session persistence adapter.
//
// Persistence is best effort unless Required is set. Failed reads, writes
// and clears, and corrupt payloads found by Restore, are counted in
// the store metrics (MetricPersistence*Failure, MetricRestoreCorrupt). With
// the default config those counters are the only place they show up: audit
// is off and the logger discards.
type PersistenceConfig struct {
	// Key is the single storage key. The web client used "user".
	Key string
	// Required makes persistence failures visible to callers of Login,
	// Logout and Restore. In-memory state is updated either way.
	Required bool
	// Timeout bounds each backend call. Zero means the caller's context only.
	Timeout time.Duration
	// RedisPrefix and RedisTTL apply to the backend created by
	// Builder.WithRedis.
	RedisPrefix string
	RedisTTL    time.Duration
}

/*
====================================
SEAL CONFIG
====================================
*/

// SealConfig enables signing of persisted payloads.
type SealConfig struct {
	Enabled       bool
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	TTL           time.Duration
	KeyID         string
}

// AuditConfig controls the asynchronous audit dispatcher.
//
// Audit is off by default. Store metrics are on unless
// Metrics.Enabled is cleared, so they are the observability path to rely on
// when no sink is wired. Events lost to a full buffer or a closed store are
// reported by SessionStore.AuditDropped.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			SubscriberBuffer: 8,
		},
		Persistence: PersistenceConfig{
			Key:         session.DefaultKey,
			Timeout:     2 * time.Second,
			RedisPrefix: "vertix",
		},
		Seal: SealConfig{
			SigningMethod: "hs256",
			Issuer:        "vertix",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Seal.PrivateKey = cloneBytes(cfg.Seal.PrivateKey)
	out.Seal.PublicKey = cloneBytes(cfg.Seal.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	// Session
	if c.Session.SubscriberBuffer < 0 {
		return errors.New("Session SubscriberBuffer must be >= 0")
	}

	// Persistence
	key := c.Persistence.Key
	if strings.TrimSpace(key) == "" {
		return errors.New("Persistence Key must not be empty")
	}
	if strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`+"\x00") {
		return errors.New("Persistence Key contains invalid characters")
	}
	if c.Persistence.Timeout < 0 {
		return errors.New("Persistence Timeout must be >= 0")
	}
	if c.Persistence.RedisTTL < 0 {
		return errors.New("Persistence RedisTTL must be >= 0")
	}

	// Seal
	if c.Seal.Enabled {
		switch c.Seal.SigningMethod {
		case "hs256":
			if len(c.Seal.PrivateKey) == 0 {
				return errors.New("hs256 requires PrivateKey")
			}
			if len(c.Seal.PrivateKey) < 32 {
				return errors.New("hs256 PrivateKey must be at least 32 bytes")
			}
		case "ed25519":
			if len(c.Seal.PrivateKey) == 0 {
				return errors.New("ed25519 requires PrivateKey")
			}
			if len(c.Seal.PublicKey) == 0 {
				return errors.New("ed25519 requires PublicKey")
			}
		default:
			return errors.New("unsupported Seal signing method")
		}
		if c.Seal.TTL < 0 {
			return errors.New("Seal TTL must be >= 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
