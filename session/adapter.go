package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultKey is the storage key the web client has always used.
const DefaultKey = "user"

// Sealer protects the encoded payload at rest. Open must fail for any input
// that Seal did not produce with the same key material.
type Sealer interface {
	Seal(payload []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// CorruptHandler receives decode failures that Load swallowed.
type CorruptHandler func(ctx context.Context, err error)

// AdapterConfig configures an [Adapter].
type AdapterConfig struct {
	// Key is the single storage key. Empty means [DefaultKey].
	Key string
	// Sealer, when set, wraps every payload written and is required to open
	// every payload read.
	Sealer Sealer
	// OnCorrupt is called when Load discards an unreadable payload.
	OnCorrupt CorruptHandler
	// Now overrides the clock used when migrating legacy payloads.
	Now func() time.Time
}

// Adapter saves, loads and clears the one persisted session.
type Adapter struct {
	backend   Backend
	key       string
	sealer    Sealer
	onCorrupt CorruptHandler
	now       func() time.Time
}

// NewAdapter binds backend to a single well-known key.
func NewAdapter(backend Backend, cfg AdapterConfig) (*Adapter, error) {
	if backend == nil {
		return nil, errors.New("session adapter requires a backend")
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Adapter{
		backend:   backend,
		key:       cfg.Key,
		sealer:    cfg.Sealer,
		onCorrupt: cfg.OnCorrupt,
		now:       cfg.Now,
	}, nil
}

// Key returns the storage key.
func (a *Adapter) Key() string { return a.key }

// Save encodes s and writes it under the adapter's key.
func (a *Adapter) Save(ctx context.Context, s *Session) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if a.sealer != nil {
		data, err = a.sealer.Seal(data)
		if err != nil {
			return fmt.Errorf("seal session: %w", err)
		}
	}
	return a.backend.Set(ctx, a.key, data)
}

// Load reads the persisted session.
//
// It returns (nil, nil) when nothing is stored and also when the stored
// payload cannot be opened or decoded; the latter is reported to OnCorrupt
// instead of the caller. Only backend failures are returned as errors.
// Legacy payloads are upgraded to the current schema and rewritten.
func (a *Adapter) Load(ctx context.Context) (*Session, error) {
	data, err := a.backend.Get(ctx, a.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if a.sealer != nil {
		opened, err := a.sealer.Open(data)
		if err != nil {
			a.reportCorrupt(ctx, fmt.Errorf("%w: %v", ErrMalformedPayload, err))
			return nil, nil
		}
		data = opened
	}

	s, err := Decode(data)
	if err != nil {
		a.reportCorrupt(ctx, err)
		return nil, nil
	}

	if s.SchemaVersion == LegacySchemaVersion {
		s.SchemaVersion = CurrentSchemaVersion
		s.SessionID = uuid.NewString()
		s.CreatedAt = a.now().Unix()
		if err := a.Save(ctx, s); err != nil {
			// The in-memory upgrade still stands; the next Save rewrites it.
			return s, nil
		}
	}

	return s, nil
}

// Clear removes the persisted session. Clearing an empty key succeeds.
func (a *Adapter) Clear(ctx context.Context) error {
	return a.backend.Delete(ctx, a.key)
}

func (a *Adapter) reportCorrupt(ctx context.Context, err error) {
	if a.onCorrupt != nil {
		a.onCorrupt(ctx, err)
	}
}
