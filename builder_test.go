package vertixauth

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/vertixhq/vertixauth/session"
)

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithAuthenticator(MockAuthenticator()).WithBackend(session.NewMemoryBackend())
	store, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer store.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuilderRequiresAuthenticatorAndBackend(t *testing.T) {
	if _, err := New().WithBackend(session.NewMemoryBackend()).Build(); !errors.Is(err, ErrAuthenticatorRequired) {
		t.Fatalf("expected ErrAuthenticatorRequired, got %v", err)
	}
	if _, err := New().WithAuthenticator(MockAuthenticator()).Build(); !errors.Is(err, ErrPersistenceRequired) {
		t.Fatalf("expected ErrPersistenceRequired, got %v", err)
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Persistence.Key = ""

	_, err := New().
		WithConfig(cfg).
		WithAuthenticator(MockAuthenticator()).
		WithBackend(session.NewMemoryBackend()).
		Build()
	if err == nil {
		t.Fatal("expected invalid config to fail Build")
	}
}

func TestBuilderVerifyOnRestoreNeedsVerifier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.VerifyOnRestore = true

	plain := AuthenticatorFunc(func(context.Context, Credentials) (Identity, error) {
		return Identity{}, ErrInvalidCredentials
	})
	_, err := New().
		WithConfig(cfg).
		WithAuthenticator(plain).
		WithBackend(session.NewMemoryBackend()).
		Build()
	if err == nil {
		t.Fatal("expected Build to require an IdentityVerifier")
	}

	store, err := New().
		WithConfig(cfg).
		WithAuthenticator(MockAuthenticator()).
		WithBackend(session.NewMemoryBackend()).
		Build()
	if err != nil {
		t.Fatalf("static authenticator verifies identities: %v", err)
	}
	store.Close()
}

func TestBuilderSealConfigCreatesSealer(t *testing.T) {
	backend := session.NewMemoryBackend()
	cfg := DefaultConfig()
	cfg.Seal.Enabled = true
	cfg.Seal.PrivateKey = bytes.Repeat([]byte("s"), 32)

	store := buildTestStore(t, backend, storeOptions{mutate: func(c *Config) { *c = cfg }})
	if _, err := store.Login(context.Background(), MockAdminEmail, MockAdminPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	raw, err := backend.Get(context.Background(), session.DefaultKey)
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if bytes.Contains(raw, []byte(`"v":1`)) {
		t.Fatalf("expected sealed payload, got %s", raw)
	}
}

func TestBuilderWithSealerOverridesConfig(t *testing.T) {
	backend := session.NewMemoryBackend()
	sealer := &recordingSealer{}

	store, err := New().
		WithAuthenticator(MockAuthenticator()).
		WithBackend(backend).
		WithSealer(sealer).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer store.Close()

	if _, err := store.Login(context.Background(), MockEmployeeEmail, MockEmployeePassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	if sealer.sealed != 1 {
		t.Fatalf("expected one sealed write, got %d", sealer.sealed)
	}
}

func TestBuilderMetricsToggles(t *testing.T) {
	store, err := New().
		WithAuthenticator(MockAuthenticator()).
		WithBackend(session.NewMemoryBackend()).
		WithMetricsEnabled(false).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer store.Close()

	_, _ = store.Login(context.Background(), MockAdminEmail, MockAdminPassword)
	if len(store.MetricsSnapshot().Counters) != 0 {
		t.Fatal("expected no counters with metrics disabled")
	}

	if _, err := New().
		WithAuthenticator(MockAuthenticator()).
		WithBackend(session.NewMemoryBackend()).
		WithMetricsEnabled(false).
		WithLatencyHistograms(true).
		Build(); err == nil {
		t.Fatal("expected latency histograms without metrics to fail")
	}
}

type recordingSealer struct{ sealed int }

func (r *recordingSealer) Seal(payload []byte) ([]byte, error) {
	r.sealed++
	return append([]byte("sealed:"), payload...), nil
}

func (r *recordingSealer) Open(sealed []byte) ([]byte, error) {
	if !bytes.HasPrefix(sealed, []byte("sealed:")) {
		return nil, errors.New("not sealed")
	}
	return sealed[len("sealed:"):], nil
}
