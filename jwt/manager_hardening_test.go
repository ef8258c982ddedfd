package jwt

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func signClaims(t *testing.T, method gjwt.SigningMethod, key any, kid string, claims SessionClaims) []byte {
	t.Helper()
	tok := gjwt.NewWithClaims(method, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	s, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return []byte(s)
}

func TestSealOpenRoundTripHS256(t *testing.T) {
	m, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte("secret-secret-secret-secret")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	payload := []byte(`{"v":1,"sid":"s1","created_at":1,"user":{"id":"a","email":"b","role":"admin"}}`)
	sealed, err := m.Seal(payload)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	opened, err := m.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, payload) {
		t.Fatalf("payload mismatch: %s", opened)
	}

	other, _ := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte("another-secret-another-secret")})
	if _, err := other.Open(sealed); err == nil {
		t.Fatal("expected payload sealed under another secret to be rejected")
	}
}

func TestSealRejectsEmptyPayloadAndMissingKey(t *testing.T) {
	pub, _ := newEdKeys(t)
	verifyOnly, err := NewManager(Config{SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := verifyOnly.Seal([]byte("x")); err != ErrSigningKeyMissing {
		t.Fatalf("expected ErrSigningKeyMissing, got %v", err)
	}

	m, _ := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte("secret-secret-secret-secret")})
	if _, err := m.Seal(nil); err != ErrEmptyPayload {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestOpenRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token := signClaims(t, gjwt.SigningMethodHS256, []byte("secret-secret-secret-secret"), "", SessionClaims{Payload: []byte("x")})
	if _, err := m.Open(token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestOpenRejectsTamperedToken(t *testing.T) {
	_, priv := newEdKeys(t)
	m, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     priv.Public().(ed25519.PublicKey),
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	sealed, err := m.Seal([]byte(`{"role":"employee"}`))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	parts := bytes.Split(sealed, []byte("."))
	if len(parts) != 3 {
		t.Fatalf("expected compact jws, got %s", sealed)
	}

	forged := SessionClaims{Payload: []byte(`{"role":"admin"}`)}
	forgedBody := signClaims(t, gjwt.SigningMethodHS256, []byte("attacker-secret-attacker"), "", forged)
	forgedParts := bytes.Split(forgedBody, []byte("."))
	spliced := bytes.Join([][]byte{parts[0], forgedParts[1], parts[2]}, []byte("."))

	if _, err := m.Open(spliced); err == nil {
		t.Fatal("expected spliced claims to fail signature check")
	}
}

func TestOpenIssuerAudienceAndLeeway(t *testing.T) {
	_, priv := newEdKeys(t)
	now := time.Unix(1700000000, 0)
	m, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     priv.Public().(ed25519.PublicKey),
		Issuer:        "vertix",
		Audience:      "web",
		TTL:           time.Hour,
		Leeway:        30 * time.Second,
		Now:           func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	sealed, err := m.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := m.Open(sealed); err != nil {
		t.Fatalf("expected valid token to open: %v", err)
	}

	wrongIssuer := SessionClaims{Payload: []byte("x"), RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "other",
		Audience:  gjwt.ClaimStrings{"web"},
		ExpiresAt: gjwt.NewNumericDate(now.Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(now),
	}}
	if _, err := m.Open(signClaims(t, gjwt.SigningMethodEdDSA, priv, "", wrongIssuer)); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}

	wrongAudience := SessionClaims{Payload: []byte("x"), RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "vertix",
		Audience:  gjwt.ClaimStrings{"mobile"},
		ExpiresAt: gjwt.NewNumericDate(now.Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(now),
	}}
	if _, err := m.Open(signClaims(t, gjwt.SigningMethodEdDSA, priv, "", wrongAudience)); err == nil {
		t.Fatal("expected wrong audience to fail")
	}

	withinLeeway := SessionClaims{Payload: []byte("x"), RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "vertix",
		Audience:  gjwt.ClaimStrings{"web"},
		ExpiresAt: gjwt.NewNumericDate(now.Add(-15 * time.Second)),
		IssuedAt:  gjwt.NewNumericDate(now.Add(-time.Hour)),
	}}
	if _, err := m.Open(signClaims(t, gjwt.SigningMethodEdDSA, priv, "", withinLeeway)); err != nil {
		t.Fatalf("expected token within leeway to open: %v", err)
	}

	expired := SessionClaims{Payload: []byte("x"), RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "vertix",
		Audience:  gjwt.ClaimStrings{"web"},
		ExpiresAt: gjwt.NewNumericDate(now.Add(-2 * time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(now.Add(-time.Hour)),
	}}
	if _, err := m.Open(signClaims(t, gjwt.SigningMethodEdDSA, priv, "", expired)); err == nil {
		t.Fatal("expected expired token to fail")
	}

	noExpiry := SessionClaims{Payload: []byte("x"), RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:   "vertix",
		Audience: gjwt.ClaimStrings{"web"},
		IssuedAt: gjwt.NewNumericDate(now),
	}}
	if _, err := m.Open(signClaims(t, gjwt.SigningMethodEdDSA, priv, "", noExpiry)); err == nil {
		t.Fatal("expected token without exp to fail when TTL is configured")
	}
}

func TestOpenRejectsFutureIssuedAt(t *testing.T) {
	now := time.Unix(1700000000, 0)
	secret := []byte("secret-secret-secret-secret")
	m, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: secret, Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	future := SessionClaims{Payload: []byte("x"), RegisteredClaims: gjwt.RegisteredClaims{
		IssuedAt: gjwt.NewNumericDate(now.Add(time.Hour)),
	}}
	if _, err := m.Open(signClaims(t, gjwt.SigningMethodHS256, secret, "", future)); err == nil {
		t.Fatal("expected future iat to fail")
	}
}

func TestOpenUnknownKidFails(t *testing.T) {
	pub1, priv1 := newEdKeys(t)
	pub2, _ := newEdKeys(t)
	m, err := NewManager(Config{
		SigningMethod: MethodEd25519,
		PrivateKey:    priv1,
		PublicKey:     pub1,
		KeyID:         "k1",
		VerifyKeys: map[string][]byte{
			"k1": pub1,
		},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := SessionClaims{Payload: []byte("x")}
	if _, err := m.Open(signClaims(t, gjwt.SigningMethodEdDSA, priv1, "k2", claims)); err == nil {
		t.Fatal("expected unknown kid failure")
	}
	if _, err := m.Open(signClaims(t, gjwt.SigningMethodEdDSA, priv1, "", claims)); err == nil {
		t.Fatal("expected missing kid failure")
	}

	good := signClaims(t, gjwt.SigningMethodEdDSA, priv1, "k1", claims)
	if _, err := m.Open(good); err != nil {
		t.Fatalf("expected known kid token to open: %v", err)
	}

	m2, _ := NewManager(Config{SigningMethod: MethodEd25519, PublicKey: pub2, VerifyKeys: map[string][]byte{"k1": pub2}})
	if _, err := m2.Open(good); err == nil {
		t.Fatal("expected open failure with mismatched key set")
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	pub, _ := newEdKeys(t)
	cases := map[string]Config{
		"unknown method":  {SigningMethod: "rs256", PrivateKey: []byte("k")},
		"hs256 no secret": {SigningMethod: MethodHS256},
		"ed no public":    {SigningMethod: MethodEd25519},
		"bad public":      {SigningMethod: MethodEd25519, PublicKey: []byte("short")},
		"negative ttl":    {SigningMethod: MethodHS256, PrivateKey: []byte("k"), TTL: -time.Second},
		"huge leeway":     {SigningMethod: MethodHS256, PrivateKey: []byte("k"), Leeway: time.Hour},
		"empty kid":       {SigningMethod: MethodEd25519, PublicKey: pub, VerifyKeys: map[string][]byte{" ": pub}},
		"kid not in set":  {SigningMethod: MethodEd25519, PublicKey: pub, KeyID: "k9", VerifyKeys: map[string][]byte{"k1": pub}},
	}
	for name, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("%s: expected config error", name)
		}
	}
}
