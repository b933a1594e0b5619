// Package session implements the per-HTTP-exchange symmetric key: a fresh
// 48-byte secret, generated once, wrapped under the remote service's RSA
// public key, and never reused across exchanges.
package session

import (
	"crypto/rand"
	"crypto/rsa"

	"github.com/google/uuid"

	"epf/internal/errs"
	"epf/internal/hexcodec"
)

// KeySize is the fixed length of a session key, in bytes.
const KeySize = 48

// minWireHexChars and maxWireHexChars bound a plausible RSA-PKCS1v15
// ciphertext rendered as hex; anything outside [10, 600] is rejected
// before it reaches the RSA primitive.
const (
	minWireHexChars = 10
	maxWireHexChars = 600
)

// Token is a fresh symmetric key for one HTTP exchange. A Token is created
// at the start of a request and discarded at the end; it must never be
// reused.
type Token struct {
	key       [KeySize]byte
	pub       *rsa.PublicKey
	priv      *rsa.PrivateKey // only set on the peer holding the private key
	Correlate string          // log-only identifier, never placed on the wire
}

// New samples a fresh 48-byte key and binds it to the server's public key
// for wrapping.
func New(pub *rsa.PublicKey) (*Token, error) {
	t := &Token{pub: pub, Correlate: uuid.NewString()}
	if _, err := rand.Read(t.key[:]); err != nil {
		return nil, errs.Wrap(errs.KindCryptoPrimitive, "generate session key", err)
	}
	return t, nil
}

// Key returns the 48-byte symmetric key. The key never leaves the process
// except through Emit's RSA-wrapped ciphertext.
func (t *Token) Key() *[KeySize]byte { return &t.key }

// KeyLen reports the fixed key length.
func (t *Token) KeyLen() int { return KeySize }

// Emit encrypts the key under the bound RSA public key with PKCS#1 v1.5
// padding and returns the ciphertext hex-encoded for wire transport.
func (t *Token) Emit() (string, error) {
	if t.pub == nil {
		return "", errs.New(errs.KindCryptoPrimitive, "no public key bound to session token")
	}
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, t.pub, t.key[:])
	if err != nil {
		return "", errs.Wrap(errs.KindCryptoPrimitive, "rsa encrypt session key", err)
	}
	return hexcodec.Encode(ciphertext), nil
}

// Accept hex-decodes and RSA-decrypts a wire-form token. It is only
// meaningful on a peer holding the matching private key; kept for symmetry
// and for tests that exercise both sides of the wrap.
func Accept(priv *rsa.PrivateKey, hex string) (*Token, error) {
	if len(hex) < minWireHexChars || len(hex) > maxWireHexChars {
		return nil, errs.New(errs.KindCryptoPrimitive, "session token wire length out of bounds")
	}
	ciphertext, err := hexcodec.Decode(hex)
	if err != nil {
		return nil, err
	}
	plain, err := rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
	if err != nil {
		return nil, errs.Wrap(errs.KindCryptoPrimitive, "rsa decrypt session key", err)
	}
	if len(plain) != KeySize {
		return nil, errs.New(errs.KindCryptoPrimitive, "decrypted session key has wrong length")
	}
	t := &Token{priv: priv, Correlate: uuid.NewString()}
	copy(t.key[:], plain)
	return t, nil
}
