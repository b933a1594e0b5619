// Package xorcipher implements the repeating-key XOR stream cipher used to
// authenticate the session key against the response body. It is involutive:
// applying it twice with the same key recovers the original bytes.
package xorcipher

import "epf/internal/errs"

// XorInplace XORs every byte of buf with key[i % len(key)], in place.
// It requires len(buf) >= 2 and len(key) >= 1.
func XorInplace(buf, key []byte) error {
	if len(buf) < 2 {
		return errs.New(errs.KindCryptoPrimitive, "xor buffer too short")
	}
	if len(key) < 1 {
		return errs.New(errs.KindCryptoPrimitive, "xor key too short")
	}
	for i := range buf {
		buf[i] ^= key[i%len(key)]
	}
	return nil
}
