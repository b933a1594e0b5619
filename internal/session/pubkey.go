package session

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"

	"epf/internal/errs"
)

// LoadPublicKey reads a PEM-encoded RSA public key from path. Both the
// PKIX ("PUBLIC KEY") and PKCS#1 ("RSA PUBLIC KEY") encodings are accepted.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, "could not use public key file: "+path, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errs.New(errs.KindConfig, "no PEM block in public key file: "+path)
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, errs.Wrap(errs.KindConfig, "parse PKCS#1 public key", err)
		}
		return pub, nil
	default:
		any, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, errs.Wrap(errs.KindConfig, "parse public key", err)
		}
		pub, ok := any.(*rsa.PublicKey)
		if !ok {
			return nil, errs.New(errs.KindConfig, "public key is not RSA")
		}
		return pub, nil
	}
}
