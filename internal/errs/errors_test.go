package errs

import (
	"errors"
	"testing"
)

func TestIsKind(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrap(KindConnect, "dial failed", base)

	if !IsKind(wrapped, KindConnect) {
		t.Fatalf("expected KindConnect, got %v", wrapped)
	}
	if IsKind(wrapped, KindSend) {
		t.Fatalf("did not expect KindSend to match")
	}
	if !errors.Is(wrapped, wrapped) {
		t.Fatalf("expected self-identity under errors.Is")
	}
}

func TestErrorMessage(t *testing.T) {
	plain := New(KindMalformedHex, "bad hex")
	if plain.Error() != "bad hex" {
		t.Fatalf("unexpected message: %q", plain.Error())
	}

	wrapped := Wrap(KindConnect, "dial failed", errors.New("refused"))
	if wrapped.Error() != "dial failed: refused" {
		t.Fatalf("unexpected wrapped message: %q", wrapped.Error())
	}
}

func TestHTTPStatusCarriesCode(t *testing.T) {
	err := HTTPStatus(503)
	if err.Status != 503 {
		t.Fatalf("status = %d, want 503", err.Status)
	}
	if err.Error() != "unexpected HTTP status: 503" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !IsKind(err, KindHTTPStatus) {
		t.Fatalf("expected KindHTTPStatus")
	}
}

func TestFatalErrorPredicate(t *testing.T) {
	if !Fatal(New(KindKernelInject, "ioctl failed")) {
		t.Fatalf("kernel inject should be fatal")
	}
	if Fatal(New(KindConnect, "refused")) {
		t.Fatalf("connect should be local")
	}
	if Fatal(errors.New("untyped")) {
		t.Fatalf("untyped errors are not fatal-class")
	}
}

func TestFatalKinds(t *testing.T) {
	fatalKinds := []Kind{KindKernelOpen, KindKernelQuery, KindKernelInject, KindMutexPoisoned, KindConfig}
	for _, k := range fatalKinds {
		if !k.Fatal() {
			t.Fatalf("expected %s to be fatal", k)
		}
	}

	localKinds := []Kind{KindConnect, KindSend, KindTruncated, KindHTTPStatus, KindFingerprintMismatch}
	for _, k := range localKinds {
		if k.Fatal() {
			t.Fatalf("expected %s to be local/retryable", k)
		}
	}
}
