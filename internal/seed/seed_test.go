package seed

import (
	"testing"

	blst "github.com/supranational/blst/bindings/go"
)

func testKeyPair(t *testing.T, ikm byte) (*blst.SecretKey, []byte) {
	t.Helper()
	seedIkm := make([]byte, 32)
	for i := range seedIkm {
		seedIkm[i] = ikm
	}
	sk := blst.KeyGen(seedIkm)
	if sk == nil {
		t.Fatalf("key generation failed")
	}
	pub := new(blst.P1Affine).From(sk)
	return sk, pub.Compress()
}

func sign(sk *blst.SecretKey, view uint64) []byte {
	sig := new(blst.P2Affine).Sign(sk, ViewMessage(view), []byte(DomainSeparationTag))
	return sig.Compress()
}

func TestVerifierAcceptsValidSignature(t *testing.T) {
	sk, pub := testKeyPair(t, 0x11)
	v, err := NewVerifier(pub)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	sig := sign(sk, 42)
	if err := v.Verify(42, sig); err != nil {
		t.Fatalf("expected valid signature to verify, got %v", err)
	}
}

func TestVerifierRejectsWrongView(t *testing.T) {
	sk, pub := testKeyPair(t, 0x22)
	v, err := NewVerifier(pub)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	sig := sign(sk, 42)
	if err := v.Verify(43, sig); err == nil {
		t.Fatalf("expected signature over view 42 to fail verification for view 43")
	}
}

func TestVerifierRejectsWrongKey(t *testing.T) {
	sk, _ := testKeyPair(t, 0x33)
	_, otherPub := testKeyPair(t, 0x44)
	v, err := NewVerifier(otherPub)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	sig := sign(sk, 7)
	if err := v.Verify(7, sig); err == nil {
		t.Fatalf("expected signature from a different key to fail verification")
	}
}

func TestNewVerifierRejectsBadLength(t *testing.T) {
	if _, err := NewVerifier([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected short public key to be rejected")
	}
}

func TestVerifyRejectsBadSignatureLength(t *testing.T) {
	_, pub := testKeyPair(t, 0x55)
	v, err := NewVerifier(pub)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if err := v.Verify(1, []byte{1, 2, 3}); err == nil {
		t.Fatalf("expected short signature to be rejected")
	}
}
