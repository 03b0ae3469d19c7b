package wipauth

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/wip-client/wip/pkg/wiperrors"
)

// TestComputeHashGoldenVector pins ComputeHash to the exact digest the
// reference implementation produces for packet_id=10, timestamp=123456,
// passphrase="pass" under SHA-256, so this package stays byte-for-byte
// interoperable with other implementations of the scheme.
func TestComputeHashGoldenVector(t *testing.T) {
	const wantHex = "196421ce51368f76fd2f05f8bd459e8bf06498eb483a5bb60cc1ffec7e39a454"
	mac, err := ComputeHash(SHA256, 10, 123456, "pass")
	if err != nil {
		t.Fatalf("ComputeHash: %v", err)
	}
	if got := hex.EncodeToString(mac); got != wantHex {
		t.Fatalf("got digest %s, want %s", got, wantHex)
	}
}

func TestComputeAndVerifyRoundTrip(t *testing.T) {
	mac, err := ComputeHash(SHA256, 42, 1_700_000_000, "correct horse battery staple")
	if err != nil {
		t.Fatalf("ComputeHash: %v", err)
	}
	if err := Verify(SHA256, 42, 1_700_000_000, "correct horse battery staple", mac); err != nil {
		t.Fatalf("Verify rejected a digest it just produced: %v", err)
	}
}

func TestVerifyRejectsWrongPassphrase(t *testing.T) {
	mac, err := ComputeHash(SHA256, 1, 1, "right")
	if err != nil {
		t.Fatalf("ComputeHash: %v", err)
	}
	err = Verify(SHA256, 1, 1, "wrong", mac)
	if !errors.Is(err, wiperrors.ErrAuthFailure) {
		t.Fatalf("got %v, want ErrAuthFailure", err)
	}
}

func TestVerifyRejectsTamperedDigest(t *testing.T) {
	mac, err := ComputeHash(SHA256, 1, 1, "secret")
	if err != nil {
		t.Fatalf("ComputeHash: %v", err)
	}
	mac[0] ^= 0xFF
	if err := Verify(SHA256, 1, 1, "secret", mac); !errors.Is(err, wiperrors.ErrAuthFailure) {
		t.Fatalf("got %v, want ErrAuthFailure", err)
	}
}

func TestComputeHashDiffersByPacketIDAndTimestamp(t *testing.T) {
	m1, _ := ComputeHash(SHA256, 1, 100, "secret")
	m2, _ := ComputeHash(SHA256, 2, 100, "secret")
	m3, _ := ComputeHash(SHA256, 1, 200, "secret")
	if string(m1) == string(m2) || string(m1) == string(m3) {
		t.Fatalf("digest did not change when packet_id or timestamp changed")
	}
}

func TestAlgorithmVariants(t *testing.T) {
	for _, algo := range []Algorithm{SHA256, SHA1, MD5} {
		mac, err := ComputeHash(algo, 1, 1, "secret")
		if err != nil {
			t.Fatalf("ComputeHash(%v): %v", algo, err)
		}
		if err := Verify(algo, 1, 1, "secret", mac); err != nil {
			t.Fatalf("Verify(%v): %v", algo, err)
		}
	}
}

func TestUnknownAlgorithmRejected(t *testing.T) {
	if _, err := ComputeHash(Algorithm(99), 1, 1, "secret"); !errors.Is(err, wiperrors.ErrInvalidPacket) {
		t.Fatalf("got %v, want ErrInvalidPacket", err)
	}
}
