// Package wipauth implements the passphrase-based request and response
// authentication scheme used by the protocol: a shared passphrase doubles
// as both the HMAC key and part of the signed message, so a server and
// client that agree on a passphrase never exchange it over the wire.
package wipauth

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"hash"
	"strconv"

	"github.com/wip-client/wip/pkg/wiperrors"
)

// Algorithm selects the hash function underlying the HMAC. SHA256 is the
// default; the others exist for interoperability with deployments pinned
// to an older scheme.
type Algorithm int

const (
	SHA256 Algorithm = iota
	SHA1
	MD5
)

func (a Algorithm) newHash() (func() hash.Hash, error) {
	switch a {
	case SHA256:
		return sha256.New, nil
	case SHA1:
		return sha1.New, nil
	case MD5:
		return md5.New, nil
	default:
		return nil, fmt.Errorf("%w: unknown auth algorithm %d", wiperrors.ErrInvalidPacket, a)
	}
}

// signedMessage builds the exact byte string the HMAC covers:
// "{packet_id}:{timestamp}:{passphrase}". The passphrase appears in both
// the HMAC key and the message by design, binding the digest to a
// specific (packet_id, timestamp) pair without needing a separate nonce
// channel.
func signedMessage(packetID uint16, timestamp uint64, passphrase string) string {
	return strconv.FormatUint(uint64(packetID), 10) + ":" + strconv.FormatUint(timestamp, 10) + ":" + passphrase
}

// ComputeHash returns the HMAC digest for the given packet_id/timestamp
// pair under passphrase, using algo as the underlying hash.
func ComputeHash(algo Algorithm, packetID uint16, timestamp uint64, passphrase string) ([]byte, error) {
	newHash, err := algo.newHash()
	if err != nil {
		return nil, err
	}
	mac := hmac.New(newHash, []byte(passphrase))
	mac.Write([]byte(signedMessage(packetID, timestamp, passphrase)))
	return mac.Sum(nil), nil
}

// Verify recomputes the expected digest and compares it against got in
// constant time, returning wiperrors.ErrAuthFailure on any mismatch.
func Verify(algo Algorithm, packetID uint16, timestamp uint64, passphrase string, got []byte) error {
	want, err := ComputeHash(algo, packetID, timestamp, passphrase)
	if err != nil {
		return err
	}
	if len(want) != len(got) || subtle.ConstantTimeCompare(want, got) != 1 {
		return fmt.Errorf("%w", wiperrors.ErrAuthFailure)
	}
	return nil
}
