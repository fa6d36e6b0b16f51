package bridge

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidSignature is returned when a request signature does not verify.
var ErrInvalidSignature = errors.New("invalid request signature")

// ErrStaleRequest is returned when a signed timestamp is too far from now.
var ErrStaleRequest = errors.New("request timestamp outside allowed window")

// DefaultMaxSkew is how far a signed timestamp may drift from the local clock.
const DefaultMaxSkew = 5 * time.Minute

// Verifier checks Ed25519 signatures over timestamp+body, the scheme the
// chat platform uses for interaction webhooks.
type Verifier struct {
	publicKey ed25519.PublicKey
	maxSkew   time.Duration
	now       func() time.Time
}

// NewVerifier creates a Verifier from a hex-encoded public key.
func NewVerifier(publicKeyHex string) (*Verifier, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("decoding bridge public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("bridge public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return &Verifier{
		publicKey: ed25519.PublicKey(raw),
		maxSkew:   DefaultMaxSkew,
		now:       time.Now,
	}, nil
}

// Verify checks signatureHex against timestamp+body. Timestamps are unix
// seconds and must be within the allowed skew.
func (v *Verifier) Verify(signatureHex, timestamp string, body []byte) error {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return ErrInvalidSignature
	}

	secs, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	skew := v.now().Sub(time.Unix(secs, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.maxSkew {
		return ErrStaleRequest
	}

	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	if !ed25519.Verify(v.publicKey, msg, sig) {
		return ErrInvalidSignature
	}
	return nil
}
