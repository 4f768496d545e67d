package handshake

import (
	"bytes"
	"crypto/md5"
	"hash"

	"hixie/pkg/core"
)

// DigestFunc returns a fresh 128-bit digest, or nil when the primitive is unavailable.
type DigestFunc func() hash.Hash

// Verifier checks the server's reply to a Draft76 challenge.
type Verifier struct {
	draft  core.Draft
	digest DigestFunc
}

// NewVerifier creates a Verifier for draft. A nil digest selects MD5.
func NewVerifier(draft core.Draft, digest DigestFunc) *Verifier {
	if digest == nil {
		digest = md5.New
	}
	return &Verifier{draft: draft, digest: digest}
}

// Expected returns the 16 bytes a conforming server must reply with.
func (v *Verifier) Expected(ch *Challenge) ([]byte, error) {
	h := v.digest()
	if h == nil {
		return nil, core.NewError(core.ErrorTypeEnvironment, "challenge digest", "", core.ErrDigestUnavailable).
			WithCode(core.ErrCodeDigestUnavailable)
	}
	h.Write(ch.Bytes())
	return h.Sum(nil), nil
}

// Verify reports whether reply answers ch. Draft75 has no challenge and is
// always accepted, whatever the reply. For Draft76 a missing reply or
// challenge fails, and every one of the 16 bytes must match.
func (v *Verifier) Verify(ch *Challenge, reply []byte) (bool, error) {
	if v.draft != core.Draft76 {
		return true, nil
	}
	if reply == nil || ch == nil {
		return false, nil
	}
	expected, err := v.Expected(ch)
	if err != nil {
		return false, err
	}
	if len(expected) != ChallengeSize {
		return false, core.NewError(core.ErrorTypeEnvironment, "challenge digest", "digest is not 128 bits", core.ErrDigestUnavailable).
			WithCode(core.ErrCodeDigestUnavailable)
	}
	return bytes.Equal(expected, reply), nil
}
