package handshake

import (
	"bytes"
	"encoding/binary"
	"math/rand/v2"

	"hixie/pkg/core"
)

// Request is an upgrade request ready to be written to the socket.
type Request struct {
	// Bytes is the full request, including the Draft76 nonce.
	Bytes []byte
	// Challenge is non-nil for Draft76 only.
	Challenge *Challenge
}

// Builder produces opening handshakes. A Builder is not safe for concurrent
// use; each client run loop owns its own.
type Builder struct {
	origin string
	rnd    *rand.Rand
}

// NewBuilder creates a Builder sending origin in the Origin header.
// A nil rnd is replaced by a freshly seeded PCG source.
func NewBuilder(origin string, rnd *rand.Rand) *Builder {
	if origin == "" {
		origin = core.DefaultOrigin
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Builder{origin: origin, rnd: rnd}
}

// Build returns the upgrade request for target. Every call generates a new
// Challenge for Draft76.
func (b *Builder) Build(target core.Target, draft core.Draft) (*Request, error) {
	switch draft {
	case core.Draft75, core.Draft76:
	default:
		return nil, core.NewError(core.ErrorTypeConfiguration, "build handshake",
			"unsupported client draft "+draft.String(), core.ErrServerOnlyDraft).WithCode(core.ErrCodeInvalidConfig)
	}

	var buf bytes.Buffer
	buf.WriteString("GET " + target.Path + " HTTP/1.1\r\n")
	buf.WriteString("Upgrade: WebSocket\r\n")
	buf.WriteString("Connection: Upgrade\r\n")
	buf.WriteString("Host: " + target.HostHeader() + "\r\n")
	buf.WriteString("Origin: " + b.origin + "\r\n")

	req := &Request{}
	if draft == core.Draft76 {
		ch := &Challenge{}
		var key1, key2 string
		key1, ch.Number1 = generateKey(b.rnd)
		key2, ch.Number2 = generateKey(b.rnd)
		binary.BigEndian.PutUint64(ch.Key3[:], b.rnd.Uint64())

		buf.WriteString("Sec-WebSocket-Key1: " + key1 + "\r\n")
		buf.WriteString("Sec-WebSocket-Key2: " + key2 + "\r\n")
		buf.WriteString("\r\n")
		buf.Write(ch.Key3[:])
		req.Challenge = ch
	} else {
		buf.WriteString("\r\n")
	}

	req.Bytes = buf.Bytes()
	return req, nil
}
