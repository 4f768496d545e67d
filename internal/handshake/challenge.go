package handshake

import "encoding/binary"

// ChallengeSize is the length of the challenge buffer and of the server's reply.
const ChallengeSize = 16

// Challenge holds the secrets of one Draft76 connection attempt.
type Challenge struct {
	// Number1 is the number encoded in Sec-WebSocket-Key1.
	Number1 uint32
	// Number2 is the number encoded in Sec-WebSocket-Key2.
	Number2 uint32
	// Key3 is the nonce sent after the header block.
	Key3 [8]byte
}

// Bytes returns BE(Number1) || BE(Number2) || Key3.
func (c *Challenge) Bytes() []byte {
	buf := make([]byte, ChallengeSize)
	binary.BigEndian.PutUint32(buf[0:4], c.Number1)
	binary.BigEndian.PutUint32(buf[4:8], c.Number2)
	copy(buf[8:], c.Key3[:])
	return buf
}
