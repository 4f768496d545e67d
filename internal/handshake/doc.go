// Package handshake builds the client side of the draft-hixie-75/76 opening
// handshake and verifies the server's Draft76 challenge response.
//
// A Builder produces the exact bytes to write to the socket together with the
// Challenge generated for that attempt. The Challenge is a value owned by a
// single connection attempt; it is handed to a Verifier once the server's
// 16-byte reply has arrived and is never reused across reconnects.
//
// Example usage:
//
//	b := handshake.NewBuilder("*", nil)
//	req, err := b.Build(target, core.Draft76)
//	// write req.Bytes, read the reply...
//	ok, err := handshake.NewVerifier(core.Draft76, nil).Verify(req.Challenge, reply)
package handshake
