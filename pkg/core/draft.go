package core

// Draft identifies the revision of the pre-standard websocket handshake.
type Draft int

// Draft constants. DraftAuto lets a server accept either revision and is
// rejected for clients.
const (
	// Draft75 is draft-hixie-thewebsocketprotocol-75, which has no challenge step.
	Draft75 Draft = iota
	// Draft76 adds the Sec-WebSocket-Key1/Key2 challenge and an 8-byte nonce.
	Draft76
	// DraftAuto negotiates the draft from the peer's request (servers only).
	DraftAuto
)

// String returns the string representation of the draft ("draft75", "draft76" or "auto").
func (d Draft) String() string {
	if !d.Valid() {
		return "unknown"
	}
	return [...]string{
		"draft75",
		"draft76",
		"auto",
	}[d]
}

// Valid reports whether d is one of the known draft constants.
func (d Draft) Valid() bool {
	return d >= Draft75 && d <= DraftAuto
}

// ParseDraft converts a name such as "draft76" or "76" into a Draft.
func ParseDraft(s string) (Draft, bool) {
	switch s {
	case "draft75", "75", "hixie-75":
		return Draft75, true
	case "draft76", "76", "hixie-76", "hybi-00":
		return Draft76, true
	case "auto":
		return DraftAuto, true
	}
	return Draft75, false
}
