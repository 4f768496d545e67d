package handshake

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hixie/pkg/core"
)

func TestBuilder_Draft75(t *testing.T) {
	b := NewBuilder("", rand.New(rand.NewPCG(1, 1)))

	req, err := b.Build(core.Target{Host: "example.com", Port: 80, Path: "/chat"}, core.Draft75)
	require.NoError(t, err)

	want := "GET /chat HTTP/1.1\r\n" +
		"Upgrade: WebSocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Host: example.com\r\n" +
		"Origin: *\r\n" +
		"\r\n"
	assert.Equal(t, want, string(req.Bytes))
	assert.Nil(t, req.Challenge)
}

func TestBuilder_HostHeaderPort(t *testing.T) {
	tests := []struct {
		name   string
		target core.Target
		want   string
	}{
		{"default_port_omitted", core.Target{Host: "example.com", Port: 80, Path: "/"}, "Host: example.com\r\n"},
		{"explicit_port_kept", core.Target{Host: "example.com", Port: 8080, Path: "/"}, "Host: example.com:8080\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewBuilder("*", nil).Build(tt.target, core.Draft75)
			require.NoError(t, err)
			assert.Contains(t, string(req.Bytes), tt.want)
		})
	}
}

func TestBuilder_CustomOrigin(t *testing.T) {
	req, err := NewBuilder("http://example.com", nil).Build(core.Target{Host: "h", Port: 80, Path: "/"}, core.Draft75)
	require.NoError(t, err)
	assert.Contains(t, string(req.Bytes), "Origin: http://example.com\r\n")
}

func TestBuilder_Draft76(t *testing.T) {
	b := NewBuilder("*", rand.New(rand.NewPCG(42, 24)))

	req, err := b.Build(core.Target{Host: "example.com", Port: 9000, Path: "/demo"}, core.Draft76)
	require.NoError(t, err)
	require.NotNil(t, req.Challenge)

	end := bytes.Index(req.Bytes, []byte("\r\n\r\n"))
	require.Positive(t, end)
	assert.Len(t, req.Bytes, end+4+8, "nonce must follow the blank line directly")
	assert.Equal(t, req.Challenge.Key3[:], req.Bytes[end+4:])

	lines := strings.Split(string(req.Bytes[:end]), "\r\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "GET /demo HTTP/1.1", lines[0])
	assert.Equal(t, "Upgrade: WebSocket", lines[1])
	assert.Equal(t, "Connection: Upgrade", lines[2])
	assert.Equal(t, "Host: example.com:9000", lines[3])
	assert.Equal(t, "Origin: *", lines[4])
	require.True(t, strings.HasPrefix(lines[5], "Sec-WebSocket-Key1: "))
	require.True(t, strings.HasPrefix(lines[6], "Sec-WebSocket-Key2: "))

	n1, err := DecodeKey(strings.TrimPrefix(lines[5], "Sec-WebSocket-Key1: "))
	require.NoError(t, err)
	n2, err := DecodeKey(strings.TrimPrefix(lines[6], "Sec-WebSocket-Key2: "))
	require.NoError(t, err)
	assert.Equal(t, req.Challenge.Number1, n1)
	assert.Equal(t, req.Challenge.Number2, n2)
}

func TestBuilder_FreshChallengePerAttempt(t *testing.T) {
	b := NewBuilder("*", rand.New(rand.NewPCG(9, 9)))
	target := core.Target{Host: "example.com", Port: 80, Path: "/"}

	first, err := b.Build(target, core.Draft76)
	require.NoError(t, err)
	second, err := b.Build(target, core.Draft76)
	require.NoError(t, err)

	assert.NotSame(t, first.Challenge, second.Challenge)
	assert.NotEqual(t, *first.Challenge, *second.Challenge)
}

func TestBuilder_RejectsAuto(t *testing.T) {
	_, err := NewBuilder("*", nil).Build(core.Target{Host: "h", Port: 80, Path: "/"}, core.DraftAuto)
	assert.ErrorIs(t, err, core.ErrServerOnlyDraft)
}

func TestBuildAndVerify(t *testing.T) {
	req, err := NewBuilder("*", nil).Build(core.Target{Host: "h", Port: 80, Path: "/"}, core.Draft76)
	require.NoError(t, err)

	v := NewVerifier(core.Draft76, nil)
	reply, err := v.Expected(req.Challenge)
	require.NoError(t, err)

	ok, err := v.Verify(req.Challenge, reply)
	require.NoError(t, err)
	assert.True(t, ok)
}
