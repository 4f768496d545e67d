package handshake

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digitsOf(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func TestGenerateKey_RoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 5000; i++ {
		key, number := generateKey(rnd)

		spaces := strings.Count(key, " ")
		require.GreaterOrEqual(t, spaces, 1, "key %q", key)
		require.LessOrEqual(t, spaces, 12, "key %q", key)

		product, err := strconv.ParseUint(digitsOf(key), 10, 64)
		require.NoError(t, err, "key %q", key)
		require.Zero(t, product%uint64(spaces), "key %q", key)
		assert.Equal(t, uint64(number), product/uint64(spaces), "key %q", key)

		decoded, err := DecodeKey(key)
		require.NoError(t, err)
		assert.Equal(t, number, decoded)
	}
}

func TestGenerateKey_NoExtraDigits(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 5000; i++ {
		key, number := generateKey(rnd)
		spaces := strings.Count(key, " ")

		want := strconv.FormatUint(uint64(number)*uint64(spaces), 10)
		assert.Equal(t, want, digitsOf(key), "key %q", key)
	}
}

func TestGenerateKey_Shape(t *testing.T) {
	rnd := rand.New(rand.NewPCG(3, 5))

	for i := 0; i < 2000; i++ {
		key, number := generateKey(rnd)

		assert.NotEqual(t, byte(' '), key[0], "key %q starts with a space", key)
		assert.NotZero(t, number)
		for j := 0; j < len(key); j++ {
			c := key[j]
			assert.True(t, c == ' ' || (c >= 33 && c < 127), "key %q has byte %d", key, c)
		}
	}
}

func TestDecodeKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    uint32
		wantErr bool
	}{
		{"hixie_76_key1", "4 @1  46546xW%0l 1 5", 829309203, false},
		{"hixie_76_key2", "12998 5 Y3 1  .P00", 259970620, false},
		{"no_spaces", "12345", 0, true},
		{"no_digits", "a b c", 0, true},
		{"not_divisible", "1 0 1", 0, true},
		{"overflow", "99999999999 ", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
