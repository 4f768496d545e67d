package handshake

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strconv"
)

const (
	maxKeyNumber = 4294967295
	maxSpaces    = 12
	maxNoise     = 12

	// printable noise characters are drawn from [33, 127)
	noiseLow  = 33
	noiseHigh = 127
)

// generateKey returns one Sec-WebSocket-Key header value and the number it encodes.
//
// The key is the decimal product number*spaces with up to eleven non-digit
// characters inserted at random positions and then spaces literal space
// characters inserted anywhere but the first position.
func generateKey(rnd *rand.Rand) (string, uint32) {
	spaces := int64(rnd.IntN(maxSpaces) + 1)
	limit := maxKeyNumber / spaces
	if limit < 0 {
		limit = -limit
	}
	number := rnd.Int64N(limit) + 1

	key := []byte(strconv.FormatInt(number*spaces, 10))

	noise := rnd.IntN(maxNoise)
	for range noise {
		pos := rnd.IntN(len(key))
		ch := byte(noiseLow + rnd.IntN(noiseHigh-noiseLow))
		if ch >= '0' && ch <= '9' {
			ch -= 15
		}
		key = slices.Insert(key, pos, ch)
	}

	for range spaces {
		pos := 1
		if len(key) > 1 {
			pos = rnd.IntN(len(key)-1) + 1
		}
		key = slices.Insert(key, pos, ' ')
	}

	return string(key), uint32(number)
}

var (
	errNoSpaces     = errors.New("key contains no spaces")
	errNoDigits     = errors.New("key contains no digits")
	errNotDivisible = errors.New("key number is not a multiple of its space count")
)

// DecodeKey recovers the number encoded in a Sec-WebSocket-Key value the way a
// Draft76 server does: the digits form a product which is divided by the
// number of spaces.
func DecodeKey(key string) (uint32, error) {
	var product uint64
	var spaces uint64
	digits := 0
	for i := 0; i < len(key); i++ {
		switch c := key[i]; {
		case c >= '0' && c <= '9':
			product = product*10 + uint64(c-'0')
			digits++
			if product > maxKeyNumber {
				return 0, strconv.ErrRange
			}
		case c == ' ':
			spaces++
		}
	}
	if digits == 0 {
		return 0, errNoDigits
	}
	if spaces == 0 {
		return 0, errNoSpaces
	}
	if product%spaces != 0 {
		return 0, errNotDivisible
	}
	return uint32(product / spaces), nil
}
