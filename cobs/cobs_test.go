package cobs

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripVariousLengths(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for _, n := range []int{0, 1, 2, 253, 254, 255, 256, 509, 510, 511, 1000, 4096} {
		data := make([]byte, n)
		r.Read(data)

		encoded := Encode(data)
		decoded, ok := Decode(encoded)
		require.True(t, ok, "length %d", n)
		assert.True(t, bytes.Equal(data, decoded), "length %d", n)
	}
}

func TestEncodeContainsExactlyOneZeroAtEnd(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	data := make([]byte, 600)
	r.Read(data)

	encoded := Encode(data)
	assert.Equal(t, byte(0), encoded[len(encoded)-1])

	zeroCount := 0
	for _, b := range encoded {
		if b == 0 {
			zeroCount++
		}
	}
	assert.Equal(t, 1, zeroCount)
}

func TestEncodeLengthBound(t *testing.T) {
	for _, n := range []int{0, 1, 254, 255, 508, 1000} {
		data := make([]byte, n)
		encoded := Encode(data)
		assert.LessOrEqual(t, len(encoded), n+MaxOverhead(n))
	}
}

func TestDecodeRejectsMissingDelimiter(t *testing.T) {
	_, ok := Decode([]byte{0x01, 0x41})
	assert.False(t, ok)
}

func TestDecodeRejectsTruncatedRun(t *testing.T) {
	// code byte claims a 5-byte run but only 1 byte follows before the
	// delimiter.
	_, ok := Decode([]byte{0x06, 0x41, 0x00})
	assert.False(t, ok)
}
