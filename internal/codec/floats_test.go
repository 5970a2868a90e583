package codec_test

import (
	"testing"

	"github.com/dantte-lp/dataexchange-broker/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]float64{
		nil,
		{},
		{1.0},
		{1.0, 1.0, -2.5, 3.141592653589793},
		make([]float64, 50),
	}

	for i := range cases[4] {
		cases[4][i] = 1.0
	}

	for _, xs := range cases {
		buf := codec.Encode(xs)
		assert.Equal(t, len(xs)*8, len(buf))

		got, err := codec.Decode(buf)
		require.NoError(t, err)
		require.Equal(t, len(xs), len(got))
		for i := range xs {
			assert.Equal(t, xs[i], got[i])
		}
	}
}

func TestDecodeInvalidFraming(t *testing.T) {
	_, err := codec.Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, codec.ErrInvalidFraming)
}
