package subneg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecodeCharsetRequest_SplitsOnSeparator(t *testing.T) {
	req, err := DecodeCharsetRequest([]byte{';', 'U', 'T', 'F', '-', '8', ';', 'A', 'S', 'C', 'I', 'I'})
	require.NoError(t, err)
	assert.Equal(t, byte(';'), req.Sep)
	assert.Equal(t, []string{"UTF-8", "ASCII"}, req.Offers)
}

func TestDecodeCharsetRequest_Empty(t *testing.T) {
	_, err := DecodeCharsetRequest(nil)
	assert.Error(t, err)
}

func TestEncodeCharsetAccepted(t *testing.T) {
	assert.Equal(t, []byte{CharsetACCEPTED, 'U', 'T', 'F', '-', '8'}, EncodeCharsetAccepted("UTF-8"))
}

func TestEncodeCharsetRejected(t *testing.T) {
	assert.Equal(t, []byte{CharsetREJECTED}, EncodeCharsetRejected())
}

func TestDecodeCharsetAccepted(t *testing.T) {
	assert.Equal(t, "UTF-8", DecodeCharsetAccepted([]byte("UTF-8")))
}

func TestPropertyCharsetRequest_RoundTrips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sep := byte(rapid.SampledFrom([]byte{';', ' ', ','}).Draw(t, "sep"))
		n := rapid.IntRange(1, 4).Draw(t, "n")
		offers := make([]string, n)
		for i := range offers {
			offers[i] = rapid.StringMatching(`[A-Z0-9-]{1,10}`).Draw(t, "offer")
		}
		buf := []byte{sep}
		for i, o := range offers {
			if i > 0 {
				buf = append(buf, sep)
			}
			buf = append(buf, o...)
		}
		decoded, err := DecodeCharsetRequest(buf)
		require.NoError(t, err)
		assert.Equal(t, sep, decoded.Sep)
		assert.Equal(t, offers, decoded.Offers)
	})
}
