package subneg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestXDisploc_RoundTrip(t *testing.T) {
	encoded := EncodeXDisplocIs("unix:0.0")
	assert.Equal(t, "unix:0.0", DecodeXDisploc(encoded[1:]))
}

func TestXDisploc_EncodeSend(t *testing.T) {
	assert.Equal(t, []byte{SubSEND}, EncodeXDisplocSend())
}

func TestSndloc_RoundTrip(t *testing.T) {
	encoded := EncodeSndloc("Room 101")
	assert.Equal(t, "Room 101", DecodeSndloc(encoded))
}

func TestPropertyXDisploc_RoundTrips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		display := rapid.StringMatching(`[a-zA-Z0-9:.]{1,20}`).Draw(t, "display")
		encoded := EncodeXDisplocIs(display)
		assert.Equal(t, display, DecodeXDisploc(encoded[1:]))
	})
}
