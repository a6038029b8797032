package subneg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTSpeed_RoundTrip(t *testing.T) {
	speed := TSpeed{Receive: 38400, Transmit: 38400}
	encoded := EncodeTSpeedIs(speed)
	decoded, err := DecodeTSpeed(encoded[1:])
	require.NoError(t, err)
	assert.Equal(t, speed, decoded)
}

func TestTSpeed_MalformedNumericDropped(t *testing.T) {
	_, err := DecodeTSpeed([]byte("abc,def"))
	assert.Error(t, err)
}

func TestTSpeed_MissingComma(t *testing.T) {
	_, err := DecodeTSpeed([]byte("9600"))
	assert.Error(t, err)
}

func TestPropertyTSpeed_RoundTrips(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		speed := TSpeed{
			Receive:  rapid.IntRange(0, 999999).Draw(t, "rx"),
			Transmit: rapid.IntRange(0, 999999).Draw(t, "tx"),
		}
		encoded := EncodeTSpeedIs(speed)
		decoded, err := DecodeTSpeed(encoded[1:])
		require.NoError(t, err)
		assert.Equal(t, speed, decoded)
	})
}
