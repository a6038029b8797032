package stream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWriter_EscapesIAC(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, nil, nil, nil)
	n, err := w.Write([]byte{1, iac, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{1, iac, iac, 2}, buf.Bytes())
}

func TestWriter_RejectsNonASCIIWithoutBinary(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, func() bool { return false }, nil, nil)
	_, err := w.Write([]byte{0x80})
	assert.Error(t, err)
}

func TestWriter_AllowsNonASCIIWithBinary(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, func() bool { return true }, nil, nil)
	_, err := w.Write([]byte{0x80})
	assert.NoError(t, err)
}

func TestWriter_SendIACRequiresLeadingIAC(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, nil, nil, nil)
	err := w.SendIAC([]byte{1, 2})
	assert.ErrorIs(t, err, ErrNotIAC)
}

func TestWriter_SendIACWritesVerbatim(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, nil, nil, nil)
	require.NoError(t, w.SendIAC([]byte{iac, iac}))
	assert.Equal(t, []byte{iac, iac}, buf.Bytes())
}

func TestWriter_EchoGatedOnEchoOn(t *testing.T) {
	var buf bytes.Buffer
	on := false
	w := NewWriter(&buf, nil, func() bool { return on }, nil)
	require.NoError(t, w.Echo([]byte("x")))
	assert.Empty(t, buf.Bytes())

	on = true
	require.NoError(t, w.Echo([]byte("x")))
	assert.Equal(t, []byte("x"), buf.Bytes())
}

func TestWriter_DrainReportsReaderErrorFirst(t *testing.T) {
	var buf bytes.Buffer
	r := NewReader(1024, nil)
	boom := errors.New("boom")
	r.SetEOF(boom)
	w := NewWriter(&buf, nil, nil, r)
	assert.ErrorIs(t, w.Drain(), boom)
}

func TestWriter_CloseIsIdempotent(t *testing.T) {
	w := NewWriter(&nopWriteCloser{}, nil, nil, nil)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

type nopWriteCloser struct{ closed int }

func (n *nopWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (n *nopWriteCloser) Close() error                { n.closed++; return nil }

func TestPropertyWriter_EscapingDoublesEveryIACByte(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "data")
		var buf bytes.Buffer
		w := NewWriter(&buf, func() bool { return true }, nil, nil)
		_, err := w.Write(data)
		require.NoError(t, err)
		want := 0
		for _, b := range data {
			if b == iac {
				want++
			}
		}
		assert.Equal(t, len(data)+want, buf.Len())
	})
}
