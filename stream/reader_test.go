package stream

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type fakePauseResumer struct {
	paused  bool
	pauses  int
	resumes int
}

func (f *fakePauseResumer) Pause() {
	f.paused = true
	f.pauses++
}

func (f *fakePauseResumer) Resume() {
	f.paused = false
	f.resumes++
}

func TestReader_ReadReturnsAvailableBytesWithoutBlockingToFill(t *testing.T) {
	r := NewReader(1024, nil)
	require.NoError(t, r.Feed([]byte("hello")))
	out, err := r.Read(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), out)
}

func TestReader_ReadNegativeBlocksUntilEOF(t *testing.T) {
	r := NewReader(1024, nil)
	done := make(chan []byte, 1)
	go func() {
		out, err := r.Read(context.Background(), -1)
		require.NoError(t, err)
		done <- out
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, r.Feed([]byte("part1")))
	require.NoError(t, r.Feed([]byte("part2")))
	r.SetEOF(nil)
	select {
	case out := <-done:
		assert.Equal(t, []byte("part1part2"), out)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Read(-1) to return")
	}
}

func TestReader_ReadExactly_BlocksUntilEnoughBytes(t *testing.T) {
	r := NewReader(1024, nil)
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = r.Feed([]byte("ab"))
		_ = r.Feed([]byte("cd"))
	}()
	out, err := r.ReadExactly(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), out)
}

func TestReader_ReadExactly_IncompleteOnEOF(t *testing.T) {
	r := NewReader(1024, nil)
	require.NoError(t, r.Feed([]byte("ab")))
	r.SetEOF(nil)
	_, err := r.ReadExactly(context.Background(), 4)
	require.Error(t, err)
	var incomplete *ErrIncompleteRead
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []byte("ab"), incomplete.Partial)
}

func TestReader_ReadUntil_FindsSeparator(t *testing.T) {
	r := NewReader(1024, nil)
	require.NoError(t, r.Feed([]byte("foo\r\nbar")))
	out, err := r.ReadUntil(context.Background(), []byte("\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("foo\r\n"), out)
	assert.Equal(t, 3, r.Buffered())
}

func TestReader_ReadUntil_LimitOverrun(t *testing.T) {
	r := NewReader(4, nil)
	require.NoError(t, r.Feed([]byte("aaaaaaaaaa")))
	_, err := r.ReadUntil(context.Background(), []byte("\n"))
	require.Error(t, err)
	var overrun *ErrLimitOverrun
	require.ErrorAs(t, err, &overrun)
}

func TestReader_ReadUntilPattern_LongestMatch(t *testing.T) {
	r := NewReader(1024, nil)
	re := regexp.MustCompilePOSIX(`a+`)
	require.NoError(t, r.Feed([]byte("aaab")))
	out, err := r.ReadUntilPattern(context.Background(), re)
	require.NoError(t, err)
	assert.Equal(t, []byte("aaa"), out)
}

func TestReader_PausesAtTwiceLimitAndResumesBelowLimit(t *testing.T) {
	pr := &fakePauseResumer{}
	r := NewReader(10, pr)
	require.NoError(t, r.Feed(make([]byte, 19)))
	assert.False(t, pr.paused)
	require.NoError(t, r.Feed(make([]byte, 1)))
	assert.True(t, pr.paused)

	_, err := r.ReadExactly(context.Background(), 11)
	require.NoError(t, err)
	assert.False(t, pr.paused)
}

func TestReader_SecondOutstandingReadRejected(t *testing.T) {
	r := NewReader(1024, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_, _ = r.Read(ctx, -1)
	}()
	time.Sleep(10 * time.Millisecond)
	_, err := r.Read(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAlreadyReading)
}

func TestReader_ContextCancellationUnblocksRead(t *testing.T) {
	r := NewReader(1024, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.ReadExactly(ctx, 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPropertyReader_ReadExactlyReturnsExactlyWhatWasFed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "data")
		r := NewReader(1024, nil)
		require.NoError(t, r.Feed(data))
		out, err := r.ReadExactly(context.Background(), len(data))
		require.NoError(t, err)
		assert.Equal(t, data, out)
	})
}
