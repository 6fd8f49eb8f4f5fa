package ndjson

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAll drains the reader, returning every line before the first error.
func readAll(ctx context.Context, r *Reader) ([]string, error) {
	var lines []string
	for {
		line, err := r.ReadLine(ctx)
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
}

func TestReadLine_SplitsOnLF(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader("one\ntwo\nthree\n"), 0)
	defer r.Close()

	lines, err := readAll(context.Background(), r)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}

func TestReadLine_FlushesTrailingPartialLine(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader("one\npartial"), 0)
	defer r.Close()

	lines, err := readAll(context.Background(), r)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"one", "partial"}, lines)
}

func TestReadLine_StripsCR(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader("one\r\ntwo\r\n"), 0)
	defer r.Close()

	lines, err := readAll(context.Background(), r)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestReadLine_EmptyStream(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader(""), 0)
	defer r.Close()

	lines, err := readAll(context.Background(), r)
	assert.Equal(t, io.EOF, err)
	assert.Empty(t, lines)
}

func TestReadLine_ReplacesInvalidUTF8(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader("ok\xff\xfe\n"), 0)
	defer r.Close()

	line, err := r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok�", line)
}

// errAfterReader yields its payload, then a non-EOF error.
type errAfterReader struct {
	payload string
	served  bool
}

func (r *errAfterReader) Read(p []byte) (int, error) {
	if !r.served {
		r.served = true
		return copy(p, r.payload), nil
	}
	return 0, errors.New("pipe burst")
}

func TestReadLine_ReadErrorStillYieldsBufferedData(t *testing.T) {
	t.Parallel()
	r := NewReader(&errAfterReader{payload: "complete\nbuffered"}, 0)
	defer r.Close()

	lines, err := readAll(context.Background(), r)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"complete", "buffered"}, lines)
}

func TestReadLine_CancellationWins(t *testing.T) {
	t.Parallel()
	pr, pw := io.Pipe()
	defer pw.Close()
	r := NewReader(pr, 0)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := r.ReadLine(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadLine_IdleTimeoutCarriesDuration(t *testing.T) {
	t.Parallel()
	pr, pw := io.Pipe()
	defer pw.Close()
	r := NewReader(pr, 50*time.Millisecond)
	defer r.Close()

	_, err := r.ReadLine(context.Background())
	var idleErr *IdleTimeoutError
	require.ErrorAs(t, err, &idleErr)
	assert.Equal(t, 50*time.Millisecond, idleErr.Timeout)
}

func TestReadLine_IdleTimerResetsPerChunk(t *testing.T) {
	t.Parallel()
	pr, pw := io.Pipe()
	r := NewReader(pr, 80*time.Millisecond)
	defer r.Close()

	// Three chunks each arriving within the idle window, spanning one line.
	go func() {
		defer pw.Close()
		for _, chunk := range []string{"sl", "ow", "-line\n"} {
			time.Sleep(40 * time.Millisecond)
			_, _ = io.WriteString(pw, chunk)
		}
	}()

	line, err := r.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "slow-line", line)
}
