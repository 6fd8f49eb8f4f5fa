// Package ndjson reads newline-delimited text from a raw byte stream in
// bounded chunks, with optional per-chunk idle timeout and context
// cancellation.
package ndjson

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// chunkSize bounds each read so large outputs never require full buffering.
const chunkSize = 64 * 1024

// IdleTimeoutError reports that no chunk arrived within the configured
// idle window. It bounds "the producer stopped emitting output",
// independent of total call duration.
type IdleTimeoutError struct {
	Timeout time.Duration
}

func (e *IdleTimeoutError) Error() string {
	return "stdout idle for " + e.Timeout.String()
}

// chunk is one read result passed from the background read loop.
type chunk struct {
	err  error
	data []byte
}

// Reader yields decoded text lines from an underlying byte stream.
// Lines are split on LF with a trailing CR stripped; a non-empty partial
// line at end of stream is flushed as a final line. A Reader is
// single-consumer and non-restartable.
type Reader struct {
	src       io.Reader
	chunks    chan chunk
	closed    chan struct{}
	buf       []byte
	idle      time.Duration
	closeOnce sync.Once
	eof       bool
}

// NewReader starts reading from src. If idle is positive, each chunk read
// must complete within that duration or ReadLine fails with
// *IdleTimeoutError. The caller must Close the reader when done so the
// background read loop can be abandoned.
func NewReader(src io.Reader, idle time.Duration) *Reader {
	r := &Reader{
		src:    src,
		idle:   idle,
		chunks: make(chan chunk),
		closed: make(chan struct{}),
	}
	go r.readLoop()
	return r
}

// readLoop reads bounded chunks and hands them to ReadLine. It exits on
// the first read error (EOF included) or when the reader is closed.
func (r *Reader) readLoop() {
	buf := make([]byte, chunkSize)
	for {
		n, err := r.src.Read(buf)
		c := chunk{err: err}
		if n > 0 {
			c.data = append([]byte(nil), buf[:n]...)
		}
		select {
		case r.chunks <- c:
		case <-r.closed:
			return
		}
		if err != nil {
			return
		}
	}
}

// ReadLine returns the next line. It returns io.EOF once the stream and
// any buffered partial line are exhausted. Cancellation wins via
// context.Cause(ctx); when both cancellation and idle timeout are armed,
// whichever fires first governs the outcome.
func (r *Reader) ReadLine(ctx context.Context) (string, error) {
	for {
		if i := bytes.IndexByte(r.buf, '\n'); i >= 0 {
			line := decodeLine(r.buf[:i])
			r.buf = r.buf[i+1:]
			return line, nil
		}
		if r.eof {
			if len(r.buf) > 0 {
				line := decodeLine(r.buf)
				r.buf = nil
				return line, nil
			}
			return "", io.EOF
		}

		var timer *time.Timer
		var timeout <-chan time.Time
		if r.idle > 0 {
			timer = time.NewTimer(r.idle)
			timeout = timer.C
		}

		select {
		case c := <-r.chunks:
			if timer != nil {
				timer.Stop()
			}
			if len(c.data) > 0 {
				r.buf = append(r.buf, c.data...)
			}
			if c.err != nil {
				// EOF and mid-stream read errors both end the
				// sequence; buffered data is still yielded.
				if c.err != io.EOF {
					slog.Debug("ndjson: read error, ending stream", "err", c.err)
				}
				r.eof = true
			}
		case <-ctx.Done():
			return "", context.Cause(ctx)
		case <-timeout:
			return "", &IdleTimeoutError{Timeout: r.idle}
		}
	}
}

// Close abandons the background read loop. Any read in flight is left to
// the underlying stream's own teardown (closing the stream unblocks it).
func (r *Reader) Close() {
	r.closeOnce.Do(func() { close(r.closed) })
}

// decodeLine strips a trailing CR and replaces invalid UTF-8 rather than
// failing the read.
func decodeLine(b []byte) string {
	b = bytes.TrimSuffix(b, []byte{'\r'})
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
