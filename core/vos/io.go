package vos

import (
	"bytes"
	"io"
	"sync"
)

// Stdio holds the three standard streams handed to a command.
type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewStdio creates a Stdio, nil streams are replaced with the null device.
func NewStdio(stdin io.Reader, stdout, stderr io.Writer) Stdio {
	return Stdio{
		Stdin:  readerOrNull(stdin),
		Stdout: writerOrNull(stdout),
		Stderr: writerOrNull(stderr),
	}
}

// NullStdio creates a valid /dev/null style I/O, reads return EOF and
// writes are discarded.
func NullStdio() Stdio {
	return NewStdio(nil, nil, nil)
}

// Null is the shared null device.
var Null = &devNull{}

// IsNull reports whether the stream is the null device.
func IsNull(stream interface{}) bool {
	_, ok := stream.(*devNull)
	return ok
}

func writerOrNull(w io.Writer) io.Writer {
	if w == nil {
		return Null
	}
	return w
}

func readerOrNull(r io.Reader) io.Reader {
	if r == nil {
		return Null
	}
	return r
}

// devNull implemnets io.Reader and io.Writer, always at EOF for reads and
// discarding writes.
type devNull struct{}

var _ io.ReadCloser = (*devNull)(nil)
var _ io.WriteCloser = (*devNull)(nil)

func (*devNull) Read([]byte) (int, error) {
	return 0, io.EOF
}

func (*devNull) Close() error {
	return nil
}

func (*devNull) Write(b []byte) (int, error) {
	return len(b), nil
}

// CaptureBuffer is an in-memory sink that's safe to write from several
// goroutines, used to collect the output of command substitutions.
type CaptureBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

var _ io.Writer = (*CaptureBuffer)(nil)

// Write implements io.Writer.
func (c *CaptureBuffer) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(b)
}

// String returns everything written so far.
func (c *CaptureBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}
