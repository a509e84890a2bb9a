package vos

import (
	"fmt"
	"os"
	"sync"
)

// Pipe is a unidirectional OS pipe. Each end has exactly one owner which
// closes it when done, closing the writer delivers EOF to the reader.
type Pipe struct {
	Reader *os.File
	Writer *os.File

	closeReader sync.Once
	closeWriter sync.Once
}

// NewPipe creates a pipe backed by os.Pipe so spawned processes can use the
// descriptors directly.
func NewPipe() (*Pipe, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating pipe: %w", err)
	}
	return &Pipe{Reader: r, Writer: w}, nil
}

// CloseReader closes the read end, further writes fail with a broken pipe.
func (p *Pipe) CloseReader() {
	p.closeReader.Do(func() { p.Reader.Close() })
}

// CloseWriter closes the write end.
func (p *Pipe) CloseWriter() {
	p.closeWriter.Do(func() { p.Writer.Close() })
}

// Close closes both ends.
func (p *Pipe) Close() {
	p.CloseReader()
	p.CloseWriter()
}
