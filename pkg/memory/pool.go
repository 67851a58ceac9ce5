// Package memory pools the buffers used to read Pangolin API response bodies.
package memory

import (
	"bytes"
	"io"
	"sync"
)

// DefaultMaxRetained is the largest buffer capacity kept for reuse.
const DefaultMaxRetained = 64 * 1024

// BodyPool hands out reusable buffers for draining response bodies.
// Buffers that grew past maxRetained go to the garbage collector instead.
type BodyPool struct {
	buffers     sync.Pool
	maxRetained int
}

// NewBodyPool returns a pool that retains buffers up to maxRetained bytes.
// A non-positive maxRetained selects DefaultMaxRetained.
func NewBodyPool(maxRetained int) *BodyPool {
	if maxRetained <= 0 {
		maxRetained = DefaultMaxRetained
	}
	return &BodyPool{
		buffers:     sync.Pool{New: func() any { return new(bytes.Buffer) }},
		maxRetained: maxRetained,
	}
}

func (p *BodyPool) acquire() *bytes.Buffer {
	buf := p.buffers.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (p *BodyPool) release(buf *bytes.Buffer) {
	if buf.Cap() > p.maxRetained {
		return
	}
	p.buffers.Put(buf)
}

// ReadAll drains r and returns a copy the caller owns.
func (p *BodyPool) ReadAll(r io.Reader) ([]byte, error) {
	buf := p.acquire()
	defer p.release(buf)

	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}
