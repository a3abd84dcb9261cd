package log

import (
	"io"
	"os"
	"sync"
)

// WriterOutput writes formatted entries to an io.Writer. Writes are
// serialized so lines never interleave.
type WriterOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleOutput writes to stderr.
func NewConsoleOutput() *WriterOutput { return &WriterOutput{w: os.Stderr} }

// NewWriterOutput writes to w.
func NewWriterOutput(w io.Writer) *WriterOutput { return &WriterOutput{w: w} }

func (o *WriterOutput) Write(_ *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := o.w.Write(formatted)
	return err
}

func (o *WriterOutput) Close() error {
	if c, ok := o.w.(io.Closer); ok && o.w != os.Stderr && o.w != os.Stdout {
		return c.Close()
	}
	return nil
}

// NullOutput discards everything.
type NullOutput struct{}

func NewNullOutput() NullOutput                   { return NullOutput{} }
func (NullOutput) Write(_ *Entry, _ []byte) error { return nil }
func (NullOutput) Close() error                   { return nil }
