// Package iocounter provides an io.Reader and an io.Writer that track how many bytes have passed through them.
package iocounter

import "io"

// Counter counts a number of bytes during an IO operation.
type Counter interface {
	Count() uint64
}

type flusher interface {
	Flush() error
}

var (
	_ Counter       = (*Reader[io.Reader])(nil)
	_ io.ReadCloser = (*Reader[io.Reader])(nil)

	_ Counter        = (*Writer[io.Writer])(nil)
	_ io.WriteCloser = (*Writer[io.Writer])(nil)
)

// Reader wraps an io.Reader and counts the bytes read from it.
//
// A Reader is not safe for concurrent use.
type Reader[R io.Reader] struct {
	r R
	n uint64
}

// NewReader returns a Reader that reads from r.
func NewReader[R io.Reader](r R) *Reader[R] {
	return &Reader[R]{r: r}
}

// Read reads from the underlying reader. Bytes returned together with an
// error are counted as well.
func (r *Reader[R]) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.n += uint64(n)
	}
	return n, err
}

// Count returns the number of bytes read so far.
func (r *Reader[R]) Count() uint64 {
	return r.n
}

// Close closes the underlying reader if it is an io.Closer.
func (r *Reader[R]) Close() error {
	if c, ok := any(r.r).(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Unwrap returns the underlying reader.
func (r *Reader[R]) Unwrap() R {
	return r.r
}

// Writer wraps an io.Writer and counts the bytes written to it.
//
// A Writer is not safe for concurrent use.
type Writer[W io.Writer] struct {
	w W
	n uint64
}

// NewWriter returns a Writer that writes to w.
func NewWriter[W io.Writer](w W) *Writer[W] {
	return &Writer[W]{w: w}
}

// Write writes to the underlying writer. A short write reported with an
// error still counts the bytes that were accepted.
func (w *Writer[W]) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if n > 0 {
		w.n += uint64(n)
	}
	return n, err
}

// Flush flushes the underlying writer if it has a Flush method.
func (w *Writer[W]) Flush() error {
	if f, ok := any(w.w).(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close closes the underlying writer if it is an io.Closer.
func (w *Writer[W]) Close() error {
	if c, ok := any(w.w).(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Count returns the number of bytes written so far.
func (w *Writer[W]) Count() uint64 {
	return w.n
}

// Unwrap returns the underlying writer.
func (w *Writer[W]) Unwrap() W {
	return w.w
}
