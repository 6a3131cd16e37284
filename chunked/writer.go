package chunked

import (
	"bufio"
	"io"
	"strconv"
)

var crlf = []byte("\r\n")

// Writer frames chunks onto an underlying writer using chunked transfer
// encoding, invoking its extensions once per chunk and embedding each
// returned annotation on the chunk-size line.
//
// Close writes the terminal zero-length chunk. The final chunk also runs
// through the extensions, so a signature extension can annotate it.
type Writer struct {
	w      *bufio.Writer
	exts   []Extension
	closed bool
}

// NewWriter returns a Writer framing onto w with the given extensions.
func NewWriter(w io.Writer, exts ...Extension) *Writer {
	return &Writer{
		w:    bufio.NewWriter(w),
		exts: exts,
	}
}

// WriteChunk frames one chunk. Zero-length chunks are skipped: a
// zero-size chunk terminates the encoding and is written by Close.
func (cw *Writer) WriteChunk(chunk []byte) error {
	if cw.closed {
		return ErrWriterClosed
	}
	if len(chunk) == 0 {
		return nil
	}

	if err := cw.writeFrame(chunk); err != nil {
		return err
	}
	if _, err := cw.w.Write(chunk); err != nil {
		return err
	}
	if _, err := cw.w.Write(crlf); err != nil {
		return err
	}

	return cw.w.Flush()
}

// Close writes the terminal zero-length chunk, the trailer-ending CRLF,
// and flushes. Further writes return ErrWriterClosed.
func (cw *Writer) Close() error {
	if cw.closed {
		return ErrWriterClosed
	}
	cw.closed = true

	if err := cw.writeFrame(nil); err != nil {
		return err
	}
	if _, err := cw.w.Write(crlf); err != nil {
		return err
	}

	return cw.w.Flush()
}

// writeFrame writes the chunk-size line: the hex size, the extensions,
// and the terminating CRLF.
func (cw *Writer) writeFrame(chunk []byte) error {
	if _, err := cw.w.WriteString(strconv.FormatInt(int64(len(chunk)), 16)); err != nil {
		return err
	}

	for _, ext := range cw.exts {
		ann, ok := ext.Compute(chunk)
		if !ok {
			continue
		}
		if err := cw.w.WriteByte(';'); err != nil {
			return err
		}
		if _, err := cw.w.Write(ann.Name); err != nil {
			return err
		}
		if len(ann.Value) == 0 {
			continue
		}
		if err := cw.w.WriteByte('='); err != nil {
			return err
		}
		if _, err := cw.w.Write(ann.Value); err != nil {
			return err
		}
	}

	_, err := cw.w.Write(crlf)
	return err
}
