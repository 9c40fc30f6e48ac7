// Package archive exports and imports the order log as gzip-compressed JSON
// lines, one row per line, in append order.
package archive

import (
	"bufio"
	"context"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"

	"github.com/xenking/kart-billing/internal/domain/orderlog"
)

// Writer writes rows to a compressed archive.
type Writer struct {
	gz  *pgzip.Writer
	enc jx.Encoder
	n   int
}

// NewWriter returns a Writer compressing to w. Close must be called to flush.
func NewWriter(w io.Writer) *Writer {
	return &Writer{gz: pgzip.NewWriter(w)}
}

// Write appends one row.
func (w *Writer) Write(r orderlog.Row) error {
	w.enc.Reset()
	encodeRow(&w.enc, r)
	w.enc.RawStr("\n")
	if _, err := w.gz.Write(w.enc.Bytes()); err != nil {
		return errors.Wrap(err, "write row")
	}
	w.n++
	return nil
}

// Written returns the number of rows written so far.
func (w *Writer) Written() int {
	return w.n
}

// Close flushes the compressed stream. It does not close the underlying writer.
func (w *Writer) Close() error {
	return w.gz.Close()
}

// Reader reads rows from a compressed archive.
type Reader struct {
	gz   *pgzip.Reader
	sc   *bufio.Scanner
	line int
}

// NewReader returns a Reader decompressing r.
func NewReader(r io.Reader) (*Reader, error) {
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "create gzip reader")
	}
	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &Reader{gz: gz, sc: sc}, nil
}

// Next returns the next row, or io.EOF after the last one.
func (r *Reader) Next() (orderlog.Row, error) {
	for r.sc.Scan() {
		r.line++
		b := r.sc.Bytes()
		if len(b) == 0 {
			continue
		}
		row, err := decodeRow(jx.DecodeBytes(b))
		if err != nil {
			return orderlog.Row{}, errors.Wrapf(err, "line %d", r.line)
		}
		return row, nil
	}
	if err := r.sc.Err(); err != nil {
		return orderlog.Row{}, errors.Wrap(err, "scan archive")
	}
	return orderlog.Row{}, io.EOF
}

// Close releases the decompressor.
func (r *Reader) Close() error {
	return r.gz.Close()
}

// Export writes every row of src to w in append order and returns the count.
func Export(ctx context.Context, src orderlog.Repository, w *Writer) (int, error) {
	rows, err := src.List(ctx, orderlog.Filter{})
	if err != nil {
		return 0, errors.Wrap(err, "list rows")
	}
	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return w.Written(), err
		}
		if err := w.Write(r); err != nil {
			return w.Written(), err
		}
	}
	return w.Written(), nil
}
