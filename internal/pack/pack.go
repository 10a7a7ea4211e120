// Package pack implements the stream format used to ship negotiated
// objects from a server to a fetching client: a gzip stream of JSON
// records, one per object.
package pack

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/lodestar-vc/lodestar/internal/core"
)

type record struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
	Hash string `json:"hash"`
}

// Writer emits objects into a pack stream
type Writer struct {
	gz  *gzip.Writer
	enc *json.Encoder
}

// NewWriter wraps w in a pack stream writer
func NewWriter(w io.Writer) *Writer {
	gz := gzip.NewWriter(w)
	return &Writer{
		gz:  gz,
		enc: json.NewEncoder(gz),
	}
}

// WriteObject appends one object to the stream
func (w *Writer) WriteObject(obj *core.Object) error {
	rec := record{
		Type: string(obj.Type),
		Data: obj.Data,
		Hash: obj.Hash.String(),
	}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode pack object: %w", err)
	}
	return nil
}

// Close flushes the stream. The Writer is unusable afterwards.
func (w *Writer) Close() error {
	return w.gz.Close()
}

// Reader consumes a pack stream
type Reader struct {
	gz  *gzip.Reader
	dec *json.Decoder
}

// NewReader wraps r, which must carry a stream produced by Writer
func NewReader(r io.Reader) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open pack stream: %w", err)
	}
	return &Reader{
		gz:  gz,
		dec: json.NewDecoder(gz),
	}, nil
}

// Next returns the next object in the stream, verifying its identifier
// against the carried content. io.EOF signals the end of the pack.
func (r *Reader) Next() (*core.Object, error) {
	var rec record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode pack object: %w", err)
	}

	hash, err := core.ParseHash(rec.Hash)
	if err != nil {
		return nil, fmt.Errorf("invalid object hash in pack: %w", err)
	}

	content := append([]byte(rec.Type+" "), rec.Data...)
	if core.HashBytes(content) != hash {
		return nil, fmt.Errorf("pack object %s: %w", hash.Short(), core.ErrInvalidObject)
	}

	return &core.Object{
		Type: core.ObjectType(rec.Type),
		Data: rec.Data,
		Hash: hash,
	}, nil
}

// Close releases the underlying decompressor
func (r *Reader) Close() error {
	return r.gz.Close()
}
