package checkpoint

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// File extensions for the supported codecs.
const (
	gobExtension = ".gob"
	lz4Suffix    = ".lz4"
)

// Codec defines how a snapshot is serialized and deserialized.
type Codec interface {
	// Encode writes the snapshot to the writer.
	Encode(w io.Writer, snapshot any) error
	// Decode reads the snapshot from the reader.
	Decode(r io.Reader, snapshot any) error
	// Extension returns the snapshot file extension (e.g., ".gob").
	Extension() string
}

// GobCodec implements Codec using gob encoding. It is the default durable
// snapshot format.
type GobCodec struct{}

// NewGobCodec creates a gob codec.
func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

// Encode implements Codec.Encode using gob encoding.
func (c *GobCodec) Encode(w io.Writer, snapshot any) error {
	err := gob.NewEncoder(w).Encode(snapshot)
	if err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using gob decoding.
func (c *GobCodec) Decode(r io.Reader, snapshot any) error {
	err := gob.NewDecoder(r).Decode(snapshot)
	if err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for gob files.
func (c *GobCodec) Extension() string {
	return gobExtension
}

// LZ4Codec wraps another codec with an LZ4 frame. Accumulated payloads are
// highly repetitive across rows, so snapshots compress well.
type LZ4Codec struct {
	inner Codec
}

// NewLZ4Codec creates an LZ4 codec around the given inner codec.
func NewLZ4Codec(inner Codec) *LZ4Codec {
	return &LZ4Codec{inner: inner}
}

// Encode implements Codec.Encode: inner-encode into an LZ4 frame writer.
func (c *LZ4Codec) Encode(w io.Writer, snapshot any) error {
	zw := lz4.NewWriter(w)

	err := c.inner.Encode(zw, snapshot)
	if err != nil {
		return fmt.Errorf("lz4 encode: %w", err)
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("lz4 close: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode from an LZ4 frame reader.
func (c *LZ4Codec) Decode(r io.Reader, snapshot any) error {
	err := c.inner.Decode(lz4.NewReader(r), snapshot)
	if err != nil {
		return fmt.Errorf("lz4 decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension by suffixing the inner extension.
func (c *LZ4Codec) Extension() string {
	return c.inner.Extension() + lz4Suffix
}
