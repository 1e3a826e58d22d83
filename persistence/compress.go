package persistence

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifiers are part of the on-disk format; never reuse them.
const (
	CodecNoneID uint8 = 0
	CodecZstdID uint8 = 1
	CodecLZ4ID  uint8 = 2
)

// Codec compresses snapshot payloads. The codec used on save is recorded in
// the file header, so loading does not depend on configuration.
type Codec interface {
	ID() uint8
	Name() string
	NewWriter(w io.Writer) (io.WriteCloser, error)
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// CodecByID resolves a codec recorded in a snapshot header.
func CodecByID(id uint8) (Codec, error) {
	switch id {
	case CodecNoneID:
		return CodecNone, nil
	case CodecZstdID:
		return CodecZstd, nil
	case CodecLZ4ID:
		return CodecLZ4, nil
	default:
		return nil, fmt.Errorf("%w: id %d", ErrUnknownCodec, id)
	}
}

var (
	// CodecNone stores the payload uncompressed.
	CodecNone Codec = noneCodec{}
	// CodecZstd is the default: good ratio at fast speeds.
	CodecZstd Codec = zstdCodec{}
	// CodecLZ4 trades ratio for the fastest decompression.
	CodecLZ4 Codec = lz4Codec{}
)

type noneCodec struct{}

func (noneCodec) ID() uint8    { return CodecNoneID }
func (noneCodec) Name() string { return "none" }

func (noneCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (noneCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type zstdCodec struct{}

func (zstdCodec) ID() uint8    { return CodecZstdID }
func (zstdCodec) Name() string { return "zstd" }

func (zstdCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

func (zstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

type lz4Codec struct{}

func (lz4Codec) ID() uint8    { return CodecLZ4ID }
func (lz4Codec) Name() string { return "lz4" }

func (lz4Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}

func (lz4Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}
