// Package persistence implements the durable snapshot format for index data.
//
// A snapshot file is laid out as:
//
//	12-byte header: magic, format version, compression codec id
//	payload, compressed with the codec named in the header
//	4-byte CRC32 (IEEE) trailer covering header and compressed payload
//
// Files are written to a temp file and atomically renamed into place, so a
// reader never observes a half-written snapshot. Corruption that survives
// the rename (truncation, bit rot) is caught by the checksum on load.
package persistence

import "errors"

const (
	// MagicNumber identifies snapshot files (ASCII: "SSK1").
	MagicNumber = 0x53534b31

	// Version is the current snapshot format version.
	Version = 0x00010000

	headerSize  = 12
	trailerSize = 4
)

var (
	ErrInvalidMagic   = errors.New("persistence: invalid magic number")
	ErrInvalidVersion = errors.New("persistence: unsupported format version")
	ErrUnknownCodec   = errors.New("persistence: unknown compression codec")
	ErrTruncated      = errors.New("persistence: snapshot truncated")
)

// fileHeader is the fixed prefix of every snapshot file.
type fileHeader struct {
	Magic   uint32
	Version uint32
	CodecID uint8
	Padding [3]byte
}
