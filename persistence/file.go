package persistence

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
)

// Save writes a framed snapshot to w: header, compressed payload from
// writeFunc, CRC32 trailer.
func Save(w io.Writer, codec Codec, writeFunc func(w io.Writer) error) error {
	if codec == nil {
		codec = CodecZstd
	}

	cw := NewChecksumWriter(w)
	header := fileHeader{Magic: MagicNumber, Version: Version, CodecID: codec.ID()}
	if err := binary.Write(cw, binary.LittleEndian, &header); err != nil {
		return err
	}

	comp, err := codec.NewWriter(cw)
	if err != nil {
		return err
	}
	if err := writeFunc(comp); err != nil {
		_ = comp.Close()
		return err
	}
	if err := comp.Close(); err != nil {
		return err
	}

	// Trailer is written past the checksummed region.
	return binary.Write(w, binary.LittleEndian, cw.Sum())
}

// Load reads a framed snapshot produced by Save. The checksum is verified
// over the whole file before any payload bytes reach readFunc, so a corrupt
// snapshot never yields partially-applied state.
func Load(data []byte, readFunc func(r io.Reader) error) error {
	if len(data) < headerSize+trailerSize {
		return ErrTruncated
	}

	body := data[:len(data)-trailerSize]
	expected := binary.LittleEndian.Uint32(data[len(data)-trailerSize:])
	if actual := crc32.ChecksumIEEE(body); actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}

	var header fileHeader
	if err := binary.Read(bytes.NewReader(body[:headerSize]), binary.LittleEndian, &header); err != nil {
		return err
	}
	if header.Magic != MagicNumber {
		return ErrInvalidMagic
	}
	if header.Version != Version {
		return ErrInvalidVersion
	}

	codec, err := CodecByID(header.CodecID)
	if err != nil {
		return err
	}
	dec, err := codec.NewReader(bytes.NewReader(body[headerSize:]))
	if err != nil {
		return err
	}
	defer dec.Close()

	return readFunc(dec)
}

// SaveToFile writes a snapshot atomically: temp file in the target
// directory, fsync, rename, directory fsync. A crash mid-save leaves the
// previous snapshot intact.
func SaveToFile(filename string, codec Codec, writeFunc func(w io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	_ = tmp.Chmod(0644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := Save(buf, codec, writeFunc); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}
	tmpName = ""

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// LoadFromFile reads and verifies a snapshot file. The caller decides how to
// treat a missing file; os.IsNotExist holds for that case.
func LoadFromFile(filename string, readFunc func(r io.Reader) error) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return Load(data, readFunc)
}
