package persistence

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("shapeseek snapshot payload "), 100)

	for _, codec := range []Codec{CodecNone, CodecZstd, CodecLZ4} {
		t.Run(codec.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			err := Save(&buf, codec, func(w io.Writer) error {
				_, err := w.Write(payload)
				return err
			})
			require.NoError(t, err)

			var got []byte
			err = Load(buf.Bytes(), func(r io.Reader) error {
				var err error
				got, err = io.ReadAll(r)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestLoadCorruption(t *testing.T) {
	var buf bytes.Buffer
	err := Save(&buf, CodecZstd, func(w io.Writer) error {
		_, err := w.Write([]byte("payload"))
		return err
	})
	require.NoError(t, err)

	t.Run("flipped byte", func(t *testing.T) {
		data := append([]byte(nil), buf.Bytes()...)
		data[len(data)/2] ^= 0xff
		err := Load(data, func(r io.Reader) error { return nil })
		var mismatch *ChecksumMismatchError
		assert.ErrorAs(t, err, &mismatch)
	})

	t.Run("truncated", func(t *testing.T) {
		err := Load(buf.Bytes()[:8], func(r io.Reader) error { return nil })
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("bad magic", func(t *testing.T) {
		data := append([]byte(nil), buf.Bytes()...)
		data[0] ^= 0xff
		err := Load(data, func(r io.Reader) error { return nil })
		// A damaged magic also breaks the checksum; either error is a reject.
		assert.Error(t, err)
	})
}

func TestCodecByID(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecZstd, CodecLZ4} {
		got, err := CodecByID(codec.ID())
		require.NoError(t, err)
		assert.Equal(t, codec.Name(), got.Name())
	}

	_, err := CodecByID(200)
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestSaveToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.snapshot")

	err := SaveToFile(path, CodecLZ4, func(w io.Writer) error {
		_, err := w.Write([]byte("first"))
		return err
	})
	require.NoError(t, err)

	// Overwrite is atomic; the second payload fully replaces the first.
	err = SaveToFile(path, CodecLZ4, func(w io.Writer) error {
		_, err := w.Write([]byte("second"))
		return err
	})
	require.NoError(t, err)

	var got []byte
	err = LoadFromFile(path, func(r io.Reader) error {
		var err error
		got, err = io.ReadAll(r)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	// No temp files are left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	t.Run("missing file", func(t *testing.T) {
		err := LoadFromFile(filepath.Join(dir, "missing"), func(r io.Reader) error { return nil })
		assert.True(t, os.IsNotExist(err))
	})
}
