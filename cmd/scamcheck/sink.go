package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// compressedSink backs the "zstd" zap sink. Each session closes with its own
// zstd frame, so an existing log is continued rather than rewritten.
type compressedSink struct {
	frames *zstd.Encoder
	file   *os.File
}

// newCompressedSink handles zstd:///path/to/log[?level=fastest|default|better|best].
func newCompressedSink(u *url.URL) (zap.Sink, error) {
	level := zstd.SpeedFastest
	if name := u.Query().Get("level"); name != "" {
		var ok bool
		if ok, level = zstd.EncoderLevelFromString(name); !ok {
			return nil, fmt.Errorf("zstd sink: unknown level %q", name)
		}
	}

	file, err := openLogForFrames(u.Path)
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(file, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, errors.Join(err, file.Close())
	}
	return &compressedSink{frames: encoder, file: file}, nil
}

// openLogForFrames opens path positioned for a new frame: at the end when the
// file already holds zstd data, at an emptied file otherwise.
func openLogForFrames(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	if hasZstdMagic(file) {
		_, err = file.Seek(0, io.SeekEnd)
	} else {
		err = file.Truncate(0)
		if err == nil {
			_, err = file.Seek(0, io.SeekStart)
		}
	}
	if err != nil {
		return nil, errors.Join(err, file.Close())
	}
	return file, nil
}

func hasZstdMagic(r io.Reader) bool {
	header := make([]byte, len(zstdMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return false
	}
	return bytes.Equal(header, zstdMagic)
}

// Write counts the uncompressed bytes taken, which is what zap expects back.
func (s *compressedSink) Write(p []byte) (int, error) {
	if _, err := s.frames.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *compressedSink) Sync() error {
	if err := s.frames.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *compressedSink) Close() error {
	return errors.Join(s.frames.Close(), s.file.Close())
}
