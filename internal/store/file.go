package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sweeney/exposure-timer/internal/logger"
)

// FileSize is the size of a file-backed image, rounded up from the
// settings layout to a typical EEPROM page boundary.
const FileSize = 256

// File keeps the image in a file. Reads are served from memory; each
// changed byte is written through to its offset and synced.
type File struct {
	f    *os.File
	data []byte
	log  *logger.Logger
}

// OpenFile opens or creates the image at path. A new or short file is
// zero-padded to FileSize.
func OpenFile(path string, log *logger.Logger) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	data := make([]byte, FileSize)
	n, err := io.ReadFull(f, data)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		f.Close()
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}
	if n < FileSize {
		if _, err := f.WriteAt(data[n:], int64(n)); err != nil {
			f.Close()
			return nil, fmt.Errorf("pad store %s: %w", path, err)
		}
		log.Infow("store initialised", "path", path, "size", FileSize, "had", n)
	}

	return &File{f: f, data: data, log: log}, nil
}

// Byte returns the byte at offset.
func (s *File) Byte(offset int) (byte, error) {
	if err := checkOffset(offset, len(s.data)); err != nil {
		return 0, err
	}
	return s.data[offset], nil
}

// SetByte writes v at offset. An unchanged byte is not rewritten.
func (s *File) SetByte(offset int, v byte) error {
	if err := checkOffset(offset, len(s.data)); err != nil {
		return err
	}
	if s.data[offset] == v {
		return nil
	}
	if _, err := s.f.WriteAt([]byte{v}, int64(offset)); err != nil {
		return fmt.Errorf("write store offset %d: %w", offset, err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync store: %w", err)
	}
	s.data[offset] = v
	s.log.Debugw("store write", "offset", offset, "value", v)
	return nil
}

// Close closes the file.
func (s *File) Close() error {
	return s.f.Close()
}
