// Package memory models the on-chip RAM that holds the program and its data.
package memory

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/komandara/k10fabric/fabric/bus"
)

// Storage is a little-endian byte array accessed one word at a time.
type Storage struct {
	data []byte
}

// New creates a storage of the given number of bytes. The size is rounded up
// to a whole word.
func New(size uint32) *Storage {
	words := (uint64(size) + bus.NumByteLanes - 1) / bus.NumByteLanes

	return &Storage{data: make([]byte, words*bus.NumByteLanes)}
}

// Size returns the number of bytes.
func (s *Storage) Size() uint32 {
	return uint32(len(s.data))
}

func (s *Storage) wordIndex(offset uint32) (uint32, error) {
	aligned := offset &^ (bus.NumByteLanes - 1)
	if uint64(aligned)+bus.NumByteLanes > uint64(len(s.data)) {
		return 0, errors.Errorf(
			"offset 0x%x is outside the memory of %d bytes", offset, len(s.data))
	}

	return aligned, nil
}

// Read returns the word that holds the offset.
func (s *Storage) Read(offset uint32) (uint32, error) {
	i, err := s.wordIndex(offset)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(s.data[i:]), nil
}

// Write updates the enabled byte lanes of the word that holds the offset.
func (s *Storage) Write(offset uint32, data uint32, mask uint8) error {
	i, err := s.wordIndex(offset)
	if err != nil {
		return err
	}

	old := binary.LittleEndian.Uint32(s.data[i:])
	binary.LittleEndian.PutUint32(s.data[i:], bus.ApplyMask(old, data, mask))

	return nil
}

// ReadWord reads a word and panics if the offset is out of range.
func (s *Storage) ReadWord(offset uint32) uint32 {
	v, err := s.Read(offset)
	if err != nil {
		panic(err)
	}

	return v
}

// WriteWord writes a whole word and panics if the offset is out of range.
func (s *Storage) WriteWord(offset uint32, data uint32) {
	if err := s.Write(offset, data, bus.FullMask); err != nil {
		panic(err)
	}
}

// Clear zeroes the storage.
func (s *Storage) Clear() {
	clear(s.data)
}

// LoadHex loads a memory image. Each line holds one hexadecimal word. A line
// starting with @ moves the load position to the given word address. Blank
// lines and text after // or # are ignored.
func (s *Storage) LoadHex(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	wordAddr := uint64(0)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		for _, field := range strings.Fields(line) {
			if addr, ok := strings.CutPrefix(field, "@"); ok {
				v, err := strconv.ParseUint(addr, 16, 32)
				if err != nil {
					return errors.Wrapf(err, "line %d: bad address %q", lineNo, field)
				}

				wordAddr = v

				continue
			}

			v, err := strconv.ParseUint(field, 16, 32)
			if err != nil {
				return errors.Wrapf(err, "line %d: bad word %q", lineNo, field)
			}

			offset := wordAddr * bus.NumByteLanes
			if offset+bus.NumByteLanes > uint64(len(s.data)) {
				return errors.Errorf(
					"line %d: word address 0x%x is outside the memory", lineNo, wordAddr)
			}

			binary.LittleEndian.PutUint32(s.data[offset:], uint32(v))
			wordAddr++
		}
	}

	return errors.Wrap(scanner.Err(), "reading memory image")
}

// LoadHexFile loads a memory image from a file.
func (s *Storage) LoadHexFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening memory image")
	}
	defer f.Close()

	return errors.WithMessage(s.LoadHex(f), path)
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}

	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}

	return strings.TrimSpace(line)
}
