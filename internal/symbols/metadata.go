package symbols

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinMetadataLength is the shortest metadata account accepted.
const MinMetadataLength = 100

// nameLengthOffset is where the u32 name length is read.
const nameLengthOffset = 32

var (
	// ErrMetadataTooShort is returned for accounts under MinMetadataLength bytes.
	ErrMetadataTooShort = errors.New("metadata account too short")
	// ErrMalformedMetadata is returned when a length prefix or string is invalid.
	ErrMalformedMetadata = errors.New("malformed metadata")
)

// Metadata holds the fields of a token metadata account TokenWise reads.
type Metadata struct {
	Name   string
	Symbol string
}

// ParseMetadata decodes name and symbol from raw metadata account data.
// Both are length-prefixed (u32 little endian) UTF-8 strings; whitespace
// and NUL padding are trimmed.
func ParseMetadata(data []byte) (Metadata, error) {
	if len(data) < MinMetadataLength {
		return Metadata{}, fmt.Errorf("%w: %d bytes", ErrMetadataTooShort, len(data))
	}

	name, offset, err := readString(data, nameLengthOffset)
	if err != nil {
		return Metadata{}, fmt.Errorf("name: %w", err)
	}

	symbol, _, err := readString(data, offset)
	if err != nil {
		return Metadata{}, fmt.Errorf("symbol: %w", err)
	}

	return Metadata{Name: trimPadding(name), Symbol: trimPadding(symbol)}, nil
}

// readString reads a u32-prefixed string at offset and returns the offset after it.
func readString(data []byte, offset int) (string, int, error) {
	if offset < 0 || offset+4 > len(data) {
		return "", 0, fmt.Errorf("%w: length prefix at %d out of range", ErrMalformedMetadata, offset)
	}
	n := binary.LittleEndian.Uint32(data[offset : offset+4])
	offset += 4

	if uint64(n) > uint64(len(data)-offset) {
		return "", 0, fmt.Errorf("%w: length %d exceeds remaining %d bytes", ErrMalformedMetadata, n, len(data)-offset)
	}
	end := offset + int(n)

	raw := data[offset:end]
	if !utf8.Valid(raw) {
		return "", 0, fmt.Errorf("%w: invalid utf-8", ErrMalformedMetadata)
	}
	return string(raw), end, nil
}

func trimPadding(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == 0 || unicode.IsSpace(r)
	})
}
