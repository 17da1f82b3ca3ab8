// Package encoding provides text decoding helpers for frame string data.
package encoding

import (
	"bytes"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrInvalidUTF8 is returned for byte sequences that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// DecodeUTF8 converts raw bytes to a string. A leading U+FEFF is kept as
// part of the text; malformed sequences fail with ErrInvalidUTF8.
func DecodeUTF8(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.Wrapf(ErrInvalidUTF8, "%d bytes", len(data))
	}
	result, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), data)
	if err != nil {
		return "", errors.Wrap(err, "decoding UTF-8")
	}
	return string(result), nil
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// FixedString decodes a fixed-size, NUL-padded field such as a 4-byte tag.
func FixedString(data []byte) (string, error) {
	return DecodeUTF8(TrimNullBytes(data))
}
