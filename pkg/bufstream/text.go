package bufstream

import (
	"bytes"
	"math"

	"github.com/pkg/errors"

	"github.com/Faultbox/frmekit/pkg/encoding"
)

// ReadPacked reads a VarInt length followed by that many bytes.
// The returned slice is an owned copy.
func (s *Stream) ReadPacked() ([]byte, error) {
	n, err := s.ReadUint()
	if err != nil {
		return nil, err
	}
	if n > math.MaxInt32 {
		return nil, errors.Wrapf(ErrInvalidData, "packed length %d", n)
	}
	return s.ReadBytes(int(n))
}

// WritePacked writes a VarInt length prefix and data, returning the total
// number of bytes written.
func (s *Stream) WritePacked(data []byte) (int, error) {
	n, err := s.WriteUint(int64(len(data)))
	if err != nil {
		return n, err
	}
	m, err := s.Write(data)
	return n + m, err
}

// decodeText converts b to a string, reporting malformed UTF-8 as
// ErrInvalidData at offset.
func decodeText(b []byte, offset int) (string, error) {
	str, err := encoding.DecodeUTF8(b)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidData, "string at offset %d: %v", offset, err)
	}
	return str, nil
}

// ReadUTF8String reads a UTF-8 string. A length below 1 reads up to the next
// NUL byte and consumes the terminator. Malformed UTF-8 fails ErrInvalidData
// without moving the cursor.
func (s *Stream) ReadUTF8String(length int) (string, error) {
	start := s.offset
	if length >= 1 {
		if err := s.checkRead(length); err != nil {
			return "", err
		}
		str, err := decodeText(s.buf[start:start+length], start)
		if err != nil {
			return "", err
		}
		s.offset += length
		return str, nil
	}

	end := bytes.IndexByte(s.buf[start:], 0)
	if end < 0 {
		return "", errors.Wrapf(ErrEndOfStream, "unterminated string at offset %d", start)
	}
	str, err := decodeText(s.buf[start:start+end], start)
	if err != nil {
		return "", err
	}
	s.offset += end + 1
	return str, nil
}

// WriteUTF8String writes str without a terminator.
func (s *Stream) WriteUTF8String(str string) (int, error) {
	return s.Write([]byte(str))
}

// WriteCString writes str followed by a NUL terminator.
func (s *Stream) WriteCString(str string) (int, error) {
	n, err := s.WriteUTF8String(str)
	if err != nil {
		return n, err
	}
	if err := s.WriteUint8(0); err != nil {
		return n, err
	}
	return n + 1, nil
}

// ReadPackedUTF8String reads a length-prefixed UTF-8 string.
func (s *Stream) ReadPackedUTF8String() (string, error) {
	start := s.offset
	b, err := s.ReadPacked()
	if err != nil {
		return "", err
	}
	str, err := decodeText(b, start)
	if err != nil {
		s.offset = start
		return "", err
	}
	return str, nil
}

// WritePackedUTF8String writes a length-prefixed UTF-8 string.
func (s *Stream) WritePackedUTF8String(str string) (int, error) {
	return s.WritePacked([]byte(str))
}
