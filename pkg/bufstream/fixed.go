package bufstream

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// next returns the next n bytes of live storage and advances the cursor.
func (s *Stream) next(n int) ([]byte, error) {
	if err := s.checkRead(n); err != nil {
		return nil, err
	}
	b := s.buf[s.offset : s.offset+n]
	s.offset += n
	return b, nil
}

// reserve grows the buffer for an n byte write and returns the target slice.
func (s *Stream) reserve(n int) ([]byte, error) {
	if err := s.Extend(n); err != nil {
		return nil, err
	}
	b := s.buf[s.offset : s.offset+n]
	s.offset += n
	return b, nil
}

func checkRange(v, lo, hi int64, width string) error {
	if v < lo || v > hi {
		return errors.Wrapf(ErrInvalidData, "%d does not fit in %s", v, width)
	}
	return nil
}

// ReadUint8 reads an unsigned byte.
func (s *Stream) ReadUint8() (uint8, error) {
	b, err := s.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt8 reads a signed byte.
func (s *Stream) ReadInt8() (int8, error) {
	v, err := s.ReadUint8()
	return int8(v), err
}

// ReadBool reads a single byte; any nonzero value is true.
func (s *Stream) ReadBool() (bool, error) {
	v, err := s.ReadUint8()
	return v != 0, err
}

// ReadUint16 reads an unsigned 16-bit integer in the given byte order.
func (s *Stream) ReadUint16(order binary.ByteOrder) (uint16, error) {
	b, err := s.next(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

// ReadUint32 reads an unsigned 32-bit integer in the given byte order.
func (s *Stream) ReadUint32(order binary.ByteOrder) (uint32, error) {
	b, err := s.next(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

// ReadInt16 reads a signed 16-bit integer in the given byte order.
func (s *Stream) ReadInt16(order binary.ByteOrder) (int16, error) {
	v, err := s.ReadUint16(order)
	return int16(v), err
}

// ReadInt32 reads a signed 32-bit integer in the given byte order.
func (s *Stream) ReadInt32(order binary.ByteOrder) (int32, error) {
	v, err := s.ReadUint32(order)
	return int32(v), err
}

// ReadFloat32 reads an IEEE 754 single in the given byte order.
func (s *Stream) ReadFloat32(order binary.ByteOrder) (float32, error) {
	v, err := s.ReadUint32(order)
	return math.Float32frombits(v), err
}

// ReadFloat64 reads an IEEE 754 double in the given byte order.
func (s *Stream) ReadFloat64(order binary.ByteOrder) (float64, error) {
	b, err := s.next(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(order.Uint64(b)), nil
}

func (s *Stream) ReadUint16LE() (uint16, error)   { return s.ReadUint16(binary.LittleEndian) }
func (s *Stream) ReadUint16BE() (uint16, error)   { return s.ReadUint16(binary.BigEndian) }
func (s *Stream) ReadInt16LE() (int16, error)     { return s.ReadInt16(binary.LittleEndian) }
func (s *Stream) ReadInt16BE() (int16, error)     { return s.ReadInt16(binary.BigEndian) }
func (s *Stream) ReadUint32LE() (uint32, error)   { return s.ReadUint32(binary.LittleEndian) }
func (s *Stream) ReadUint32BE() (uint32, error)   { return s.ReadUint32(binary.BigEndian) }
func (s *Stream) ReadInt32LE() (int32, error)     { return s.ReadInt32(binary.LittleEndian) }
func (s *Stream) ReadInt32BE() (int32, error)     { return s.ReadInt32(binary.BigEndian) }
func (s *Stream) ReadFloat32LE() (float32, error) { return s.ReadFloat32(binary.LittleEndian) }
func (s *Stream) ReadFloat32BE() (float32, error) { return s.ReadFloat32(binary.BigEndian) }
func (s *Stream) ReadFloat64LE() (float64, error) { return s.ReadFloat64(binary.LittleEndian) }
func (s *Stream) ReadFloat64BE() (float64, error) { return s.ReadFloat64(binary.BigEndian) }

// WriteUint8 writes v as an unsigned byte.
func (s *Stream) WriteUint8(v int64) error {
	if err := checkRange(v, 0, math.MaxUint8, "uint8"); err != nil {
		return err
	}
	b, err := s.reserve(1)
	if err != nil {
		return err
	}
	b[0] = byte(v)
	return nil
}

// WriteInt8 writes v as a signed byte.
func (s *Stream) WriteInt8(v int64) error {
	if err := checkRange(v, math.MinInt8, math.MaxInt8, "int8"); err != nil {
		return err
	}
	b, err := s.reserve(1)
	if err != nil {
		return err
	}
	b[0] = byte(int8(v))
	return nil
}

// WriteBool writes 1 for true and 0 for false.
func (s *Stream) WriteBool(v bool) error {
	if v {
		return s.WriteUint8(1)
	}
	return s.WriteUint8(0)
}

// WriteUint16 writes v as an unsigned 16-bit integer.
func (s *Stream) WriteUint16(v int64, order binary.ByteOrder) error {
	if err := checkRange(v, 0, math.MaxUint16, "uint16"); err != nil {
		return err
	}
	b, err := s.reserve(2)
	if err != nil {
		return err
	}
	order.PutUint16(b, uint16(v))
	return nil
}

// WriteInt16 writes v as a signed 16-bit integer.
func (s *Stream) WriteInt16(v int64, order binary.ByteOrder) error {
	if err := checkRange(v, math.MinInt16, math.MaxInt16, "int16"); err != nil {
		return err
	}
	b, err := s.reserve(2)
	if err != nil {
		return err
	}
	order.PutUint16(b, uint16(int16(v)))
	return nil
}

// WriteUint32 writes v as an unsigned 32-bit integer.
func (s *Stream) WriteUint32(v int64, order binary.ByteOrder) error {
	if err := checkRange(v, 0, math.MaxUint32, "uint32"); err != nil {
		return err
	}
	b, err := s.reserve(4)
	if err != nil {
		return err
	}
	order.PutUint32(b, uint32(v))
	return nil
}

// WriteInt32 writes v as a signed 32-bit integer.
func (s *Stream) WriteInt32(v int64, order binary.ByteOrder) error {
	if err := checkRange(v, math.MinInt32, math.MaxInt32, "int32"); err != nil {
		return err
	}
	b, err := s.reserve(4)
	if err != nil {
		return err
	}
	order.PutUint32(b, uint32(int32(v)))
	return nil
}

// WriteFloat32 writes an IEEE 754 single.
func (s *Stream) WriteFloat32(v float32, order binary.ByteOrder) error {
	b, err := s.reserve(4)
	if err != nil {
		return err
	}
	order.PutUint32(b, math.Float32bits(v))
	return nil
}

// WriteFloat64 writes an IEEE 754 double.
func (s *Stream) WriteFloat64(v float64, order binary.ByteOrder) error {
	b, err := s.reserve(8)
	if err != nil {
		return err
	}
	order.PutUint64(b, math.Float64bits(v))
	return nil
}

func (s *Stream) WriteUint16LE(v int64) error    { return s.WriteUint16(v, binary.LittleEndian) }
func (s *Stream) WriteUint16BE(v int64) error    { return s.WriteUint16(v, binary.BigEndian) }
func (s *Stream) WriteInt16LE(v int64) error     { return s.WriteInt16(v, binary.LittleEndian) }
func (s *Stream) WriteInt16BE(v int64) error     { return s.WriteInt16(v, binary.BigEndian) }
func (s *Stream) WriteUint32LE(v int64) error    { return s.WriteUint32(v, binary.LittleEndian) }
func (s *Stream) WriteUint32BE(v int64) error    { return s.WriteUint32(v, binary.BigEndian) }
func (s *Stream) WriteInt32LE(v int64) error     { return s.WriteInt32(v, binary.LittleEndian) }
func (s *Stream) WriteInt32BE(v int64) error     { return s.WriteInt32(v, binary.BigEndian) }
func (s *Stream) WriteFloat32LE(v float32) error { return s.WriteFloat32(v, binary.LittleEndian) }
func (s *Stream) WriteFloat32BE(v float32) error { return s.WriteFloat32(v, binary.BigEndian) }
func (s *Stream) WriteFloat64LE(v float64) error { return s.WriteFloat64(v, binary.LittleEndian) }
func (s *Stream) WriteFloat64BE(v float64) error { return s.WriteFloat64(v, binary.BigEndian) }
