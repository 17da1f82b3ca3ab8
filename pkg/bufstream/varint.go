package bufstream

import (
	"math"

	"github.com/pkg/errors"
)

// VarInt layout.
//
// Unsigned: little-endian base-128 groups, bit 7 set on every byte except the
// last.
//
// Signed: the first byte carries bit 7 = continuation, bit 6 = sign and six
// magnitude bits; later bytes are unsigned base-128 groups weighted by
// 64*128^(k-1). Negative values store -v-1 so -1 encodes as 0x40.
const (
	varIntContinue = 0x80
	varIntSign     = 0x40
	varIntMaxBytes = 10
)

// ReadUint reads an unsigned VarInt.
func (s *Stream) ReadUint() (uint64, error) {
	var res uint64
	var shift uint
	for i := 0; i < varIntMaxBytes; i++ {
		o, err := s.ReadUint8()
		if err != nil {
			return 0, err
		}
		group := uint64(o &^ varIntContinue)
		if shift > 63 || (shift > 0 && group>>(64-shift) != 0) {
			return 0, errors.Wrap(ErrInvalidData, "unsigned varint overflows 64 bits")
		}
		res |= group << shift
		if o&varIntContinue == 0 {
			return res, nil
		}
		shift += 7
	}
	return 0, errors.Wrapf(ErrInvalidData, "unsigned varint longer than %d bytes", varIntMaxBytes)
}

// WriteUint writes v as an unsigned VarInt and returns the encoded size.
func (s *Stream) WriteUint(v int64) (int, error) {
	if v < 0 {
		return 0, errors.Wrapf(ErrInvalidData, "negative value %d for unsigned varint", v)
	}
	return s.writeGroups(uint64(v))
}

func (s *Stream) writeGroups(u uint64) (int, error) {
	n := 0
	for u >= varIntContinue {
		if err := s.WriteUint8(int64(u&0x7f | varIntContinue)); err != nil {
			return n, err
		}
		u >>= 7
		n++
	}
	if err := s.WriteUint8(int64(u)); err != nil {
		return n, err
	}
	return n + 1, nil
}

// ReadInt reads a signed VarInt.
func (s *Stream) ReadInt() (int64, error) {
	o, err := s.ReadUint8()
	if err != nil {
		return 0, err
	}

	minus := o&varIntSign != 0
	res := uint64(o & 0x3f)
	if o&varIntContinue != 0 {
		var shift uint = 6
		for i := 1; ; i++ {
			if i >= varIntMaxBytes {
				return 0, errors.Wrapf(ErrInvalidData, "signed varint longer than %d bytes", varIntMaxBytes)
			}
			c, err := s.ReadUint8()
			if err != nil {
				return 0, err
			}
			group := uint64(c &^ varIntContinue)
			if shift > 63 || group>>(64-shift) != 0 {
				return 0, errors.Wrap(ErrInvalidData, "signed varint overflows 64 bits")
			}
			res |= group << shift
			if c&varIntContinue == 0 {
				break
			}
			shift += 7
		}
	}

	if res > math.MaxInt64 {
		return 0, errors.Wrap(ErrInvalidData, "signed varint overflows int64")
	}
	if minus {
		return -int64(res) - 1, nil
	}
	return int64(res), nil
}

// WriteInt writes v as a signed VarInt and returns the encoded size.
func (s *Stream) WriteInt(v int64) (int, error) {
	var sign uint64
	u := uint64(v)
	if v < 0 {
		sign = varIntSign
		u = uint64(^v)
	}

	if u < varIntSign {
		if err := s.WriteUint8(int64(u | sign)); err != nil {
			return 0, err
		}
		return 1, nil
	}

	if err := s.WriteUint8(int64(u&0x3f | sign | varIntContinue)); err != nil {
		return 0, err
	}
	n, err := s.writeGroups(u >> 6)
	return n + 1, err
}

// EncodeUint returns the unsigned VarInt encoding of v.
func EncodeUint(v int64) ([]byte, error) {
	s := Alloc(0, &Options{AllowExtend: true, ExtendFactor: varIntMaxBytes})
	if _, err := s.WriteUint(v); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// EncodeInt returns the signed VarInt encoding of v.
func EncodeInt(v int64) ([]byte, error) {
	s := Alloc(0, &Options{AllowExtend: true, ExtendFactor: varIntMaxBytes})
	if _, err := s.WriteInt(v); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// DecodeUint decodes an unsigned VarInt from the start of data.
func DecodeUint(data []byte) (uint64, error) {
	return New(data, ReadOnlyOptions()).ReadUint()
}

// DecodeInt decodes a signed VarInt from the start of data.
func DecodeInt(data []byte) (int64, error) {
	return New(data, ReadOnlyOptions()).ReadInt()
}
