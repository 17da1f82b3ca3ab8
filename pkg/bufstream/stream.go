// Package bufstream provides a growable byte buffer with a read/write cursor.
//
// A Stream owns its backing storage exclusively. Reads hand out zero-copy
// Views tagged with the storage generation they were taken from; growing the
// buffer starts a new generation and every older View stops resolving.
// A Stream is not safe for concurrent use.
package bufstream

import (
	"github.com/pkg/errors"
)

// Stream errors.
var (
	ErrEndOfStream = errors.New("end of stream")
	ErrOutOfRange  = errors.New("out of range")
	ErrInvalidData = errors.New("invalid data")
	ErrStaleView   = errors.New("view invalidated by buffer growth")
)

// DefaultExtendFactor is the minimum number of bytes added by a growth.
const DefaultExtendFactor = 1024

// SizeFunc computes the new buffer size for a growth of additionalLength
// bytes. It must be a pure function of its arguments.
type SizeFunc func(currentSize, additionalLength int) int

// Options configures a Stream.
type Options struct {
	Offset       int      // Initial cursor position
	AllowExtend  bool     // Permit growth past the end of the buffer
	NewSize      SizeFunc // Growth policy; nil uses ExtendFactor
	ExtendFactor int      // Minimum growth step for the default policy
}

// DefaultOptions returns options with growth enabled.
func DefaultOptions() *Options {
	return &Options{
		AllowExtend:  true,
		ExtendFactor: DefaultExtendFactor,
	}
}

// ReadOnlyOptions returns options for decoding a fixed input buffer.
func ReadOnlyOptions() *Options {
	return &Options{
		AllowExtend:  false,
		ExtendFactor: DefaultExtendFactor,
	}
}

// Stream is a byte buffer with a cursor.
type Stream struct {
	buf          []byte
	offset       int
	generation   uint64
	allowExtend  bool
	newSize      SizeFunc
	extendFactor int
}

// New wraps buf in a Stream. The Stream takes ownership of buf.
// A nil opts is equivalent to DefaultOptions().
func New(buf []byte, opts *Options) *Stream {
	if opts == nil {
		opts = DefaultOptions()
	}
	s := &Stream{
		buf:          buf,
		allowExtend:  opts.AllowExtend,
		newSize:      opts.NewSize,
		extendFactor: opts.ExtendFactor,
	}
	if opts.Offset > 0 {
		s.offset = min(opts.Offset, len(buf))
	}
	return s
}

// Alloc creates a Stream over a zeroed buffer of the given size.
func Alloc(size int, opts *Options) *Stream {
	return New(make([]byte, size), opts)
}

// Len returns the size of the backing buffer.
func (s *Stream) Len() int {
	return len(s.buf)
}

// Offset returns the cursor position.
func (s *Stream) Offset() int {
	return s.offset
}

// Remaining returns the number of bytes between the cursor and the end.
func (s *Stream) Remaining() int {
	return len(s.buf) - s.offset
}

// Generation returns the current storage generation.
func (s *Stream) Generation() uint64 {
	return s.generation
}

// CanRead reports whether n bytes can be read from the cursor.
func (s *Stream) CanRead(n int) bool {
	return n >= 0 && s.offset+n <= len(s.buf)
}

func (s *Stream) checkRead(n int) error {
	if !s.CanRead(n) {
		return errors.Wrapf(ErrEndOfStream, "need %d bytes at offset %d, have %d", n, s.offset, s.Remaining())
	}
	return nil
}

// Skip moves the cursor by delta bytes.
func (s *Stream) Skip(delta int) error {
	return s.Seek(s.offset + delta)
}

// Seek moves the cursor to an absolute offset, growing the buffer when the
// target lies past the end.
func (s *Stream) Seek(offset int) error {
	if offset < 0 {
		return errors.Wrapf(ErrOutOfRange, "seek to %d", offset)
	}
	if offset > len(s.buf) {
		if err := s.Extend(offset - s.offset); err != nil {
			return err
		}
	}
	s.offset = offset
	return nil
}

// Extend makes room for additionalLength bytes after the cursor.
// Growing reallocates the storage and invalidates every outstanding View.
func (s *Stream) Extend(additionalLength int) error {
	if s.offset+additionalLength <= len(s.buf) {
		return nil
	}
	if !s.allowExtend {
		return errors.Wrapf(ErrEndOfStream, "cannot extend by %d bytes at offset %d", additionalLength, s.offset)
	}

	size := max(len(s.buf)+additionalLength, s.policySize(additionalLength))
	grown := make([]byte, size)
	copy(grown, s.buf)
	s.buf = grown
	s.generation++
	return nil
}

func (s *Stream) policySize(additionalLength int) int {
	if s.newSize != nil {
		return s.newSize(len(s.buf), additionalLength)
	}
	return len(s.buf) + max(additionalLength, s.extendFactor)
}

// Read returns a zero-copy view of the next n bytes and advances the cursor.
func (s *Stream) Read(n int) (View, error) {
	if err := s.checkRead(n); err != nil {
		return View{}, err
	}
	v := s.view(s.offset, s.offset+n)
	s.offset += n
	return v, nil
}

// ReadBytes returns a copy of the next n bytes and advances the cursor.
func (s *Stream) ReadBytes(n int) ([]byte, error) {
	if err := s.checkRead(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, s.buf[s.offset:])
	s.offset += n
	return out, nil
}

// Write copies data at the cursor, growing the buffer as needed.
func (s *Stream) Write(data []byte) (int, error) {
	if err := s.Extend(len(data)); err != nil {
		return 0, err
	}
	copy(s.buf[s.offset:], data)
	s.offset += len(data)
	return len(data), nil
}

// LeftView returns a view of the bytes before the cursor.
func (s *Stream) LeftView() View {
	return s.view(0, s.offset)
}

// RightView returns a view of the bytes from the cursor to the end.
func (s *Stream) RightView() View {
	return s.view(s.offset, len(s.buf))
}

// Bytes returns a copy of the bytes before the cursor.
func (s *Stream) Bytes() []byte {
	out := make([]byte, s.offset)
	copy(out, s.buf)
	return out
}
