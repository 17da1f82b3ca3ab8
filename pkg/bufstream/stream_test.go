package bufstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	s := New([]byte{1, 2, 3}, nil)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 0, s.Offset())
	assert.Equal(t, 3, s.Remaining())
	assert.True(t, s.allowExtend)
	assert.Equal(t, DefaultExtendFactor, s.extendFactor)
}

func TestNew_InitialOffset(t *testing.T) {
	s := New([]byte{1, 2, 3, 4}, &Options{Offset: 2})
	assert.Equal(t, 2, s.Offset())

	clamped := New([]byte{1, 2}, &Options{Offset: 10})
	assert.Equal(t, 2, clamped.Offset())
}

func TestCanRead(t *testing.T) {
	s := New(make([]byte, 4), ReadOnlyOptions())

	assert.True(t, s.CanRead(0))
	assert.True(t, s.CanRead(4))
	assert.False(t, s.CanRead(5))
	assert.False(t, s.CanRead(-1))

	require.NoError(t, s.Skip(3))
	assert.True(t, s.CanRead(1))
	assert.False(t, s.CanRead(2))
	assert.Equal(t, 3, s.Offset(), "CanRead must not move the cursor")
}

func TestRead_ZeroCopy(t *testing.T) {
	buf := []byte{10, 20, 30, 40}
	s := New(buf, ReadOnlyOptions())

	v, err := s.Read(2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Offset())

	b, err := v.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20}, b)

	buf[0] = 99
	assert.Equal(t, byte(99), b[0], "view should alias the stream storage")
}

func TestRead_PastEnd(t *testing.T) {
	s := New([]byte{1, 2}, ReadOnlyOptions())

	_, err := s.Read(3)
	require.ErrorIs(t, err, ErrEndOfStream)
	assert.Equal(t, 0, s.Offset())

	_, err = s.ReadBytes(3)
	require.ErrorIs(t, err, ErrEndOfStream)
}

func TestSeekSkip_Negative(t *testing.T) {
	s := New(make([]byte, 8), nil)

	require.ErrorIs(t, s.Seek(-1), ErrOutOfRange)
	require.NoError(t, s.Skip(4))
	require.ErrorIs(t, s.Skip(-5), ErrOutOfRange)
	assert.Equal(t, 4, s.Offset())

	require.NoError(t, s.Skip(-4))
	assert.Equal(t, 0, s.Offset())
}

func TestSeek_PastEndExtends(t *testing.T) {
	s := New(make([]byte, 4), &Options{AllowExtend: true, ExtendFactor: 16})

	require.NoError(t, s.Seek(10))
	assert.Equal(t, 10, s.Offset())
	assert.GreaterOrEqual(t, s.Len(), 10)
}

func TestSeek_PastEndReadOnly(t *testing.T) {
	s := New(make([]byte, 4), ReadOnlyOptions())

	require.NoError(t, s.Seek(4), "seeking to the end is always allowed")
	require.ErrorIs(t, s.Seek(5), ErrEndOfStream)
	require.ErrorIs(t, s.Skip(1), ErrEndOfStream)
	assert.Equal(t, 4, s.Offset())
}

func TestExtend_DefaultPolicy(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		factor     int
		additional int
		wantLen    int
	}{
		{"factor wins", 4, 64, 10, 4 + 64},
		{"request wins", 4, 8, 100, 4 + 100},
		{"equal", 0, 32, 32, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(make([]byte, tt.size), &Options{AllowExtend: true, ExtendFactor: tt.factor})
			require.NoError(t, s.Seek(tt.size))
			require.NoError(t, s.Extend(tt.additional))
			assert.Equal(t, tt.wantLen, s.Len())
		})
	}
}

func TestExtend_NoopWhenRoom(t *testing.T) {
	s := New(make([]byte, 8), nil)
	gen := s.Generation()

	require.NoError(t, s.Extend(8))
	assert.Equal(t, 8, s.Len())
	assert.Equal(t, gen, s.Generation())
}

func TestExtend_Disallowed(t *testing.T) {
	s := New(make([]byte, 2), ReadOnlyOptions())
	require.ErrorIs(t, s.Extend(3), ErrEndOfStream)
}

func TestExtend_CustomPolicy(t *testing.T) {
	double := func(current, additional int) int {
		return 2 * (current + additional)
	}
	s := New(make([]byte, 4), &Options{AllowExtend: true, NewSize: double})

	require.NoError(t, s.Seek(4))
	require.NoError(t, s.Extend(4))
	assert.Equal(t, 16, s.Len())

	small := func(current, additional int) int { return 0 }
	s = New(make([]byte, 4), &Options{AllowExtend: true, NewSize: small})
	require.NoError(t, s.Seek(4))
	require.NoError(t, s.Extend(4))
	assert.Equal(t, 8, s.Len(), "policy results below the request are raised to it")
}

func TestExtend_PreservesBytesAndInvalidatesViews(t *testing.T) {
	s := New([]byte{1, 2, 3, 4}, &Options{AllowExtend: true, ExtendFactor: 4})

	before, err := s.Read(4)
	require.NoError(t, err)
	left := s.LeftView()
	beforeBytes, err := before.Bytes()
	require.NoError(t, err)

	_, err = s.Write([]byte{5, 6})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Generation())

	_, err = before.Bytes()
	require.ErrorIs(t, err, ErrStaleView)
	_, err = left.Copy()
	require.ErrorIs(t, err, ErrStaleView)
	assert.False(t, before.Valid())

	after, err := s.LeftView().Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, after)

	// The old borrow points at retired storage, not the live buffer.
	after[0] = 42
	assert.Equal(t, byte(1), beforeBytes[0])
}

func TestWrite_Grows(t *testing.T) {
	s := Alloc(0, &Options{AllowExtend: true, ExtendFactor: 2})

	n, err := s.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("hello"), s.Bytes())
}

func TestWrite_ReadOnly(t *testing.T) {
	s := New(make([]byte, 2), ReadOnlyOptions())

	_, err := s.Write([]byte{1, 2})
	require.NoError(t, err)
	_, err = s.Write([]byte{3})
	require.ErrorIs(t, err, ErrEndOfStream)
}

func TestLeftRightViews(t *testing.T) {
	s := New([]byte{1, 2, 3, 4, 5}, nil)
	require.NoError(t, s.Seek(2))

	left, err := s.LeftView().Bytes()
	require.NoError(t, err)
	right, err := s.RightView().Bytes()
	require.NoError(t, err)

	assert.Equal(t, []byte{1, 2}, left)
	assert.Equal(t, []byte{3, 4, 5}, right)
	assert.Equal(t, 3, s.RightView().Len())
}

func TestView_Copy(t *testing.T) {
	buf := []byte{7, 8, 9}
	s := New(buf, nil)

	v, err := s.Read(3)
	require.NoError(t, err)
	c, err := v.Copy()
	require.NoError(t, err)

	buf[0] = 0
	assert.Equal(t, []byte{7, 8, 9}, c)
}

func TestView_Zero(t *testing.T) {
	var v View
	b, err := v.Bytes()
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.False(t, v.Valid())
}
