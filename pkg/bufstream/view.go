package bufstream

import "github.com/pkg/errors"

// View is a zero-copy borrow of a Stream's storage.
// It resolves only while the Stream is still on the generation it was
// taken from.
type View struct {
	stream     *Stream
	generation uint64
	start, end int
}

func (s *Stream) view(start, end int) View {
	return View{stream: s, generation: s.generation, start: start, end: end}
}

// Len returns the number of bytes covered by the view.
func (v View) Len() int {
	return v.end - v.start
}

// Valid reports whether the view still aliases the live storage.
func (v View) Valid() bool {
	return v.stream != nil && v.stream.generation == v.generation
}

// Bytes returns the borrowed bytes. The slice aliases the stream's storage
// and must not be retained across writes or growth.
func (v View) Bytes() ([]byte, error) {
	if v.stream == nil {
		return nil, nil
	}
	if !v.Valid() {
		return nil, errors.Wrapf(ErrStaleView, "view from generation %d, stream at %d", v.generation, v.stream.generation)
	}
	return v.stream.buf[v.start:v.end:v.end], nil
}

// Copy returns an owned copy of the borrowed bytes.
func (v View) Copy() ([]byte, error) {
	b, err := v.Bytes()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
