package formats

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/frmekit/pkg/bufstream"
)

// SectionTracker walks a mesh block's section table. Sections are visited
// strictly in order; each Next seeks to the running cumulative offset, so a
// section that was only partly read (or read past) does not misalign the
// ones after it.
type SectionTracker struct {
	s     *bufstream.Stream
	sizes []uint32
	index int
	start int
	next  int
}

// NewSectionTracker starts tracking at section 0, which must begin at the
// stream's current offset.
func NewSectionTracker(s *bufstream.Stream, sizes []uint32) (*SectionTracker, error) {
	if len(sizes) == 0 {
		return nil, errors.Wrap(ErrInvalidData, "empty section table")
	}
	return &SectionTracker{
		s:     s,
		sizes: sizes,
		start: s.Offset(),
		next:  s.Offset() + int(sizes[0]),
	}, nil
}

// Next seeks to the start of the following section.
func (t *SectionTracker) Next() error {
	if t.index+1 >= len(t.sizes) {
		return errors.Wrapf(ErrInvalidData, "section %d past table of %d", t.index+1, len(t.sizes))
	}
	if err := t.s.Seek(t.next); err != nil {
		return errors.Wrapf(err, "seeking to section %d", t.index+1)
	}
	t.start = t.s.Offset()
	t.index++
	t.next = t.start + int(t.sizes[t.index])
	return nil
}

// Index returns the current section number.
func (t *SectionTracker) Index() int { return t.index }

// Size returns the declared size of the current section.
func (t *SectionTracker) Size() int { return int(t.sizes[t.index]) }

// Start returns the offset the current section begins at.
func (t *SectionTracker) Start() int { return t.start }

// End returns the offset the next section begins at.
func (t *SectionTracker) End() int { return t.next }

// Remaining returns how many more times Next can succeed.
func (t *SectionTracker) Remaining() int { return len(t.sizes) - 1 - t.index }
