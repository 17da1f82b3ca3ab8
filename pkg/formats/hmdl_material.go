package formats

import (
	"github.com/pkg/errors"

	"github.com/Faultbox/frmekit/pkg/bufstream"
)

// Material flag bits that gate optional blocks.
const (
	MaterialKonstColors     = 0x8
	MaterialReflectionStage = 0x400
)

// Material is the decoded part of a mesh material. Everything other than
// the flags is consumed and discarded.
type Material struct {
	Flags        uint32
	VtxAttrFlags uint32
	Layout       VertexLayout
}

// uvAnimPayloadSize returns the payload size following a UV animation type.
func uvAnimPayloadSize(typ uint32) int {
	switch typ {
	case 2, 4, 5:
		return 16
	case 3, 7:
		return 8
	default:
		return 0
	}
}

// skipTable reads a u32 count and skips count entries of size bytes.
func skipTable(s *bufstream.Stream, size int) (uint32, error) {
	n, err := s.ReadUint32BE()
	if err != nil {
		return 0, err
	}
	if !s.CanRead(int(n) * size) {
		return n, errors.Wrapf(ErrEndOfStream, "%d entries of %d bytes at offset %d", n, size, s.Offset())
	}
	return n, s.Skip(int(n) * size)
}

// readMaterials decodes the material set that fills section 0.
func readMaterials(s *bufstream.Stream) ([]Material, error) {
	if _, err := skipTable(s, 4); err != nil {
		return nil, errors.Wrap(err, "texture table")
	}

	count, err := s.ReadUint32BE()
	if err != nil {
		return nil, errors.Wrap(err, "material count")
	}
	if !s.CanRead(int(count) * 4) {
		return nil, errors.Wrapf(ErrEndOfStream, "material count %d", count)
	}
	ends := make([]uint32, count)
	for i := range ends {
		if ends[i], err = s.ReadUint32BE(); err != nil {
			return nil, err
		}
	}

	start := s.Offset()
	materials := make([]Material, count)
	for i := range materials {
		m, err := readMaterial(s)
		if err != nil {
			return nil, errors.Wrapf(err, "material %d", i)
		}
		materials[i] = m

		if err := s.Seek(start + int(ends[i])); err != nil {
			return nil, errors.Wrapf(err, "material %d end offset", i)
		}
	}
	return materials, nil
}

func readMaterial(s *bufstream.Stream) (Material, error) {
	var m Material
	var err error

	if m.Flags, err = s.ReadUint32BE(); err != nil {
		return m, err
	}
	if _, err = skipTable(s, 4); err != nil { // texture indices
		return m, err
	}
	if m.VtxAttrFlags, err = s.ReadUint32BE(); err != nil {
		return m, err
	}
	m.Layout = LayoutFor(m.VtxAttrFlags)

	// Two version-specific words and one reserved word.
	if err = s.Skip(12); err != nil {
		return m, err
	}
	if m.Flags&MaterialKonstColors != 0 {
		if _, err = skipTable(s, 4); err != nil {
			return m, err
		}
	}
	if err = s.Skip(4); err != nil {
		return m, err
	}
	if m.Flags&MaterialReflectionStage != 0 {
		if err = s.Skip(4); err != nil {
			return m, err
		}
	}
	if _, err = skipTable(s, 4); err != nil { // color channels
		return m, err
	}

	tevStages, err := skipTable(s, 20)
	if err != nil {
		return m, err
	}
	// Per-stage texture and UV indices.
	if err = s.Skip(int(tevStages) * 4); err != nil {
		return m, err
	}
	if _, err = skipTable(s, 4); err != nil { // tex gens
		return m, err
	}

	return m, readUVAnimations(s)
}

func readUVAnimations(s *bufstream.Stream) error {
	size, err := s.ReadUint32BE()
	if err != nil {
		return err
	}
	start := s.Offset()

	count, err := s.ReadUint32BE()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		typ, err := s.ReadUint32BE()
		if err != nil {
			return errors.Wrapf(err, "uv animation %d", i)
		}
		if err := s.Skip(uvAnimPayloadSize(typ)); err != nil {
			return errors.Wrapf(err, "uv animation %d", i)
		}
	}

	if read := s.Offset() - start; read != int(size) {
		return errors.Wrapf(ErrIntegrityMismatch, "uv animation block declared %d bytes, read %d", size, read)
	}
	return nil
}
