package formats

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/frmekit/pkg/bufstream"
	"github.com/Faultbox/frmekit/pkg/math"
)

// Mesh block errors.
var (
	ErrIntegrityMismatch = errors.New("declared size does not match bytes read")
)

// PrimitiveType is a GX display-list opcode (the top five bits of the
// primitive's first byte).
type PrimitiveType uint8

const (
	PrimitiveNOP           PrimitiveType = 0x00
	PrimitiveTriangles     PrimitiveType = 0x90
	PrimitiveTriangleStrip PrimitiveType = 0x98
	PrimitiveTriangleFan   PrimitiveType = 0xA0
)

// String returns a human-readable primitive name.
func (p PrimitiveType) String() string {
	switch p {
	case PrimitiveNOP:
		return "NOP"
	case PrimitiveTriangles:
		return "Triangles"
	case PrimitiveTriangleStrip:
		return "TriangleStrip"
	case PrimitiveTriangleFan:
		return "TriangleFan"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(p))
	}
}

// Supported reports whether the opcode is one the decoder understands.
func (p PrimitiveType) Supported() bool {
	switch p {
	case PrimitiveNOP, PrimitiveTriangles, PrimitiveTriangleStrip, PrimitiveTriangleFan:
		return true
	}
	return false
}

// Primitive is one display-list entry. Each vertex contributes one entry to
// every slice; fields absent from the vertex layout are zero.
type Primitive struct {
	Type      PrimitiveType
	Supported bool
	Positions []math.Vec3
	Normals   [][3]uint16 // Raw 16-bit normal components
	UVs       []math.Vec2
}

// Surface is a material-bound run of primitives.
type Surface struct {
	Pivot      math.Vec3
	MaterialID uint32
	Primitives []Primitive
}

// Triangulation says how a batch's vertices form triangles.
type Triangulation uint8

const (
	TriangulationList        Triangulation = iota // Every three vertices
	TriangulationStrip                            // Strip, each vertex after the second
	TriangulationFan                              // Fan around the first vertex
	TriangulationPlaceholder                      // Unsupported primitive, no geometry
)

// String returns a human-readable triangulation name.
func (t Triangulation) String() string {
	switch t {
	case TriangulationList:
		return "List"
	case TriangulationStrip:
		return "Strip"
	case TriangulationFan:
		return "Fan"
	case TriangulationPlaceholder:
		return "Placeholder"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// TriangleBatch is a flat vertex buffer for one primitive.
type TriangleBatch struct {
	Triangulation Triangulation
	Positions     []float32 // xyz per vertex
	Normals       []float32 // xyz per vertex
	UVs           []float32 // uv per vertex
}

// VertexCount returns the number of vertices in the batch.
func (b TriangleBatch) VertexCount() int {
	return len(b.Positions) / 3
}

// TriangleCount returns the number of triangles the batch describes.
func (b TriangleBatch) TriangleCount() int {
	n := b.VertexCount()
	switch b.Triangulation {
	case TriangulationList:
		return n / 3
	case TriangulationStrip, TriangulationFan:
		return max(n-2, 0)
	default:
		return 0
	}
}

// Model is one decoded mesh: its vertex tables, surfaces and the triangle
// batches built from them.
type Model struct {
	Vertices []math.Vec3
	Normals  [][3]uint16
	UVs      []math.Vec2
	Surfaces []Surface
	Batches  []TriangleBatch
}

// Bounds returns the axis-aligned bounds of the vertex table.
func (m *Model) Bounds() (lo, hi math.Vec3, ok bool) {
	if len(m.Vertices) == 0 {
		return lo, hi, false
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return lo, hi, true
}

// Extent returns the diagonal length of the bounds, or 0 for an empty model.
func (m *Model) Extent() float32 {
	lo, hi, ok := m.Bounds()
	if !ok {
		return 0
	}
	return hi.Sub(lo).Length()
}

// TriangleCount returns the total triangle count over all batches.
func (m *Model) TriangleCount() int {
	n := 0
	for _, b := range m.Batches {
		n += b.TriangleCount()
	}
	return n
}

// Mesh is a decoded HMDL block.
type Mesh struct {
	SectionSizes []uint32
	Materials    []Material
	Models       []*Model
}

// modelFixedSections is the number of sections every model has before its
// surfaces: vertices, normals, colors, UVs, short UVs and surface offsets.
const modelFixedSections = 6

// displayListAlign is the alignment of every display list.
const displayListAlign = 32

type meshDecoder struct {
	s         *bufstream.Stream
	opts      *decodeOptions
	warn      *warnings
	tracker   *SectionTracker
	materials []Material
}

// readMesh decodes a mesh block starting at the section size table. It
// always leaves the cursor allocSize bytes past the end of that table.
func readMesh(s *bufstream.Stream, allocSize, modelCount, sectionCount uint32, opts *decodeOptions, warn *warnings) (*Mesh, error) {
	if !s.CanRead(int(sectionCount) * 4) {
		return nil, errors.Wrapf(ErrEndOfStream, "section table of %d entries", sectionCount)
	}
	mesh := &Mesh{SectionSizes: make([]uint32, sectionCount)}
	for i := range mesh.SectionSizes {
		v, err := s.ReadUint32BE()
		if err != nil {
			return nil, err
		}
		mesh.SectionSizes[i] = v
	}

	blockStart := s.Offset()
	tracker, err := NewSectionTracker(s, mesh.SectionSizes)
	if err != nil {
		return nil, err
	}

	d := &meshDecoder{s: s, opts: opts, warn: warn, tracker: tracker}
	if d.materials, err = readMaterials(s); err != nil {
		return nil, errors.Wrap(err, "material set")
	}
	mesh.Materials = d.materials

	for i := 0; i < int(modelCount); i++ {
		if tracker.Remaining() < modelFixedSections {
			warn.add("model count exceeds model sections",
				zap.Int("model", i),
				zap.Uint32("models", modelCount),
				zap.Int("sections", len(mesh.SectionSizes)))
			break
		}
		model, err := d.readModel(i)
		if err != nil {
			return nil, errors.Wrapf(err, "model %d", i)
		}
		mesh.Models = append(mesh.Models, model)
	}

	if err := s.Seek(blockStart + int(allocSize)); err != nil {
		return nil, errors.Wrap(err, "mesh block end")
	}
	return mesh, nil
}

func (d *meshDecoder) readModel(index int) (*Model, error) {
	m := &Model{}
	var err error

	if err = d.tracker.Next(); err != nil {
		return nil, err
	}
	if m.Vertices, err = readVec3Table(d.s, d.tracker.Size()/12); err != nil {
		return nil, errors.Wrap(err, "vertices")
	}

	if err = d.tracker.Next(); err != nil {
		return nil, err
	}
	if m.Normals, err = readNormalTable(d.s, d.tracker.Size()/6); err != nil {
		return nil, errors.Wrap(err, "normals")
	}

	// Vertex colors are never referenced.
	if err = d.tracker.Next(); err != nil {
		return nil, err
	}

	if err = d.tracker.Next(); err != nil {
		return nil, err
	}
	if m.UVs, err = readVec2Table(d.s, d.tracker.Size()/8); err != nil {
		return nil, errors.Wrap(err, "uvs")
	}

	// Short UVs are never present in this format but keep their section.
	if err = d.tracker.Next(); err != nil {
		return nil, err
	}

	if err = d.tracker.Next(); err != nil {
		return nil, err
	}
	surfaceCount, err := d.s.ReadUint32BE()
	if err != nil {
		return nil, errors.Wrap(err, "surface count")
	}
	// The end offsets are implied by the section table.
	if !d.s.CanRead(int(surfaceCount) * 4) {
		return nil, errors.Wrapf(ErrEndOfStream, "surface offset table of %d entries", surfaceCount)
	}
	if surfaceCount > uint32(d.tracker.Remaining()) {
		return nil, errors.Wrapf(ErrInvalidData, "%d surfaces but %d sections left", surfaceCount, d.tracker.Remaining())
	}

	m.Surfaces = make([]Surface, 0, surfaceCount)
	for j := 0; j < int(surfaceCount); j++ {
		if err = d.tracker.Next(); err != nil {
			return nil, err
		}
		surf, err := d.readSurface(m, index, j)
		if err != nil {
			return nil, errors.Wrapf(err, "surface %d", j)
		}
		m.Surfaces = append(m.Surfaces, surf)
	}

	m.Batches = buildBatches(m.Surfaces)
	return m, nil
}

func (d *meshDecoder) readSurface(m *Model, model, index int) (Surface, error) {
	var surf Surface
	var err error

	if surf.Pivot, err = readVec3(d.s); err != nil {
		return surf, err
	}
	if surf.MaterialID, err = d.s.ReadUint32BE(); err != nil {
		return surf, err
	}
	if int(surf.MaterialID) >= len(d.materials) {
		return surf, errors.Wrapf(ErrInvalidData, "material %d of %d", surf.MaterialID, len(d.materials))
	}
	layout := d.materials[surf.MaterialID].Layout

	dlFlags, err := d.s.ReadUint32BE()
	if err != nil {
		return surf, err
	}
	dlSize := int(dlFlags & 0x7FFFFFFF)

	if err = d.s.Skip(8); err != nil {
		return surf, err
	}
	extra, err := d.s.ReadUint32BE()
	if err != nil {
		return surf, err
	}
	if err = d.s.Skip(12 + 4 + int(extra)); err != nil {
		return surf, err
	}
	aligned := (d.s.Offset() + displayListAlign - 1) &^ (displayListAlign - 1)
	if err = d.s.Seek(aligned); err != nil {
		return surf, err
	}

	end := d.s.Offset() + dlSize
	for d.s.Offset() < end {
		p, err := d.readPrimitive(m, layout)
		if err != nil {
			return surf, errors.Wrapf(err, "primitive %d", len(surf.Primitives))
		}
		if !p.Supported {
			d.warn.add("unsupported primitive",
				zap.Int("model", model),
				zap.Int("surface", index),
				zap.Stringer("opcode", p.Type))
			if d.opts.strict {
				return surf, errors.Wrapf(ErrUnsupportedFeature, "primitive opcode %s", p.Type)
			}
		}
		surf.Primitives = append(surf.Primitives, p)
	}
	return surf, nil
}

func (d *meshDecoder) readPrimitive(m *Model, layout VertexLayout) (Primitive, error) {
	b, err := d.s.ReadUint8()
	if err != nil {
		return Primitive{}, err
	}
	p := Primitive{Type: PrimitiveType(b & 0xF8)}
	p.Supported = p.Type.Supported()
	if p.Type == PrimitiveNOP {
		return p, nil
	}

	count, err := d.s.ReadUint16BE()
	if err != nil {
		return p, err
	}
	if !d.s.CanRead(int(count) * layout.Size()) {
		return p, errors.Wrapf(ErrEndOfStream, "%d vertices of %d bytes", count, layout.Size())
	}

	p.Positions = make([]math.Vec3, count)
	p.Normals = make([][3]uint16, count)
	p.UVs = make([]math.Vec2, count)
	for i := 0; i < int(count); i++ {
		if err := d.readVertex(m, layout, &p, i); err != nil {
			return p, errors.Wrapf(err, "vertex %d", i)
		}
	}
	return p, nil
}

func (d *meshDecoder) readVertex(m *Model, layout VertexLayout, p *Primitive, i int) error {
	for _, f := range layout.Fields {
		switch f.Kind {
		case FieldMatrixIndex, FieldTexMatrixIndex, FieldColor:
			if err := d.s.Skip(f.Size); err != nil {
				return err
			}
		case FieldPosition:
			idx, err := d.s.ReadUint16BE()
			if err != nil {
				return err
			}
			if int(idx) >= len(m.Vertices) {
				return errors.Wrapf(ErrInvalidData, "position index %d of %d", idx, len(m.Vertices))
			}
			p.Positions[i] = m.Vertices[idx]
		case FieldNormal:
			idx, err := d.s.ReadUint16BE()
			if err != nil {
				return err
			}
			if int(idx) >= len(m.Normals) {
				return errors.Wrapf(ErrInvalidData, "normal index %d of %d", idx, len(m.Normals))
			}
			p.Normals[i] = m.Normals[idx]
		case FieldTexCoord:
			idx, err := d.s.ReadUint16BE()
			if err != nil {
				return err
			}
			// Only the first UV set can be resolved.
			if f.Slot != 0 {
				continue
			}
			if int(idx) >= len(m.UVs) {
				return errors.Wrapf(ErrInvalidData, "uv index %d of %d", idx, len(m.UVs))
			}
			p.UVs[i] = m.UVs[idx]
		default:
			return errors.Wrapf(ErrInvalidData, "vertex field %s", f.Kind)
		}
	}
	return nil
}

// buildBatches flattens every drawable primitive into a triangle batch.
func buildBatches(surfaces []Surface) []TriangleBatch {
	var batches []TriangleBatch
	for _, surf := range surfaces {
		for _, p := range surf.Primitives {
			if p.Type == PrimitiveNOP {
				continue
			}
			batches = append(batches, newTriangleBatch(p))
		}
	}
	return batches
}

func newTriangleBatch(p Primitive) TriangleBatch {
	var b TriangleBatch
	switch {
	case !p.Supported:
		b.Triangulation = TriangulationPlaceholder
		return b
	case p.Type == PrimitiveTriangleStrip:
		b.Triangulation = TriangulationStrip
	case p.Type == PrimitiveTriangleFan:
		b.Triangulation = TriangulationFan
	default:
		b.Triangulation = TriangulationList
	}

	n := len(p.Positions)
	b.Positions = make([]float32, 0, n*3)
	b.Normals = make([]float32, 0, n*3)
	b.UVs = make([]float32, 0, n*2)
	for i := 0; i < n; i++ {
		pos, nrm, uv := p.Positions[i], p.Normals[i], p.UVs[i]
		b.Positions = append(b.Positions, pos.X, pos.Y, pos.Z)
		b.Normals = append(b.Normals, float32(nrm[0]), float32(nrm[1]), float32(nrm[2]))
		b.UVs = append(b.UVs, uv.X, uv.Y)
	}
	return b
}

func readVec3(s *bufstream.Stream) (math.Vec3, error) {
	var v math.Vec3
	var err error
	if v.X, err = s.ReadFloat32BE(); err != nil {
		return v, err
	}
	if v.Y, err = s.ReadFloat32BE(); err != nil {
		return v, err
	}
	v.Z, err = s.ReadFloat32BE()
	return v, err
}

func readVec2(s *bufstream.Stream) (math.Vec2, error) {
	var v math.Vec2
	var err error
	if v.X, err = s.ReadFloat32BE(); err != nil {
		return v, err
	}
	v.Y, err = s.ReadFloat32BE()
	return v, err
}

func readVec3Table(s *bufstream.Stream, n int) ([]math.Vec3, error) {
	if !s.CanRead(n * 12) {
		return nil, errors.Wrapf(ErrEndOfStream, "%d vectors", n)
	}
	out := make([]math.Vec3, n)
	for i := range out {
		v, err := readVec3(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func readVec2Table(s *bufstream.Stream, n int) ([]math.Vec2, error) {
	if !s.CanRead(n * 8) {
		return nil, errors.Wrapf(ErrEndOfStream, "%d vectors", n)
	}
	out := make([]math.Vec2, n)
	for i := range out {
		v, err := readVec2(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func readNormalTable(s *bufstream.Stream, n int) ([][3]uint16, error) {
	if !s.CanRead(n * 6) {
		return nil, errors.Wrapf(ErrEndOfStream, "%d normals", n)
	}
	out := make([][3]uint16, n)
	for i := range out {
		for k := 0; k < 3; k++ {
			v, err := s.ReadUint16BE()
			if err != nil {
				return nil, err
			}
			out[i][k] = v
		}
	}
	return out, nil
}
