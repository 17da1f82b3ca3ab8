package formats

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/frmekit/pkg/bufstream"
	"github.com/Faultbox/frmekit/pkg/math"
)

// fixture writes big-endian frame data for tests.
type fixture struct {
	t *testing.T
	s *bufstream.Stream
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, s: bufstream.Alloc(0, nil)}
}

func (f *fixture) u8(v int64)    { require.NoError(f.t, f.s.WriteUint8(v)) }
func (f *fixture) u16(v int64)   { require.NoError(f.t, f.s.WriteUint16BE(v)) }
func (f *fixture) u32(v int64)   { require.NoError(f.t, f.s.WriteUint32BE(v)) }
func (f *fixture) f32(v float32) { require.NoError(f.t, f.s.WriteFloat32BE(v)) }

func (f *fixture) raw(b []byte) {
	_, err := f.s.Write(b)
	require.NoError(f.t, err)
}

func (f *fixture) fill(n int, b byte) {
	for i := 0; i < n; i++ {
		f.u8(int64(b))
	}
}

func (f *fixture) zeros(n int) { f.fill(n, 0) }

func (f *fixture) cstr(s string) {
	_, err := f.s.WriteCString(s)
	require.NoError(f.t, err)
}

func (f *fixture) vec3(v math.Vec3) {
	f.f32(v.X)
	f.f32(v.Y)
	f.f32(v.Z)
}

func (f *fixture) align(n int) {
	for f.s.Offset()%n != 0 {
		f.u8(0)
	}
}

// patchU32 overwrites a previously written u32 and restores the cursor.
func (f *fixture) patchU32(at int, v int64) {
	cur := f.s.Offset()
	require.NoError(f.t, f.s.Seek(at))
	f.u32(v)
	require.NoError(f.t, f.s.Seek(cur))
}

func (f *fixture) bytes() []byte { return f.s.Bytes() }

type testWidget struct {
	tag     string
	name    string
	parent  string
	payload func(f *fixture)
	pad     *uint16
	trans   math.Vec3
	orient  math.Mat3
}

func rootWidget(name string) testWidget {
	return testWidget{tag: "BWIG", name: name, parent: RootParentName, orient: math.Identity3()}
}

func childWidget(tag, name, parent string) testWidget {
	return testWidget{tag: tag, name: name, parent: parent, orient: math.Identity3()}
}

func (w testWidget) with(payload func(f *fixture)) testWidget {
	w.payload = payload
	return w
}

func (f *fixture) widget(w testWidget) {
	f.raw([]byte(w.tag))
	f.cstr(w.name)
	f.cstr(w.parent)
	f.fill(commonBlockSize, 0xCC)
	if w.payload != nil {
		w.payload(f)
	}
	if w.pad != nil {
		f.u8(1)
		f.u16(int64(*w.pad))
	} else {
		f.u8(0)
	}
	f.vec3(w.trans)
	for _, v := range w.orient {
		f.f32(v)
	}
}

type testMaterial struct {
	flags       uint32
	vtxAttr     uint32
	konst       int
	uvAnims     []uint32
	uvSizeDelta int
	trailer     int // Bytes after the UV animation block, covered by the end offset
}

type testSurface struct {
	pivot    math.Vec3
	material uint32
	dl       []byte
}

type testModel struct {
	vertices []math.Vec3
	normals  [][3]uint16
	uvs      []math.Vec2
	surfaces []testSurface
}

type testMesh struct {
	materials      []testMaterial
	models         []testModel
	declaredModels uint32 // Overrides the model count when nonzero
}

// uvAnimSizes mirrors the payload sizes of known UV animation types.
var uvAnimSizes = map[uint32]int{2: 16, 3: 8, 4: 16, 5: 16, 7: 8}

func (f *fixture) material(m testMaterial) {
	f.u32(int64(m.flags))
	f.u32(1) // one texture index
	f.zeros(4)
	f.u32(int64(m.vtxAttr))
	f.zeros(12)
	if m.flags&MaterialKonstColors != 0 {
		f.u32(int64(m.konst))
		f.zeros(4 * m.konst)
	}
	f.zeros(4)
	if m.flags&MaterialReflectionStage != 0 {
		f.zeros(4)
	}
	f.u32(2) // color channels
	f.zeros(8)
	f.u32(1) // TEV stages
	f.zeros(20)
	f.zeros(4)
	f.u32(0) // tex gens

	size := 4
	for _, typ := range m.uvAnims {
		size += 4 + uvAnimSizes[typ]
	}
	f.u32(int64(size + m.uvSizeDelta))
	f.u32(int64(len(m.uvAnims)))
	for _, typ := range m.uvAnims {
		f.u32(int64(typ))
		f.zeros(uvAnimSizes[typ])
	}
	f.fill(m.trailer, 0xEE)
}

func (f *fixture) materialSet(mats []testMaterial) {
	f.u32(2) // texture ids
	f.zeros(8)
	f.u32(int64(len(mats)))
	endsAt := f.s.Offset()
	f.zeros(4 * len(mats))

	start := f.s.Offset()
	for i, m := range mats {
		f.material(m)
		f.patchU32(endsAt+4*i, int64(f.s.Offset()-start))
	}
}

func (f *fixture) surface(s testSurface) {
	f.vec3(s.pivot)
	f.u32(int64(s.material))
	f.u32(int64(len(s.dl)) | 0x80000000)
	f.zeros(8)
	f.u32(0) // extra data
	f.zeros(16)
	f.align(displayListAlign)
	f.raw(s.dl)
}

func (f *fixture) mesh(m testMesh) {
	sections := 1
	for _, md := range m.models {
		sections += modelFixedSections + len(md.surfaces)
	}
	declared := m.declaredModels
	if declared == 0 {
		declared = uint32(len(m.models))
	}

	header := f.s.Offset()
	f.u32(0) // alloc size
	f.u32(int64(declared))
	f.u32(int64(sections))
	table := f.s.Offset()
	f.zeros(4 * sections)

	blockStart := f.s.Offset()
	var sizes []int
	section := func(write func()) {
		start := f.s.Offset()
		write()
		sizes = append(sizes, f.s.Offset()-start)
	}

	section(func() { f.materialSet(m.materials) })
	for _, md := range m.models {
		section(func() {
			for _, v := range md.vertices {
				f.vec3(v)
			}
		})
		section(func() {
			for _, n := range md.normals {
				f.u16(int64(n[0]))
				f.u16(int64(n[1]))
				f.u16(int64(n[2]))
			}
		})
		section(func() { f.zeros(8) }) // colors
		section(func() {
			for _, uv := range md.uvs {
				f.f32(uv.X)
				f.f32(uv.Y)
			}
		})
		section(func() {}) // short UVs
		section(func() {
			f.u32(int64(len(md.surfaces)))
			f.zeros(4 * len(md.surfaces))
		})
		for _, surf := range md.surfaces {
			section(func() { f.surface(surf) })
		}
	}

	f.patchU32(header, int64(f.s.Offset()-blockStart))
	for i, size := range sizes {
		f.patchU32(table+4*i, int64(size))
	}
}

// buildFrame writes a version 4 frame with two dependencies.
func buildFrame(t *testing.T, mesh *testMesh, widgets ...testWidget) []byte {
	f := newFixture(t)
	f.u32(FRMEVersion)
	f.u32(2)
	f.raw([]byte("TXTR"))
	f.u32(0x1234)
	f.raw([]byte("FONT"))
	f.u32(0x5678)

	if mesh == nil {
		f.u32(0)
		f.u32(0)
		f.u32(0)
	} else {
		f.mesh(*mesh)
	}

	f.u32(int64(len(widgets)))
	for _, w := range widgets {
		f.widget(w)
	}
	return f.bytes()
}

// prim encodes a display-list primitive whose vertices carry only 16-bit
// index fields.
func prim(op byte, vertices ...[]uint16) []byte {
	out := []byte{op, byte(len(vertices) >> 8), byte(len(vertices))}
	for _, v := range vertices {
		for _, idx := range v {
			out = append(out, byte(idx>>8), byte(idx))
		}
	}
	return out
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
