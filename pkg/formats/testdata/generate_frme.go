//go:build ignore

// This program generates a sample FRME file for manual frmetool runs.
// Run with: go run generate_frme.go
package main

import (
	"os"

	"github.com/Faultbox/frmekit/pkg/bufstream"
)

const rootParent = "kGSYS_InvalidWidgetID"

var s = bufstream.Alloc(0, nil)

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func u8(v int64)    { must(s.WriteUint8(v)) }
func u16(v int64)   { must(s.WriteUint16BE(v)) }
func u32(v int64)   { must(s.WriteUint32BE(v)) }
func f32(v float32) { must(s.WriteFloat32BE(v)) }

func zeros(n int) {
	for i := 0; i < n; i++ {
		u8(0)
	}
}

func cstr(str string) {
	_, err := s.WriteCString(str)
	must(err)
}

func patch(at int, v int64) {
	cur := s.Offset()
	must(s.Seek(at))
	u32(v)
	must(s.Seek(cur))
}

func main() {
	u32(4) // version

	// Dependencies: one texture, one font
	u32(2)
	_, _ = s.Write([]byte("TXTR"))
	u32(0x10000001)
	_, _ = s.Write([]byte("FONT"))
	u32(0x10000002)

	writeMesh()

	// Widgets
	u32(4)
	widget("BWIG", "kGSYS_HeadWidgetID", rootParent, nil, 0)
	widget("CAMR", "camera", "kGSYS_HeadWidgetID", func() {
		u32(0) // perspective
		f32(55)
		f32(1.6)
		f32(0.1)
		f32(4096)
	}, 0)
	widget("IMGP", "backdrop", "kGSYS_HeadWidgetID", func() {
		zeros(12)
		u32(4)
		for _, c := range [][3]float32{{-1, 0, -1}, {1, 0, -1}, {-1, 0, 1}, {1, 0, 1}} {
			f32(c[0])
			f32(c[1])
			f32(c[2])
		}
		u32(4)
		for _, uv := range [][2]float32{{0, 1}, {1, 1}, {0, 0}, {1, 0}} {
			f32(uv[0])
			f32(uv[1])
		}
	}, 0)
	widget("MODL", "cursor", "camera", func() {
		u32(0xFFFFFFFF)
		u32(0)
		u32(0)
	}, 2)

	if err := os.WriteFile("sample.frme", s.Bytes(), 0644); err != nil {
		panic(err)
	}

	println("Generated sample.frme:", s.Offset(), "bytes")
	println("  - 2 dependencies (TXTR, FONT)")
	println("  - 1 embedded model (quad strip, 1 surface)")
	println("  - 4 widgets (root, camera, image pane, model)")
}

func widget(tag, name, parent string, payload func(), z float32) {
	_, _ = s.Write([]byte(tag))
	cstr(name)
	cstr(parent)
	zeros(24)
	if payload != nil {
		payload()
	}
	u8(0) // no pad
	f32(0)
	f32(0)
	f32(z)
	for _, v := range []float32{1, 0, 0, 0, 1, 0, 0, 0, 1} {
		f32(v)
	}
}

func writeMesh() {
	const sections = 8 // materials + 6 model sections + 1 surface

	header := s.Offset()
	u32(0) // alloc size, patched
	u32(1) // models
	u32(sections)
	table := s.Offset()
	zeros(4 * sections)
	blockStart := s.Offset()

	var sizes []int
	section := func(write func()) {
		start := s.Offset()
		write()
		sizes = append(sizes, s.Offset()-start)
	}

	section(func() {
		u32(0) // texture ids
		u32(1) // materials
		endAt := s.Offset()
		u32(0)
		start := s.Offset()

		u32(0)     // flags
		u32(0)     // texture indices
		u32(0x30F) // position, normal, uv0
		zeros(12)
		zeros(4)
		u32(0) // color channels
		u32(0) // TEV stages
		u32(0) // tex gens
		u32(4) // uv animation block size
		u32(0) // uv animations
		patch(endAt, int64(s.Offset()-start))
	})
	section(func() {
		for _, v := range [][3]float32{{-0.5, -0.5, 0}, {0.5, -0.5, 0}, {-0.5, 0.5, 0}, {0.5, 0.5, 0}} {
			f32(v[0])
			f32(v[1])
			f32(v[2])
		}
	})
	section(func() {
		u16(0)
		u16(0)
		u16(0x7FFF)
	})
	section(func() {}) // colors
	section(func() {
		for _, uv := range [][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			f32(uv[0])
			f32(uv[1])
		}
	})
	section(func() {}) // short UVs
	section(func() {
		u32(1)
		u32(0)
	})
	section(func() {
		f32(0)
		f32(0)
		f32(0)
		u32(0) // material
		dlSizeAt := s.Offset()
		u32(0)
		zeros(8)
		u32(0) // extra data
		zeros(16)
		for s.Offset()%32 != 0 {
			u8(0)
		}
		dlStart := s.Offset()
		u8(0x98)
		u16(4)
		for i := int64(0); i < 4; i++ {
			u16(i) // position
			u16(0) // normal
			u16(i) // uv
		}
		for s.Offset()%32 != 0 {
			u8(0) // NOP padding
		}
		patch(dlSizeAt, int64(s.Offset()-dlStart)|0x80000000)
	})

	patch(header, int64(s.Offset()-blockStart))
	for i, size := range sizes {
		patch(table+4*i, int64(size))
	}
}
