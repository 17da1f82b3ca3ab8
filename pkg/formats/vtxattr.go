package formats

import "fmt"

// FieldKind identifies one optional per-vertex field in a display list.
type FieldKind uint8

const (
	FieldMatrixIndex    FieldKind = iota // Position/normal matrix index (1 byte)
	FieldTexMatrixIndex                  // Texture matrix index (1 byte)
	FieldPosition                        // Position table index (u16)
	FieldNormal                          // Normal table index (u16)
	FieldColor                           // Color index (u16)
	FieldTexCoord                        // UV table index (u16)
)

// String returns a human-readable field kind name.
func (k FieldKind) String() string {
	switch k {
	case FieldMatrixIndex:
		return "PosMtx"
	case FieldTexMatrixIndex:
		return "TexMtx"
	case FieldPosition:
		return "Position"
	case FieldNormal:
		return "Normal"
	case FieldColor:
		return "Color"
	case FieldTexCoord:
		return "TexCoord"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// VertexField is a single entry of a vertex layout. The field is present
// when every bit of Mask is set in the material's attribute flags.
type VertexField struct {
	Mask uint32
	Kind FieldKind
	Slot int // Color or texture slot; 0 otherwise
	Size int // Encoded size in bytes
}

// texSlots is the number of texture coordinate slots a vertex can carry.
const texSlots = 7

// vertexSchema lists every candidate field in display-list order.
var vertexSchema = buildVertexSchema()

func buildVertexSchema() []VertexField {
	fields := []VertexField{{Mask: 0x01000000, Kind: FieldMatrixIndex, Size: 1}}
	// Each tex matrix slot has its own bit, including slots 1 and 2, which some
	// existing loaders never read.
	for k := 0; k < texSlots; k++ {
		fields = append(fields, VertexField{Mask: 0x02000000 << k, Kind: FieldTexMatrixIndex, Slot: k, Size: 1})
	}
	fields = append(fields,
		VertexField{Mask: 0x3, Kind: FieldPosition, Size: 2},
		VertexField{Mask: 0xC, Kind: FieldNormal, Size: 2},
		VertexField{Mask: 0x30, Kind: FieldColor, Slot: 0, Size: 2},
		VertexField{Mask: 0xC0, Kind: FieldColor, Slot: 1, Size: 2},
	)
	for k := 0; k < texSlots; k++ {
		fields = append(fields, VertexField{Mask: 0x300 << (2 * k), Kind: FieldTexCoord, Slot: k, Size: 2})
	}
	return fields
}

// VertexLayout is the ordered set of fields every vertex of a surface
// carries, derived from its material's attribute flags.
type VertexLayout struct {
	Flags  uint32
	Fields []VertexField
}

// LayoutFor derives the vertex layout for a material's attribute flags.
func LayoutFor(flags uint32) VertexLayout {
	l := VertexLayout{Flags: flags}
	for _, f := range vertexSchema {
		if flags&f.Mask == f.Mask {
			l.Fields = append(l.Fields, f)
		}
	}
	return l
}

// Size returns the encoded size of one vertex in bytes.
func (l VertexLayout) Size() int {
	n := 0
	for _, f := range l.Fields {
		n += f.Size
	}
	return n
}

// Has reports whether the layout carries the given field.
func (l VertexLayout) Has(kind FieldKind, slot int) bool {
	for _, f := range l.Fields {
		if f.Kind == kind && f.Slot == slot {
			return true
		}
	}
	return false
}

// String returns the field list, e.g. "Position,Normal,TexCoord0".
func (l VertexLayout) String() string {
	if len(l.Fields) == 0 {
		return "-"
	}
	s := ""
	for i, f := range l.Fields {
		if i > 0 {
			s += ","
		}
		s += f.Kind.String()
		switch f.Kind {
		case FieldTexMatrixIndex, FieldColor, FieldTexCoord:
			s += fmt.Sprint(f.Slot)
		}
	}
	return s
}
