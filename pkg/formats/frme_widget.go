package formats

import (
	stdmath "math"

	"github.com/pkg/errors"

	"github.com/Faultbox/frmekit/pkg/bufstream"
	"github.com/Faultbox/frmekit/pkg/math"
)

// WidgetType is a widget's 4-character type tag.
type WidgetType string

const (
	WidgetBase        WidgetType = "BWIG"
	WidgetHead        WidgetType = "HWIG"
	WidgetLight       WidgetType = "LITE"
	WidgetCamera      WidgetType = "CAMR"
	WidgetGroup       WidgetType = "GRUP"
	WidgetPane        WidgetType = "PANE"
	WidgetImagePane   WidgetType = "IMGP"
	WidgetMeter       WidgetType = "METR"
	WidgetModel       WidgetType = "MODL"
	WidgetTableGroup  WidgetType = "TBGP"
	WidgetSliderGroup WidgetType = "SLGP"
	WidgetTextPane    WidgetType = "TXPN"
	WidgetEnergyBar   WidgetType = "ENRG"
	WidgetBeamMeter   WidgetType = "BMTR"
	WidgetBackground  WidgetType = "BGND"
)

var widgetTypeNames = map[WidgetType]string{
	WidgetBase:        "Base",
	WidgetHead:        "Head",
	WidgetLight:       "Light",
	WidgetCamera:      "Camera",
	WidgetGroup:       "Group",
	WidgetPane:        "Pane",
	WidgetImagePane:   "ImagePane",
	WidgetMeter:       "Meter",
	WidgetModel:       "Model",
	WidgetTableGroup:  "TableGroup",
	WidgetSliderGroup: "SliderGroup",
	WidgetTextPane:    "TextPane",
	WidgetEnergyBar:   "EnergyBar",
	WidgetBeamMeter:   "BeamMeter",
	WidgetBackground:  "Background",
}

// Name returns a descriptive name for the tag, or the tag itself if unknown.
func (t WidgetType) Name() string {
	if name, ok := widgetTypeNames[t]; ok {
		return name
	}
	return string(t)
}

// commonBlockSize is the size of the block shared by every widget between
// its parent name and its typed payload.
const commonBlockSize = 24

// Widget is one node of a frame.
type Widget struct {
	Type        WidgetType
	Name        string
	Parent      string
	Common      [commonBlockSize]byte
	Payload     WidgetPayload
	HasPad      bool
	Pad         uint16
	Translation math.Vec3
	Orientation math.Mat3
}

// IsRoot reports whether the widget's parent is the root sentinel.
func (w *Widget) IsRoot() bool {
	return w.Parent == RootParentName
}

// Transform returns the widget's local transform (translation * orientation).
func (w *Widget) Transform() math.Mat4 {
	return math.Translate(w.Translation).Mul(w.Orientation.Mat4())
}

// WidgetPayload is the type-specific part of a widget. The set of
// implementations is closed: OpaquePayload, CameraPayload, QuadPayload and
// ModelPayload.
type WidgetPayload interface {
	widgetPayload()
}

// OpaquePayload holds payload bytes the decoder does not interpret.
type OpaquePayload struct {
	Data []byte
}

// ProjectionKind selects a camera projection.
type ProjectionKind uint32

const (
	ProjectionPerspective  ProjectionKind = 0
	ProjectionOrthographic ProjectionKind = 1
)

// String returns a human-readable projection name.
func (k ProjectionKind) String() string {
	switch k {
	case ProjectionPerspective:
		return "Perspective"
	case ProjectionOrthographic:
		return "Orthographic"
	default:
		return "Unknown"
	}
}

// CameraPayload holds camera parameters. Perspective cameras use FOV
// (vertical, degrees), Aspect, Near and Far; orthographic cameras use Left,
// Right, Top, Bottom, Near and Far.
type CameraPayload struct {
	Kind   ProjectionKind
	FOV    float32
	Aspect float32
	Left   float32
	Right  float32
	Top    float32
	Bottom float32
	Near   float32
	Far    float32
}

// Projection returns the camera's projection matrix.
func (c *CameraPayload) Projection() math.Mat4 {
	if c.Kind == ProjectionOrthographic {
		return math.Ortho(c.Left, c.Right, c.Bottom, c.Top, c.Near, c.Far)
	}
	return math.Perspective(c.FOV*stdmath.Pi/180, c.Aspect, c.Near, c.Far)
}

// QuadPayload holds the quad geometry of image panes and beam meters.
// Coords are drawn as a triangle strip.
type QuadPayload struct {
	Header  []byte // Opaque bytes before the coordinates
	Coords  []math.Vec3
	UVs     []math.Vec2
	Trailer []byte // Opaque bytes after the UVs
}

// ModelPayload references a model, either embedded in the frame's mesh
// block or stored as a separate asset.
type ModelPayload struct {
	CMDLRef    uint32
	ModelIndex uint32
	Reserved   uint32
	Model      *Model // Resolved embedded model; nil for external references
}

// Embedded reports whether the payload points into the frame's own mesh block.
func (m *ModelPayload) Embedded() bool {
	return m.CMDLRef == EmbeddedModelRef
}

func (*OpaquePayload) widgetPayload() {}
func (*CameraPayload) widgetPayload() {}
func (*QuadPayload) widgetPayload()   {}
func (*ModelPayload) widgetPayload()  {}

// opaqueSizes lists widget types whose payload is a fixed run of bytes.
var opaqueSizes = map[WidgetType]int{
	WidgetBase:        0,
	WidgetHead:        0,
	WidgetLight:       32,
	WidgetGroup:       3,
	WidgetPane:        20,
	WidgetMeter:       10,
	WidgetTableGroup:  1,
	WidgetSliderGroup: 16,
	WidgetTextPane:    118,
	WidgetEnergyBar:   4,
}

// readPayload dispatches on the widget type.
func readPayload(s *bufstream.Stream, typ WidgetType, models []*Model) (WidgetPayload, error) {
	switch typ {
	case WidgetBase, WidgetHead, WidgetLight, WidgetGroup, WidgetPane, WidgetMeter,
		WidgetTableGroup, WidgetSliderGroup, WidgetTextPane, WidgetEnergyBar:
		data, err := s.ReadBytes(opaqueSizes[typ])
		if err != nil {
			return nil, err
		}
		return &OpaquePayload{Data: data}, nil
	case WidgetCamera:
		return readCamera(s)
	case WidgetImagePane:
		return readQuad(s, 12, 0)
	case WidgetBeamMeter:
		return readQuad(s, 0, 4)
	case WidgetModel:
		return readModelRef(s, models)
	case WidgetBackground:
		return nil, errors.Wrapf(ErrUnsupportedFeature, "widget type %q", string(typ))
	default:
		return nil, errors.Wrapf(ErrUnknownTag, "widget type %q", string(typ))
	}
}

func readCamera(s *bufstream.Stream) (*CameraPayload, error) {
	kind, err := s.ReadUint32BE()
	if err != nil {
		return nil, err
	}
	c := &CameraPayload{Kind: ProjectionKind(kind)}

	var fields []*float32
	switch c.Kind {
	case ProjectionPerspective:
		fields = []*float32{&c.FOV, &c.Aspect, &c.Near, &c.Far}
	case ProjectionOrthographic:
		fields = []*float32{&c.Left, &c.Right, &c.Top, &c.Bottom, &c.Near, &c.Far}
	default:
		return nil, errors.Wrapf(ErrInvalidData, "camera projection %d", kind)
	}
	for _, f := range fields {
		if *f, err = s.ReadFloat32BE(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func readQuad(s *bufstream.Stream, header, trailer int) (*QuadPayload, error) {
	q := &QuadPayload{}
	var err error

	if header > 0 {
		if q.Header, err = s.ReadBytes(header); err != nil {
			return nil, err
		}
	}

	n, err := s.ReadUint32BE()
	if err != nil {
		return nil, err
	}
	if q.Coords, err = readVec3Table(s, int(n)); err != nil {
		return nil, errors.Wrap(err, "quad coords")
	}

	if n, err = s.ReadUint32BE(); err != nil {
		return nil, err
	}
	if q.UVs, err = readVec2Table(s, int(n)); err != nil {
		return nil, errors.Wrap(err, "quad uvs")
	}

	if trailer > 0 {
		if q.Trailer, err = s.ReadBytes(trailer); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func readModelRef(s *bufstream.Stream, models []*Model) (*ModelPayload, error) {
	m := &ModelPayload{}
	var err error

	if m.CMDLRef, err = s.ReadUint32BE(); err != nil {
		return nil, err
	}
	if m.ModelIndex, err = s.ReadUint32BE(); err != nil {
		return nil, err
	}
	if m.Reserved, err = s.ReadUint32BE(); err != nil {
		return nil, err
	}

	if m.Embedded() {
		if int(m.ModelIndex) >= len(models) {
			return nil, errors.Wrapf(ErrInvalidData, "model index %d of %d", m.ModelIndex, len(models))
		}
		m.Model = models[m.ModelIndex]
	}
	return m, nil
}

func readMat3(s *bufstream.Stream) (math.Mat3, error) {
	var m math.Mat3
	for i := range m {
		v, err := s.ReadFloat32BE()
		if err != nil {
			return m, err
		}
		m[i] = v
	}
	return m, nil
}
