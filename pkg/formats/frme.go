package formats

import (
	"os"

	"github.com/pkg/errors"

	"github.com/Faultbox/frmekit/pkg/bufstream"
	"github.com/Faultbox/frmekit/pkg/encoding"
	"github.com/Faultbox/frmekit/pkg/math"
)

// FRME format errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported FRME version")
	ErrUnknownTag         = errors.New("unknown widget type")
	ErrUnsupportedFeature = errors.New("unsupported feature")
	ErrDuplicateName      = errors.New("duplicate widget name")
	ErrMultipleRoots      = errors.New("multiple root widgets")
)

const (
	// FRMEVersion is the only frame version decoded.
	FRMEVersion = 4

	// RootParentName is the parent name that marks the root widget.
	RootParentName = "kGSYS_InvalidWidgetID"

	// EmbeddedModelRef is the MODL reference value selecting a model from
	// the frame's own mesh block.
	EmbeddedModelRef = 0xFFFFFFFF
)

// minWidgetSize is the smallest encoding of a widget: tag, two empty names,
// the common block, the pad flag and the transform.
const minWidgetSize = 4 + 1 + 1 + commonBlockSize + 1 + 12*4

// Dependency is an asset the frame references (usually textures and fonts).
type Dependency struct {
	Type string
	ID   uint32
}

// FRME is a decoded frame.
type FRME struct {
	Version      uint32
	Dependencies []Dependency
	Mesh         *Mesh // nil when the frame has no models
	Models       []*Model
	Widgets      map[string]*Widget
	Root         *Widget
	Warnings     []string

	order []string
}

// ParseFRME decodes a frame from data.
func ParseFRME(data []byte, opts ...Option) (*FRME, error) {
	o := newDecodeOptions(opts)
	warn := &warnings{log: o.log}
	s := bufstream.New(data, bufstream.ReadOnlyOptions())

	f, err := readFRME(s, o, warn)
	if err != nil {
		return nil, err
	}
	f.Warnings = warn.list
	return f, nil
}

// ParseFRMEFile decodes a frame from a file.
func ParseFRMEFile(path string, opts ...Option) (*FRME, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading FRME file")
	}
	return ParseFRME(data, opts...)
}

func readFRME(s *bufstream.Stream, o *decodeOptions, warn *warnings) (*FRME, error) {
	version, err := s.ReadUint32BE()
	if err != nil {
		return nil, errors.Wrap(err, "version")
	}
	if version != FRMEVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", version)
	}
	f := &FRME{Version: version}

	if f.Dependencies, err = readDependencies(s); err != nil {
		return nil, errors.Wrap(err, "dependencies")
	}

	var allocSize, modelCount, sectionCount uint32
	for _, p := range []*uint32{&allocSize, &modelCount, &sectionCount} {
		if *p, err = s.ReadUint32BE(); err != nil {
			return nil, errors.Wrap(err, "mesh header")
		}
	}

	if modelCount > 0 {
		if f.Mesh, err = readMesh(s, allocSize, modelCount, sectionCount, o, warn); err != nil {
			return nil, errors.Wrap(err, "mesh block")
		}
		f.Models = f.Mesh.Models
	} else if err = s.Skip(int(allocSize)); err != nil {
		return nil, errors.Wrap(err, "mesh block")
	}

	if err = readWidgets(s, f, o); err != nil {
		return nil, err
	}
	return f, nil
}

func readDependencies(s *bufstream.Stream) ([]Dependency, error) {
	n, err := s.ReadUint32BE()
	if err != nil {
		return nil, err
	}
	if !s.CanRead(int(n) * 8) {
		return nil, errors.Wrapf(ErrEndOfStream, "%d dependencies", n)
	}
	deps := make([]Dependency, n)
	for i := range deps {
		tag, err := s.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		if deps[i].Type, err = encoding.FixedString(tag); err != nil {
			return nil, errors.Wrapf(ErrInvalidData, "dependency %d tag: %v", i, err)
		}
		if deps[i].ID, err = s.ReadUint32BE(); err != nil {
			return nil, err
		}
	}
	return deps, nil
}

func readWidgets(s *bufstream.Stream, f *FRME, o *decodeOptions) error {
	count, err := s.ReadUint32BE()
	if err != nil {
		return errors.Wrap(err, "widget count")
	}
	if o.maxWidgets > 0 && int(count) > o.maxWidgets {
		return errors.Wrapf(ErrInvalidData, "%d widgets exceeds limit %d", count, o.maxWidgets)
	}
	if int(count) > s.Remaining()/minWidgetSize {
		return errors.Wrapf(ErrEndOfStream, "%d widgets in %d bytes", count, s.Remaining())
	}

	f.Widgets = make(map[string]*Widget, count)
	f.order = make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		w, err := readWidget(s, f)
		if err != nil {
			return errors.Wrapf(err, "widget %d", i)
		}
		f.Widgets[w.Name] = w
		f.order = append(f.order, w.Name)
	}
	return nil
}

func readWidget(s *bufstream.Stream, f *FRME) (*Widget, error) {
	tag, err := s.ReadUTF8String(4)
	if err != nil {
		return nil, err
	}
	w := &Widget{Type: WidgetType(tag)}

	if w.Name, err = s.ReadUTF8String(0); err != nil {
		return nil, errors.Wrap(err, "name")
	}
	if _, dup := f.Widgets[w.Name]; dup {
		return nil, errors.Wrapf(ErrDuplicateName, "%q", w.Name)
	}
	if w.Parent, err = s.ReadUTF8String(0); err != nil {
		return nil, errors.Wrapf(err, "%q parent", w.Name)
	}
	if w.IsRoot() {
		if f.Root != nil {
			return nil, errors.Wrapf(ErrMultipleRoots, "%q and %q", f.Root.Name, w.Name)
		}
		f.Root = w
	}

	common, err := s.ReadBytes(commonBlockSize)
	if err != nil {
		return nil, err
	}
	copy(w.Common[:], common)

	if w.Payload, err = readPayload(s, w.Type, f.Models); err != nil {
		return nil, errors.Wrapf(err, "%q payload", w.Name)
	}

	if w.HasPad, err = s.ReadBool(); err != nil {
		return nil, err
	}
	if w.HasPad {
		if w.Pad, err = s.ReadUint16BE(); err != nil {
			return nil, err
		}
	}
	if w.Translation, err = readVec3(s); err != nil {
		return nil, errors.Wrapf(err, "%q translation", w.Name)
	}
	if w.Orientation, err = readMat3(s); err != nil {
		return nil, errors.Wrapf(err, "%q orientation", w.Name)
	}
	return w, nil
}

// Names returns widget names in file order.
func (f *FRME) Names() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Children returns the widgets whose parent is name, in file order.
func (f *FRME) Children(name string) []*Widget {
	var out []*Widget
	for _, n := range f.order {
		if w := f.Widgets[n]; w.Parent == name {
			out = append(out, w)
		}
	}
	return out
}

// WalkFunc is called for each widget visited by Walk.
type WalkFunc func(w *Widget, depth int) error

// Walk visits the widget tree depth first. Tops are the root widget and any
// widget whose parent is not in the frame, in file order. Widgets only
// reachable through a parent cycle are visited afterwards, starting from the
// first unvisited one in file order. Every widget is visited exactly once.
// Returning an error from fn stops the walk.
func (f *FRME) Walk(fn WalkFunc) error {
	visited := make(map[string]bool, len(f.Widgets))

	var visit func(w *Widget, depth int) error
	visit = func(w *Widget, depth int) error {
		if visited[w.Name] {
			return nil
		}
		visited[w.Name] = true
		if err := fn(w, depth); err != nil {
			return err
		}
		for _, c := range f.Children(w.Name) {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, n := range f.order {
		w := f.Widgets[n]
		if _, hasParent := f.Widgets[w.Parent]; hasParent && !w.IsRoot() {
			continue
		}
		if err := visit(w, 0); err != nil {
			return err
		}
	}

	for _, n := range f.order {
		if err := visit(f.Widgets[n], 0); err != nil {
			return err
		}
	}
	return nil
}

// WorldTransform returns the product of the local transforms from the top of
// name's parent chain down to name.
func (f *FRME) WorldTransform(name string) (math.Mat4, error) {
	w, ok := f.Widgets[name]
	if !ok {
		return math.Identity(), errors.Errorf("widget %q not found", name)
	}

	m := w.Transform()
	seen := map[string]bool{name: true}
	for !w.IsRoot() {
		parent, ok := f.Widgets[w.Parent]
		if !ok {
			break
		}
		if seen[parent.Name] {
			return math.Identity(), errors.Wrapf(ErrInvalidData, "parent cycle at %q", parent.Name)
		}
		seen[parent.Name] = true
		m = parent.Transform().Mul(m)
		w = parent
	}
	return m, nil
}
