package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/Faultbox/frmekit/internal/config"
	"github.com/Faultbox/frmekit/pkg/bufstream"
	"github.com/Faultbox/frmekit/pkg/formats"
	"github.com/Faultbox/frmekit/pkg/math"
)

// errUsage marks errors already reported as usage text.
var errUsage = errors.New("usage")

func cmdInfo(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	f, err := openFrame(fs, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Frame:    %s\n", fs.Arg(0))
	fmt.Fprintf(out, "Version:  %d\n", f.Version)
	fmt.Fprintf(out, "Widgets:  %d\n", len(f.Widgets))
	fmt.Fprintf(out, "Models:   %d\n", len(f.Models))
	if f.Root != nil {
		fmt.Fprintf(out, "Root:     %s\n", f.Root.Name)
	} else {
		fmt.Fprintln(out, "Root:     (none)")
	}

	if len(f.Dependencies) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Dependencies:")
		for _, d := range f.Dependencies {
			fmt.Fprintf(out, "  %s 0x%08X\n", d.Type, d.ID)
		}
	}

	// Count by widget type
	typeCount := make(map[formats.WidgetType]int)
	for _, w := range f.Widgets {
		typeCount[w.Type]++
	}
	type typeStat struct {
		typ   formats.WidgetType
		count int
	}
	var stats []typeStat
	for typ, count := range typeCount {
		stats = append(stats, typeStat{typ, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].typ < stats[j].typ
	})

	if len(stats) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Widgets by type:")
		for _, s := range stats {
			fmt.Fprintf(out, "  %s %-10s %d\n", s.typ, s.typ.Name(), s.count)
		}
	}

	if len(f.Warnings) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Warnings:")
		for _, w := range f.Warnings {
			fmt.Fprintf(out, "  %s\n", w)
		}
	}
	return nil
}

func cmdWidgets(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("widgets", flag.ContinueOnError)
	local := fs.Bool("local", false, "Print local instead of world positions")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	f, err := openFrame(fs, cfg)
	if err != nil {
		return err
	}

	return f.Walk(func(w *formats.Widget, depth int) error {
		m := w.Transform()
		if !*local {
			if m, err = f.WorldTransform(w.Name); err != nil {
				return err
			}
		}
		pos := m.Translation()
		fmt.Fprintf(out, "%s%s [%s] (%.3f, %.3f, %.3f)%s\n",
			strings.Repeat("  ", depth), w.Name, w.Type, pos.X, pos.Y, pos.Z, describePayload(w.Payload, m))
		return nil
	})
}

// quadCenter returns the centroid of the quad coordinates placed by m.
func quadCenter(q *formats.QuadPayload, m math.Mat4) math.Vec3 {
	var sum math.Vec3
	for _, c := range q.Coords {
		sum = sum.Add(c)
	}
	n := float32(len(q.Coords))
	return m.TransformVec3(math.Vec3{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n})
}

// describePayload returns a short suffix for payloads worth showing in a tree.
// m places the widget in the space its position is printed in.
func describePayload(p formats.WidgetPayload, m math.Mat4) string {
	switch p := p.(type) {
	case *formats.CameraPayload:
		if p.Kind == formats.ProjectionOrthographic {
			return fmt.Sprintf(" ortho l=%g r=%g t=%g b=%g", p.Left, p.Right, p.Top, p.Bottom)
		}
		return fmt.Sprintf(" perspective fov=%g aspect=%g", p.FOV, p.Aspect)
	case *formats.QuadPayload:
		if len(p.Coords) == 0 {
			return fmt.Sprintf(" quad coords=0 uvs=%d", len(p.UVs))
		}
		c := quadCenter(p, m)
		return fmt.Sprintf(" quad coords=%d uvs=%d center=(%.3f, %.3f, %.3f)", len(p.Coords), len(p.UVs), c.X, c.Y, c.Z)
	case *formats.ModelPayload:
		if p.Embedded() {
			return fmt.Sprintf(" model #%d", p.ModelIndex)
		}
		return fmt.Sprintf(" model CMDL 0x%08X", p.CMDLRef)
	default:
		return ""
	}
}

func cmdModels(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	f, err := openFrame(fs, cfg)
	if err != nil {
		return err
	}

	if f.Mesh == nil {
		fmt.Fprintln(out, "No embedded models")
		return nil
	}

	fmt.Fprintf(out, "Sections:  %d\n", len(f.Mesh.SectionSizes))
	fmt.Fprintf(out, "Materials: %d\n", len(f.Mesh.Materials))
	for i, m := range f.Mesh.Materials {
		fmt.Fprintf(out, "  #%d flags=0x%08X layout=%s (%d bytes/vertex)\n", i, m.Flags, m.Layout, m.Layout.Size())
	}

	for i, m := range f.Models {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Model %d:\n", i)
		fmt.Fprintf(out, "  Vertices:  %d\n", len(m.Vertices))
		fmt.Fprintf(out, "  Normals:   %d\n", len(m.Normals))
		fmt.Fprintf(out, "  UVs:       %d\n", len(m.UVs))
		fmt.Fprintf(out, "  Surfaces:  %d\n", len(m.Surfaces))
		fmt.Fprintf(out, "  Triangles: %d\n", m.TriangleCount())
		if lo, hi, ok := m.Bounds(); ok {
			fmt.Fprintf(out, "  Bounds:    (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
			fmt.Fprintf(out, "  Extent:    %.3f\n", m.Extent())
		}
		for j, b := range m.Batches {
			fmt.Fprintf(out, "  Batch %d: %s vertices=%d triangles=%d\n", j, b.Triangulation, b.VertexCount(), b.TriangleCount())
		}
	}
	return nil
}

// dumpView is what the dump command prints when geometry is excluded.
type dumpView struct {
	Version      uint32
	Dependencies []formats.Dependency
	Widgets      []*formats.Widget
	Warnings     []string
}

func cmdDump(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	f, err := openFrame(fs, cfg)
	if err != nil {
		return err
	}

	sc := spew.ConfigState{
		Indent:                  cfg.Dump.Indent,
		MaxDepth:                cfg.Dump.MaxDepth,
		DisablePointerAddresses: cfg.Dump.HidePointers,
		DisableCapacities:       true,
		DisableMethods:          true,
		SortKeys:                true,
	}

	if cfg.Dump.IncludeGeometry {
		sc.Fdump(out, f)
		return nil
	}

	view := dumpView{Version: f.Version, Dependencies: f.Dependencies, Warnings: f.Warnings}
	for _, name := range f.Names() {
		w := *f.Widgets[name]
		if mp, ok := w.Payload.(*formats.ModelPayload); ok && mp.Model != nil {
			stripped := *mp
			stripped.Model = nil
			w.Payload = &stripped
		}
		view.Widgets = append(view.Widgets, &w)
	}
	sc.Fdump(out, view)
	return nil
}

func cmdVarint(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("varint", flag.ContinueOnError)
	unsigned := fs.Bool("u", false, "Use the unsigned encoding")
	if _, err := setup(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: frmetool varint [-u] encode|decode <value>...")
		return errUsage
	}

	switch fs.Arg(0) {
	case "encode":
		for _, arg := range fs.Args()[1:] {
			v, err := strconv.ParseInt(arg, 0, 64)
			if err != nil {
				return errors.Wrapf(err, "parsing %q", arg)
			}
			var enc []byte
			if *unsigned {
				enc, err = bufstream.EncodeUint(v)
			} else {
				enc, err = bufstream.EncodeInt(v)
			}
			if err != nil {
				return errors.Wrapf(err, "encoding %d", v)
			}
			fmt.Fprintf(out, "%d\t%s\n", v, hex.EncodeToString(enc))
		}
	case "decode":
		for _, arg := range fs.Args()[1:] {
			data, err := hex.DecodeString(strings.ReplaceAll(arg, " ", ""))
			if err != nil {
				return errors.Wrapf(err, "parsing %q", arg)
			}
			if *unsigned {
				v, err := bufstream.DecodeUint(data)
				if err != nil {
					return errors.Wrapf(err, "decoding %s", arg)
				}
				fmt.Fprintf(out, "%s\t%d\n", arg, v)
				continue
			}
			v, err := bufstream.DecodeInt(data)
			if err != nil {
				return errors.Wrapf(err, "decoding %s", arg)
			}
			fmt.Fprintf(out, "%s\t%d\n", arg, v)
		}
	default:
		return errors.Errorf("unknown varint mode %q", fs.Arg(0))
	}
	return nil
}

func cmdConfig(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	if fs.NArg() > 0 {
		err = cfg.SaveTo(fs.Arg(0))
	} else {
		err = cfg.Save()
	}
	if err != nil {
		return errors.Wrap(err, "saving config")
	}

	path := fs.Arg(0)
	if path == "" {
		path = filepath.Join(config.ConfigDir(), config.FileName)
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}
