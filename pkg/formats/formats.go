// Package formats decodes FRME user-interface frame files and the HMDL mesh
// block they may embed.
//
// A frame is a flat list of widgets keyed by name. Each widget carries a
// type-specific payload (camera parameters, quad geometry, a model reference
// or opaque bytes) plus a translation and orientation. Models referenced by
// MODL widgets are decoded into flat triangle batches ready for upload by a
// renderer.
package formats

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/frmekit/pkg/bufstream"
)

// Decoder errors shared with the byte stream.
var (
	ErrInvalidData = bufstream.ErrInvalidData
	ErrEndOfStream = bufstream.ErrEndOfStream
)

// Option configures a decode.
type Option func(*decodeOptions)

type decodeOptions struct {
	log        *zap.Logger
	strict     bool
	maxWidgets int
}

func newDecodeOptions(opts []Option) *decodeOptions {
	o := &decodeOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger routes decode warnings to log.
func WithLogger(log *zap.Logger) Option {
	return func(o *decodeOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithStrictPrimitives makes an unsupported display-list primitive fail the
// decode with ErrUnsupportedFeature instead of producing a placeholder.
func WithStrictPrimitives(strict bool) Option {
	return func(o *decodeOptions) {
		o.strict = strict
	}
}

// WithMaxWidgets rejects frames declaring more than n widgets. Zero disables
// the limit.
func WithMaxWidgets(n int) Option {
	return func(o *decodeOptions) {
		o.maxWidgets = n
	}
}

// warnings collects degradation notices for a single decode.
type warnings struct {
	log  *zap.Logger
	list []string
}

func (w *warnings) add(msg string, fields ...zap.Field) {
	w.log.Warn(msg, fields...)

	enc := zapcore.NewMapObjectEncoder()
	var b strings.Builder
	b.WriteString(msg)
	for _, f := range fields {
		f.AddTo(enc)
		fmt.Fprintf(&b, " %s=%v", f.Key, enc.Fields[f.Key])
	}
	w.list = append(w.list, b.String())
}
