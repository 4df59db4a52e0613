// Package audio loads short clips once and plays them many times.
//
// A Loader fetches the encoded bytes, decodes them into an immutable buffer
// at the device rate and returns a Sound. Every Sound owns its own Context;
// Play builds a new source and gain stage per call, so overlapping plays of
// one clip mix instead of interfering.
//
// The loader never logs: fetch failures surface as KindLoadFailure and
// malformed payloads as KindDecodeFailure, and the caller decides how to
// present them.
package audio

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wippyai/gamehost/fetch"
)

var tracer = otel.Tracer("github.com/wippyai/gamehost/audio")

// Loader creates Sounds for one output device.
type Loader struct {
	device  Device
	fetcher fetch.Fetcher
}

// NewLoader creates a loader. A nil fetcher uses fetch.Default.
func NewLoader(device Device, fetcher fetch.Fetcher) *Loader {
	if fetcher == nil {
		fetcher = fetch.Default
	}
	return &Loader{device: device, fetcher: fetcher}
}

// Device returns the output the loader's contexts connect to.
func (l *Loader) Device() Device {
	return l.device
}

// Load fetches and decodes the clip at path. Decoding starts only after the
// whole payload has arrived. Nothing is retried.
func (l *Loader) Load(ctx context.Context, path string) (*Sound, error) {
	ctx, span := tracer.Start(ctx, "audio.Load", trace.WithAttributes(attribute.String("audio.path", path)))
	defer span.End()

	actx := newContext(l.device)

	data, err := l.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("audio.bytes", len(data)))

	if err := ctx.Err(); err != nil {
		return nil, fail(span, err)
	}

	buf, err := decode(data, actx.SampleRate())
	if err != nil {
		return nil, fail(span, err)
	}

	if err := actx.open(); err != nil {
		return nil, fail(span, err)
	}

	span.SetAttributes(attribute.Int("audio.samples", buf.Len()))
	return &Sound{
		ctx:    actx,
		buffer: buf,
		path:   path,
		volume: 1,
	}, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
