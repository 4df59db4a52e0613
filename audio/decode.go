package audio

import (
	"bytes"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/wippyai/gamehost/errors"
)

const resampleQuality = 4

// Container identifies an encoded audio format.
type Container string

const (
	ContainerWAV     Container = "wav"
	ContainerVorbis  Container = "vorbis"
	ContainerFLAC    Container = "flac"
	ContainerMP3     Container = "mp3"
	ContainerUnknown Container = ""
)

// Sniff identifies the container from the leading bytes of data.
func Sniff(data []byte) Container {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return ContainerWAV
	case len(data) >= 4 && string(data[:4]) == "OggS":
		return ContainerVorbis
	case len(data) >= 4 && string(data[:4]) == "fLaC":
		return ContainerFLAC
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return ContainerMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return ContainerMP3
	}
	return ContainerUnknown
}

func openStream(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	r := bytes.NewReader(data)
	switch Sniff(data) {
	case ContainerWAV:
		return wav.Decode(r)
	case ContainerVorbis:
		return vorbis.Decode(io.NopCloser(r))
	case ContainerFLAC:
		return flac.Decode(r)
	case ContainerMP3:
		return mp3.Decode(io.NopCloser(r))
	}
	return nil, beep.Format{}, errors.DecodeFailure("unrecognized audio container", nil)
}

// decode turns an encoded payload into an immutable buffer at rate.
func decode(data []byte, rate beep.SampleRate) (*beep.Buffer, error) {
	stream, format, err := openStream(data)
	if err != nil {
		if errors.IsKind(err, errors.KindDecodeFailure) {
			return nil, err
		}
		return nil, errors.DecodeFailure("read audio header", err)
	}
	defer stream.Close()

	if format.NumChannels < 1 || format.NumChannels > 2 {
		return nil, errors.New(errors.PhaseDecode, errors.KindDecodeFailure).
			Value(format.NumChannels).
			Detail("unsupported channel count %d", format.NumChannels).
			Build()
	}
	if format.SampleRate <= 0 {
		return nil, errors.DecodeFailure("invalid sample rate", nil)
	}

	precision := format.Precision
	if precision < 1 || precision > 3 {
		precision = 2
	}

	var src beep.Streamer = stream
	if format.SampleRate != rate {
		src = beep.Resample(resampleQuality, format.SampleRate, rate, stream)
	}

	buf := beep.NewBuffer(beep.Format{
		SampleRate:  rate,
		NumChannels: format.NumChannels,
		Precision:   precision,
	})
	buf.Append(src)

	if err := stream.Err(); err != nil {
		return nil, errors.DecodeFailure("decode samples", err)
	}
	if buf.Len() == 0 {
		return nil, errors.DecodeFailure("clip has no samples", nil)
	}
	return buf, nil
}
