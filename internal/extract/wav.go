package extract

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// decodeWAV loads a RIFF/WAVE file into interleaved samples.
func decodeWAV(path string) (*pcmAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Message: "cannot open source audio", Err: err}
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, &Error{Message: "source is not a valid wav file"}
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, &Error{Message: "cannot decode wav audio", Err: err}
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, &Error{Message: "wav file holds no audio"}
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	return &pcmAudio{
		samples:    buf.Data,
		sampleRate: buf.Format.SampleRate,
		channels:   buf.Format.NumChannels,
		bitDepth:   bitDepth,
	}, nil
}

// writeWAV encodes interleaved samples with the source's rate, channel
// count and bit depth.
func writeWAV(path string, samples []int, src *pcmAudio) error {
	out, err := os.Create(path)
	if err != nil {
		return &Error{Message: "cannot create output file", Err: err}
	}
	defer out.Close()

	enc := wav.NewEncoder(out, src.sampleRate, src.bitDepth, src.channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: src.channels,
			SampleRate:  src.sampleRate,
		},
		Data:           samples,
		SourceBitDepth: src.bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return &Error{Message: "cannot write wav output", Err: err}
	}
	if err := enc.Close(); err != nil {
		return &Error{Message: "cannot finalize wav output", Err: err}
	}
	return nil
}
