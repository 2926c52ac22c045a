package extract

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// decodeMP3 loads an MP3 file into interleaved samples. go-mp3 always
// decodes to signed 16-bit stereo, 4 bytes per frame, at the source rate.
func decodeMP3(path string) (*pcmAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Message: "cannot open source audio", Err: err}
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, &Error{Message: "cannot decode mp3 audio", Err: err}
	}

	length := dec.Length()
	if length <= 0 {
		return nil, &Error{Message: "mp3 file holds no audio"}
	}

	pcm := make([]byte, length)
	n, err := io.ReadFull(dec, pcm)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, &Error{Message: "cannot read mp3 audio", Err: err}
	}
	pcm = pcm[:n]

	sampleCount := n / 2
	samples := make([]int, sampleCount)
	for i := 0; i < sampleCount; i++ {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}

	return &pcmAudio{
		samples:    samples,
		sampleRate: dec.SampleRate(),
		channels:   2,
		bitDepth:   16,
	}, nil
}
