package extract

import (
	"bytes"
	"os"

	"github.com/braheezy/shine-mp3/pkg/mp3"
)

// writeMP3 encodes interleaved samples with shine. Shine consumes blocks
// of 1152 samples per channel, so the tail is zero-padded to a full block
// before the single encode pass.
func writeMP3(path string, samples []int, src *pcmAudio) error {
	data := make([]int16, len(samples))
	for i, s := range samples {
		data[i] = int16(s)
	}

	blockSize := 1152 * src.channels
	if rem := len(data) % blockSize; rem != 0 {
		data = append(data, make([]int16, blockSize-rem)...)
	}

	var buf bytes.Buffer
	enc := mp3.NewEncoder(src.sampleRate, src.channels)
	enc.Write(&buf, data)
	if buf.Len() == 0 {
		return &Error{Message: "mp3 encoder produced no output"}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &Error{Message: "cannot write mp3 output", Err: err}
	}
	return nil
}
