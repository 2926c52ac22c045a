package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// pcmAudio is a fully decoded source file: interleaved samples plus the
// format needed to cut and re-encode them.
type pcmAudio struct {
	samples    []int
	sampleRate int
	channels   int
	bitDepth   int
}

func (p *pcmAudio) frameCount() int {
	return len(p.samples) / p.channels
}

// slice returns the interleaved samples of [startMs, endMs). Offsets
// outside the audio cannot be cut and are reported as errors rather
// than clamped.
func (p *pcmAudio) slice(startMs, endMs int64) ([]int, error) {
	if startMs < 0 {
		return nil, &Error{Message: fmt.Sprintf("segment start %dms is negative", startMs)}
	}
	if endMs < startMs {
		return nil, &Error{Message: fmt.Sprintf("segment end %dms precedes start %dms", endMs, startMs)}
	}

	startFrame := int(float64(startMs) * float64(p.sampleRate) / 1000.0)
	endFrame := int(float64(endMs) * float64(p.sampleRate) / 1000.0)

	total := p.frameCount()
	if startFrame > total || endFrame > total {
		return nil, &Error{
			Message: fmt.Sprintf("segment %d-%dms lies beyond the audio duration (%dms)",
				startMs, endMs, int64(total)*1000/int64(p.sampleRate)),
		}
	}

	return p.samples[startFrame*p.channels : endFrame*p.channels], nil
}

// gapSamples converts a silence length to a count of interleaved samples.
func (p *pcmAudio) gapSamples(gapMs int64) int {
	if gapMs <= 0 {
		return 0
	}
	return int(float64(gapMs)*float64(p.sampleRate)/1000.0) * p.channels
}

// decodeAudio reads the source into memory once; every speaker is cut
// from the same decoded buffer.
func decodeAudio(path string) (*pcmAudio, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(path)
	case ".mp3":
		return decodeMP3(path)
	default:
		return nil, &Error{Message: fmt.Sprintf("unsupported audio format %q", filepath.Ext(path))}
	}
}

// writeClip encodes interleaved samples in the source's format.
func writeClip(path string, samples []int, src *pcmAudio) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return writeWAV(path, samples, src)
	case ".mp3":
		return writeMP3(path, samples, src)
	default:
		return &Error{Message: fmt.Sprintf("unsupported output format %q", filepath.Ext(path))}
	}
}
