package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Normalizer converts downloaded audio to 16kHz mono PCM WAV with ffmpeg.
// Optional step between download and upload; keeps uploads small and gives
// the extractor a fixed-rate source.
type Normalizer struct {
	ffmpegPath string
	runner     commandRunner
	stat       func(name string) (os.FileInfo, error)
}

// NewNormalizer creates a normalizer backed by the ffmpeg binary on PATH.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		ffmpegPath: "ffmpeg",
		runner:     execRunner{},
		stat:       os.Stat,
	}
}

// NormalizeToWAV converts inputPath to 16kHz mono WAV next to the input
// and returns the new path. A conversion failure is a decode failure of
// the downloaded media, so it is reported as a *download.Error.
func (n *Normalizer) NormalizeToWAV(ctx context.Context, inputPath string) (string, error) {
	outputPath := filepath.Join(filepath.Dir(inputPath), "audio_normalized.wav")

	args := buildFFmpegArgs(inputPath, outputPath)
	output, err := n.runner.Run(ctx, n.ffmpegPath, args...)
	if err != nil {
		return "", &Error{
			Message: "audio conversion failed",
			Err:     fmt.Errorf("ffmpeg: %v: %s", err, tail(output, 512)),
		}
	}

	if _, err := n.stat(outputPath); err != nil {
		return "", &Error{Message: "converted audio file is missing", Err: err}
	}

	return outputPath, nil
}

// buildFFmpegArgs assembles the conversion command: 16kHz sample rate,
// mono, 16-bit PCM, overwrite output.
func buildFFmpegArgs(inputPath, outputPath string) []string {
	return []string{
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		outputPath,
	}
}
