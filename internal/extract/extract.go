package extract

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/speakersplit/speaker-split/internal/types"
)

// Error signals a local slicing failure: unreadable source, unsupported
// format, offsets beyond the audio, or a failed output write.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Extractor cuts per-speaker clips out of a source audio file.
type Extractor struct {
	// GapMs is the silence inserted between a speaker's consecutive cuts.
	GapMs int64
	// WriteSegmentFiles additionally writes every individual cut as its
	// own file next to the concatenated clips.
	WriteSegmentFiles bool
}

// New creates an extractor.
func New(gapMs int64, writeSegmentFiles bool) *Extractor {
	return &Extractor{GapMs: gapMs, WriteSegmentFiles: writeSegmentFiles}
}

// ExtractSpeakers groups the segments by speaker, cuts each speaker's
// intervals out of the source audio in time order and writes one
// concatenated clip per speaker into outDir, named
// speaker_<label>.<ext> with the source's extension. It returns the
// label-to-path mapping plus the individual cut files when enabled.
//
// Zero-duration segments are skipped; a speaker with only zero-duration
// segments gets no output. Overlap between different speakers is kept
// as-is. Labels that sanitize to the same file name are numbered apart.
func (e *Extractor) ExtractSpeakers(srcPath string, segments []types.SpeakerSegment, outDir string) (map[string]string, []string, error) {
	src, err := decodeAudio(srcPath)
	if err != nil {
		return nil, nil, err
	}

	groups := groupBySpeaker(segments)
	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	ext := strings.ToLower(filepath.Ext(srcPath))
	gap := src.gapSamples(e.GapMs)

	outputs := make(map[string]string, len(labels))
	used := make(map[string]bool, len(labels))
	var segmentFiles []string

	for _, label := range labels {
		group := groups[label]

		cuts := make([][]int, 0, len(group))
		for _, seg := range group {
			cut, err := src.slice(seg.Start, seg.End)
			if err != nil {
				return nil, nil, err
			}
			cuts = append(cuts, cut)
		}

		clip := concatWithGap(cuts, gap)
		// Distinct labels may sanitize to the same name; number the
		// later ones so no speaker's clip is overwritten.
		stem := "speaker_" + sanitizeLabel(label)
		name := stem + ext
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		used[name] = true
		outPath := filepath.Join(outDir, name)
		if err := writeClip(outPath, clip, src); err != nil {
			return nil, nil, err
		}
		outputs[label] = outPath
		log.Printf("Speaker %s: %d segments, %d frames -> %s", label, len(group), len(clip)/src.channels, name)

		if e.WriteSegmentFiles {
			clipStem := strings.TrimSuffix(name, ext)
			for i, cut := range cuts {
				segName := fmt.Sprintf("%s_segment_%d%s", clipStem, i+1, ext)
				segPath := filepath.Join(outDir, segName)
				if err := writeClip(segPath, cut, src); err != nil {
					return nil, nil, err
				}
				segmentFiles = append(segmentFiles, segPath)
			}
		}
	}

	return outputs, segmentFiles, nil
}

// groupBySpeaker drops zero-duration segments and returns the rest
// grouped by label, time-ordered within each group. The stable sort keeps
// provider order for equal start offsets.
func groupBySpeaker(segments []types.SpeakerSegment) map[string][]types.SpeakerSegment {
	groups := make(map[string][]types.SpeakerSegment)
	for _, seg := range segments {
		if seg.Duration() == 0 {
			continue
		}
		groups[seg.Speaker] = append(groups[seg.Speaker], seg)
	}
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Start < group[j].Start
		})
	}
	return groups
}

// concatWithGap splices the cuts together with gap zero-samples between
// consecutive pieces.
func concatWithGap(cuts [][]int, gap int) []int {
	total := 0
	for _, cut := range cuts {
		total += len(cut)
	}
	if len(cuts) > 1 {
		total += gap * (len(cuts) - 1)
	}

	out := make([]int, 0, total)
	for i, cut := range cuts {
		if i > 0 && gap > 0 {
			out = append(out, make([]int, gap)...)
		}
		out = append(out, cut...)
	}
	return out
}

// sanitizeLabel keeps provider speaker labels filesystem-safe.
func sanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := b.String()
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "unknown"
	}
	return s
}
