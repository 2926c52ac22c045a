// Package pipeline runs one video request end to end: download the audio,
// diarize it remotely, cut one clip per speaker and pack the clips into a
// zip, with the per-request workspace removed no matter how the run ends.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/speakersplit/speaker-split/internal/types"
)

// ArchiveName is the file name of the result archive inside the workspace
// and of the attachment served to the caller.
const ArchiveName = "speaker_segments.zip"

// Downloader fetches the audio track of a video URL into a directory.
type Downloader interface {
	FetchAudio(ctx context.Context, rawURL, destDir string) (string, error)
}

// Normalizer converts downloaded audio to a provider-friendly format.
type Normalizer interface {
	NormalizeToWAV(ctx context.Context, inputPath string) (string, error)
}

// Transcriber turns an audio file into speaker-labelled segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]types.SpeakerSegment, error)
}

// Extractor cuts per-speaker clips out of the audio file.
type Extractor interface {
	ExtractSpeakers(srcPath string, segments []types.SpeakerSegment, outDir string) (map[string]string, []string, error)
}

// Archiver packs the clip files into a single archive.
type Archiver interface {
	Create(archivePath string, files []string) error
}

// Pipeline wires the stages together. Each Run gets its own workspace
// directory under tempRoot; runs share no state.
type Pipeline struct {
	downloader  Downloader
	normalizer  Normalizer
	transcriber Transcriber
	extractor   Extractor
	archiver    Archiver
	tempRoot    string

	mkdirAll  func(string, os.FileMode) error
	removeAll func(string) error
	newID     func() string
}

// New creates a pipeline. normalizer may be nil to skip the conversion
// step and send the downloaded audio to the provider as-is.
func New(downloader Downloader, normalizer Normalizer, transcriber Transcriber, extractor Extractor, archiver Archiver, tempRoot string) *Pipeline {
	return &Pipeline{
		downloader:  downloader,
		normalizer:  normalizer,
		transcriber: transcriber,
		extractor:   extractor,
		archiver:    archiver,
		tempRoot:    tempRoot,
		mkdirAll:    os.MkdirAll,
		removeAll:   os.RemoveAll,
		newID:       func() string { return uuid.New().String() },
	}
}

// Run processes one URL through every stage and returns the job with its
// archive path set. On any stage failure the workspace is removed and the
// stage's error is returned unchanged, so the caller can map its type to
// an HTTP status. The caller owns the workspace on success and must call
// Cleanup once the archive has been served.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*Job, error) {
	job := &Job{
		ID:        p.newID(),
		SourceURL: rawURL,
		State:     types.StateReceived,
		StartedAt: time.Now(),
	}
	job.workDir = filepath.Join(p.tempRoot, job.ID)
	if err := p.mkdirAll(job.workDir, 0o755); err != nil {
		return nil, p.fail(job, fmt.Errorf("cannot create workspace: %w", err))
	}

	if err := job.transition(types.StateDownloading); err != nil {
		return nil, p.fail(job, err)
	}
	audioPath, err := p.downloader.FetchAudio(ctx, rawURL, job.workDir)
	if err != nil {
		return nil, p.fail(job, err)
	}
	if p.normalizer != nil {
		audioPath, err = p.normalizer.NormalizeToWAV(ctx, audioPath)
		if err != nil {
			return nil, p.fail(job, err)
		}
	}

	if err := job.transition(types.StateTranscribing); err != nil {
		return nil, p.fail(job, err)
	}
	segments, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, p.fail(job, err)
	}

	if err := job.transition(types.StateExtracting); err != nil {
		return nil, p.fail(job, err)
	}
	segmentsDir := filepath.Join(job.workDir, "segments")
	if err := p.mkdirAll(segmentsDir, 0o755); err != nil {
		return nil, p.fail(job, fmt.Errorf("cannot create segments directory: %w", err))
	}
	outputs, cutFiles, err := p.extractor.ExtractSpeakers(audioPath, segments, segmentsDir)
	if err != nil {
		return nil, p.fail(job, err)
	}

	if err := job.transition(types.StateArchiving); err != nil {
		return nil, p.fail(job, err)
	}
	files := make([]string, 0, len(outputs)+len(cutFiles))
	for _, path := range outputs {
		files = append(files, path)
	}
	files = append(files, cutFiles...)
	job.ArchivePath = filepath.Join(job.workDir, ArchiveName)
	if err := p.archiver.Create(job.ArchivePath, files); err != nil {
		return nil, p.fail(job, err)
	}

	if err := job.transition(types.StateResponding); err != nil {
		return nil, p.fail(job, err)
	}
	log.Printf("Job %s: archive ready (%s elapsed)", job.ID, time.Since(job.StartedAt).Round(time.Millisecond))
	return job, nil
}

// Cleanup removes the job's workspace. Safe to call exactly once after a
// successful Run; failed runs clean up on their own.
func (p *Pipeline) Cleanup(job *Job) {
	if job == nil || job.workDir == "" {
		return
	}
	if err := p.removeAll(job.workDir); err != nil {
		log.Printf("Job %s: workspace removal failed: %v", job.ID, err)
		return
	}
	if err := job.transition(types.StateCleanedUp); err != nil {
		log.Printf("Job %s: %v", job.ID, err)
	}
}

// fail moves the job to failed, removes its workspace and hands the stage
// error back unchanged.
func (p *Pipeline) fail(job *Job, err error) error {
	if transErr := job.transition(types.StateFailed); transErr != nil {
		log.Printf("Job %s: %v", job.ID, transErr)
	}
	if rmErr := p.removeAll(job.workDir); rmErr != nil {
		log.Printf("Job %s: workspace removal failed: %v", job.ID, rmErr)
	}
	return err
}
