package diarize

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/speakersplit/speaker-split/internal/types"
)

// Job status values reported by the provider.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Provider is the remote diarization service, one method per remote
// interaction so tests can substitute canned responses.
type Provider interface {
	// Upload pushes the audio bytes and returns the provider-side URL.
	Upload(ctx context.Context, path string) (string, error)
	// Submit creates a transcription job with speaker labels enabled and
	// returns its id.
	Submit(ctx context.Context, audioURL string) (string, error)
	// Poll performs one status check.
	Poll(ctx context.Context, jobID string) (string, error)
	// Fetch returns the finished job's speaker segments.
	Fetch(ctx context.Context, jobID string) ([]types.SpeakerSegment, error)
}

// Client drives the upload/submit/poll/fetch sequence against a Provider
// with a bounded polling loop.
type Client struct {
	provider     Provider
	pollInterval time.Duration
	maxAttempts  int
	sleep        func(d time.Duration)
}

// NewClient creates a diarization client polling every pollInterval, at
// most maxAttempts times.
func NewClient(provider Provider, pollInterval time.Duration, maxAttempts int) *Client {
	return &Client{
		provider:     provider,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		sleep:        time.Sleep,
	}
}

// Transcribe uploads the audio file, submits a diarization job, waits for
// it to finish and returns the speaker segments in provider order. The
// returned slice is never empty on success.
func (c *Client) Transcribe(ctx context.Context, audioPath string) ([]types.SpeakerSegment, error) {
	audioURL, err := c.provider.Upload(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Audio uploaded for diarization")

	jobID, err := c.provider.Submit(ctx, audioURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Transcription job %s submitted", jobID)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		status, err := c.provider.Poll(ctx, jobID)
		if err != nil {
			return nil, err
		}

		switch status {
		case StatusCompleted:
			segments, err := c.provider.Fetch(ctx, jobID)
			if err != nil {
				return nil, err
			}
			if len(segments) == 0 {
				return nil, &ProviderError{Message: "provider returned no speaker segments"}
			}
			log.Printf("Transcription job %s completed with %d segments", jobID, len(segments))
			return segments, nil

		case StatusError:
			// Providers normally surface the failure through Poll's error
			// return; this covers ones that only flip the status.
			return nil, &TranscriptionError{Message: "transcription job failed"}

		case StatusQueued, StatusProcessing:
			log.Printf("Transcription job %s: %s (poll %d/%d)", jobID, status, attempt, c.maxAttempts)
			if attempt < c.maxAttempts {
				c.sleep(c.pollInterval)
			}

		default:
			return nil, &ProviderError{Message: fmt.Sprintf("unexpected job status %q", status)}
		}
	}

	return nil, &TranscriptionError{
		Message: fmt.Sprintf("transcription did not complete after %d status checks", c.maxAttempts),
		Timeout: true,
	}
}
