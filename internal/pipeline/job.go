package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/speakersplit/speaker-split/internal/types"
)

// Job is one request moving through the pipeline. It lives only for the
// duration of the request; nothing about it is persisted.
type Job struct {
	ID          string
	SourceURL   string
	State       string
	StartedAt   time.Time
	ArchivePath string

	workDir string
}

// transition moves the job to the next state after checking the edge is
// allowed, logging one line per move.
func (j *Job) transition(to string) error {
	if !isValidTransition(j.State, to) {
		return fmt.Errorf("invalid transition: %s -> %s", j.State, to)
	}
	log.Printf("Job %s: %s -> %s", j.ID, j.State, to)
	j.State = to
	return nil
}

// isValidTransition enforces the allowed job state machine edges. Every
// non-terminal state may fail; cleaned_up and failed are terminal.
func isValidTransition(from, to string) bool {
	switch from {
	case types.StateReceived:
		return to == types.StateDownloading || to == types.StateFailed
	case types.StateDownloading:
		return to == types.StateTranscribing || to == types.StateFailed
	case types.StateTranscribing:
		return to == types.StateExtracting || to == types.StateFailed
	case types.StateExtracting:
		return to == types.StateArchiving || to == types.StateFailed
	case types.StateArchiving:
		return to == types.StateResponding || to == types.StateFailed
	case types.StateResponding:
		return to == types.StateCleanedUp || to == types.StateFailed
	default:
		return false
	}
}
