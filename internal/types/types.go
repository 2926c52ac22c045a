package types

// Job state constants
const (
	StateReceived     = "received"
	StateDownloading  = "downloading"
	StateTranscribing = "transcribing"
	StateExtracting   = "extracting"
	StateArchiving    = "archiving"
	StateResponding   = "responding"
	StateCleanedUp    = "cleaned_up"
	StateFailed       = "failed"
)

// SpeakerSegment is one contiguous span of one speaker's speech on the
// source audio timeline. Start and End are milliseconds from the beginning
// of the file, matching the units the diarization provider reports.
type SpeakerSegment struct {
	Speaker string `json:"speaker"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
}

// Duration returns the segment length in milliseconds.
func (s SpeakerSegment) Duration() int64 {
	return s.End - s.Start
}
