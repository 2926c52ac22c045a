package diarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/speakersplit/speaker-split/internal/types"
)

// AssemblyAI implements Provider against the AssemblyAI v2 REST API.
type AssemblyAI struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAssemblyAI creates a provider client. baseURL is normally
// https://api.assemblyai.com/v2; tests point it at a local server.
func NewAssemblyAI(baseURL, apiKey string) *AssemblyAI {
	return &AssemblyAI{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type submitRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
}

// transcriptResponse covers both the submit reply and the status/result
// polls. Utterance start/end are milliseconds, matching types.SpeakerSegment.
type transcriptResponse struct {
	ID         string                 `json:"id"`
	Status     string                 `json:"status"`
	Error      string                 `json:"error"`
	Utterances []types.SpeakerSegment `json:"utterances"`
}

// Upload streams the audio file to the provider's upload endpoint.
func (a *AssemblyAI) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &UploadError{Message: "cannot read audio for upload", Err: err}
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/upload", f)
	if err != nil {
		return "", &UploadError{Message: "cannot build upload request", Err: err}
	}
	req.Header.Set("authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &UploadError{Message: "audio upload failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", &UploadError{Message: "audio upload rejected", Err: httpStatusError(resp)}
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", &ProviderError{Message: "malformed upload response", Err: err}
	}
	if ur.UploadURL == "" {
		return "", &ProviderError{Message: "upload response missing upload_url"}
	}
	return ur.UploadURL, nil
}

// Submit creates a transcription job with speaker labels enabled.
func (a *AssemblyAI) Submit(ctx context.Context, audioURL string) (string, error) {
	payload, err := json.Marshal(submitRequest{AudioURL: audioURL, SpeakerLabels: true})
	if err != nil {
		return "", &ProviderError{Message: "cannot encode transcription request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", &TranscriptionError{Message: "cannot build transcription request", Err: err}
	}
	req.Header.Set("authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", &TranscriptionError{Message: "could not start transcription job", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", &TranscriptionError{Message: "transcription job rejected", Err: httpStatusError(resp)}
	}

	var tr transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", &ProviderError{Message: "malformed transcription response", Err: err}
	}
	if tr.ID == "" {
		return "", &ProviderError{Message: "transcription response missing job id"}
	}
	return tr.ID, nil
}

// Poll performs one status check. A remote "error" status comes back as
// both the status and a TranscriptionError carrying the provider's reason.
func (a *AssemblyAI) Poll(ctx context.Context, jobID string) (string, error) {
	tr, err := a.getTranscript(ctx, jobID)
	if err != nil {
		return "", err
	}

	if tr.Status == StatusError {
		msg := "transcription job failed"
		if tr.Error != "" {
			msg = "transcription job failed: " + tr.Error
		}
		return StatusError, &TranscriptionError{Message: msg}
	}
	return tr.Status, nil
}

// Fetch returns the utterances of a completed job.
func (a *AssemblyAI) Fetch(ctx context.Context, jobID string) ([]types.SpeakerSegment, error) {
	tr, err := a.getTranscript(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if tr.Status != StatusCompleted {
		return nil, &ProviderError{Message: fmt.Sprintf("transcript fetched before completion, status %q", tr.Status)}
	}
	return tr.Utterances, nil
}

// getTranscript performs GET /transcript/{id} and decodes the reply.
func (a *AssemblyAI) getTranscript(ctx context.Context, jobID string) (*transcriptResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/transcript/"+jobID, nil)
	if err != nil {
		return nil, &TranscriptionError{Message: "cannot build status request", Err: err}
	}
	req.Header.Set("authorization", a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &TranscriptionError{Message: "transcription status check failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, &TranscriptionError{Message: "transcription status check rejected", Err: httpStatusError(resp)}
	}

	var tr transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &ProviderError{Message: "malformed transcript response", Err: err}
	}
	return &tr, nil
}

// httpStatusError summarizes a non-2xx response with at most 4KB of body.
func httpStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
