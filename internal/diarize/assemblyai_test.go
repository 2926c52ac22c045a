package diarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeAudioFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.mp3")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestUploadSendsAudioBytes(t *testing.T) {
	audioPath := writeAudioFixture(t, "fake-audio-bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "test-key" {
			t.Errorf("authorization header = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "fake-audio-bytes" {
			t.Errorf("upload body = %q", string(body))
		}
		fmt.Fprint(w, `{"upload_url": "https://cdn.assemblyai.com/upload/1"}`)
	}))
	defer srv.Close()

	a := NewAssemblyAI(srv.URL, "test-key")
	got, err := a.Upload(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if got != "https://cdn.assemblyai.com/upload/1" {
		t.Fatalf("upload url = %q", got)
	}
}

func TestUploadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": "invalid api key"}`)
	}))
	defer srv.Close()

	a := NewAssemblyAI(srv.URL, "bad-key")
	_, err := a.Upload(context.Background(), writeAudioFixture(t, "x"))

	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("error type = %T, want *UploadError", err)
	}
	if !strings.Contains(err.Error(), "http 401") {
		t.Fatalf("error should carry the status code, got %q", err.Error())
	}
}

func TestUploadMalformedResponse(t *testing.T) {
	for name, body := range map[string]string{
		"not json":           "plain text",
		"missing upload_url": "{}",
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		}))

		a := NewAssemblyAI(srv.URL, "k")
		_, err := a.Upload(context.Background(), writeAudioFixture(t, "x"))
		srv.Close()

		var pErr *ProviderError
		if !errors.As(err, &pErr) {
			t.Fatalf("%s: error type = %T, want *ProviderError", name, err)
		}
	}
}

func TestUploadUnreadableFile(t *testing.T) {
	a := NewAssemblyAI("http://unused.invalid", "k")
	_, err := a.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))

	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("error type = %T, want *UploadError", err)
	}
}

func TestSubmitRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transcript" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			AudioURL      string `json:"audio_url"`
			SpeakerLabels bool   `json:"speaker_labels"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode submit body: %v", err)
		}
		if req.AudioURL != "https://cdn.example/a1" {
			t.Errorf("audio_url = %q", req.AudioURL)
		}
		if !req.SpeakerLabels {
			t.Error("speaker_labels must be enabled")
		}
		fmt.Fprint(w, `{"id": "t-42", "status": "queued"}`)
	}))
	defer srv.Close()

	a := NewAssemblyAI(srv.URL, "k")
	id, err := a.Submit(context.Background(), "https://cdn.example/a1")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if id != "t-42" {
		t.Fatalf("job id = %q, want t-42", id)
	}
}

func TestSubmitMissingJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "queued"}`)
	}))
	defer srv.Close()

	a := NewAssemblyAI(srv.URL, "k")
	_, err := a.Submit(context.Background(), "https://cdn.example/a1")

	var pErr *ProviderError
	if !errors.As(err, &pErr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
}

func TestPollStatuses(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/transcript/t-1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	a := NewAssemblyAI(srv.URL, "k")

	for _, want := range []string{StatusQueued, StatusProcessing, StatusCompleted} {
		body = fmt.Sprintf(`{"status": %q}`, want)
		got, err := a.Poll(context.Background(), "t-1")
		if err != nil {
			t.Fatalf("Poll(%s) error = %v", want, err)
		}
		if got != want {
			t.Fatalf("status = %q, want %q", got, want)
		}
	}

	body = `{"status": "error", "error": "audio failed to transcode"}`
	got, err := a.Poll(context.Background(), "t-1")
	if got != StatusError {
		t.Fatalf("status = %q, want error", got)
	}
	var trErr *TranscriptionError
	if !errors.As(err, &trErr) {
		t.Fatalf("error type = %T, want *TranscriptionError", err)
	}
	if !strings.Contains(trErr.Message, "audio failed to transcode") {
		t.Fatalf("provider reason lost, message = %q", trErr.Message)
	}
}

func TestPollServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewAssemblyAI(srv.URL, "k")
	_, err := a.Poll(context.Background(), "t-1")

	var trErr *TranscriptionError
	if !errors.As(err, &trErr) {
		t.Fatalf("error type = %T, want *TranscriptionError", err)
	}
}

func TestFetchReturnsUtterances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"status": "completed",
			"utterances": [
				{"speaker": "A", "start": 1000, "end": 2500, "text": "hello", "confidence": 0.97},
				{"speaker": "B", "start": 2500, "end": 4000, "text": "hi there", "confidence": 0.94}
			]
		}`)
	}))
	defer srv.Close()

	a := NewAssemblyAI(srv.URL, "k")
	segments, err := a.Fetch(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(segments))
	}
	if segments[0].Speaker != "A" || segments[0].Start != 1000 || segments[0].End != 2500 {
		t.Fatalf("segment 0 = %+v", segments[0])
	}
	if segments[1].Speaker != "B" || segments[1].Start != 2500 || segments[1].End != 4000 {
		t.Fatalf("segment 1 = %+v", segments[1])
	}
}

func TestFetchBeforeCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "processing"}`)
	}))
	defer srv.Close()

	a := NewAssemblyAI(srv.URL, "k")
	_, err := a.Fetch(context.Background(), "t-1")

	var pErr *ProviderError
	if !errors.As(err, &pErr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
}

// End-to-end against a canned server: upload, submit, poll until the third
// check, fetch.
func TestClientAgainstCannedServer(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"upload_url": %q}`, srv.URL+"/cdn/a1")
	})
	mux.HandleFunc("POST /transcript", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "job-9", "status": "queued"}`)
	})
	mux.HandleFunc("GET /transcript/job-9", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			fmt.Fprint(w, `{"status": "processing"}`)
			return
		}
		fmt.Fprint(w, `{
			"status": "completed",
			"utterances": [
				{"speaker": "A", "start": 0, "end": 15000},
				{"speaker": "B", "start": 15000, "end": 30000},
				{"speaker": "A", "start": 30000, "end": 45000}
			]
		}`)
	})

	c := NewClient(NewAssemblyAI(srv.URL, "k"), time.Second, 10)
	var slept int
	c.sleep = func(time.Duration) { slept++ }

	segments, err := c.Transcribe(context.Background(), writeAudioFixture(t, "pcm"))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(segments))
	}
	// Two "processing" polls plus the completed one, then one result fetch.
	if got := polls.Load(); got != 4 {
		t.Fatalf("transcript GETs = %d, want 4", got)
	}
	if slept != 2 {
		t.Fatalf("sleeps = %d, want 2", slept)
	}
}
