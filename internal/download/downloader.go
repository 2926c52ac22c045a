package download

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// Error signals that a source URL could not be turned into a local audio
// file. Message is safe to show to callers; Err carries the full detail
// for server logs.
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

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// execRunner executes commands via os/exec, returning combined output.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// Accepted source hosts, ports included in the match on purpose.
var youtubeHost = regexp.MustCompile(`^(www\.)?youtube\.com$`)

// Downloader fetches a video URL's audio track with yt-dlp.
type Downloader struct {
	ytDlpPath string
	format    string
	runner    commandRunner
	stat      func(name string) (os.FileInfo, error)
}

// New creates a downloader producing audio files in the given format
// (the yt-dlp --audio-format value, e.g. "mp3" or "wav").
func New(format string) *Downloader {
	return &Downloader{
		ytDlpPath: "yt-dlp",
		format:    format,
		runner:    execRunner{},
		stat:      os.Stat,
	}
}

// FetchAudio downloads the URL's audio track into destDir and returns the
// path of the extracted file. No retries; every failure is surfaced
// immediately as a *download.Error.
func (d *Downloader) FetchAudio(ctx context.Context, rawURL, destDir string) (string, error) {
	if err := validateSourceURL(rawURL); err != nil {
		return "", err
	}

	log.Printf("Using yt-dlp to download: %s", rawURL)

	outputTemplate := filepath.Join(destDir, "audio.%(ext)s")
	args := buildYtDlpArgs(rawURL, outputTemplate, d.format)

	output, err := d.runner.Run(ctx, d.ytDlpPath, args...)
	if err != nil {
		return "", &Error{
			Message: "audio download failed",
			Err:     fmt.Errorf("yt-dlp: %v: %s", err, tail(output, 512)),
		}
	}

	audioPath := filepath.Join(destDir, "audio."+d.format)
	info, err := d.stat(audioPath)
	if err != nil {
		return "", &Error{Message: "downloaded audio file is missing", Err: err}
	}
	if info.Size() == 0 {
		return "", &Error{Message: "downloaded audio file is empty"}
	}

	log.Printf("Audio downloaded successfully (%d bytes)", info.Size())
	return audioPath, nil
}

// validateSourceURL enforces the accepted host policy before anything is
// executed. Short youtu.be links are rejected, same as full non-YouTube
// hosts.
func validateSourceURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return &Error{Message: "source url is empty"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return &Error{Message: "source url is not a valid URL", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &Error{Message: fmt.Sprintf("unsupported url scheme %q", u.Scheme)}
	}
	if !youtubeHost.MatchString(u.Host) {
		return &Error{Message: fmt.Sprintf("unsupported host %q, expected youtube.com", u.Host)}
	}
	return nil
}

// buildYtDlpArgs assembles the yt-dlp invocation: extract audio, convert
// to the requested format, write to the output template.
func buildYtDlpArgs(rawURL, outputTemplate, format string) []string {
	return []string{
		"-x",
		"--audio-format", format,
		"-o", outputTemplate,
		rawURL,
	}
}

// tail returns at most the last n bytes of trimmed subprocess output, so
// wrapped errors stay readable.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
