package handlers

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/speakersplit/speaker-split/internal/archive"
	"github.com/speakersplit/speaker-split/internal/diarize"
	"github.com/speakersplit/speaker-split/internal/download"
	"github.com/speakersplit/speaker-split/internal/extract"
	"github.com/speakersplit/speaker-split/internal/pipeline"
)

// Pipeline runs one video request end to end and removes its workspace.
type Pipeline interface {
	Run(ctx context.Context, rawURL string) (*pipeline.Job, error)
	Cleanup(job *pipeline.Job)
}

// ProcessVideoHandler handles speaker separation requests
type ProcessVideoHandler struct {
	pipeline Pipeline
}

// NewProcessVideoHandler creates a new process-video handler
func NewProcessVideoHandler(p Pipeline) *ProcessVideoHandler {
	return &ProcessVideoHandler{
		pipeline: p,
	}
}

// ProcessVideoRequest represents the request body
type ProcessVideoRequest struct {
	YoutubeURL string `json:"youtube_url"`
}

// Handle downloads the video's audio, diarizes it and responds with a zip
// holding one audio file per detected speaker.
func (h *ProcessVideoHandler) Handle(c *fiber.Ctx) error {
	var req ProcessVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if req.YoutubeURL == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "youtube_url is required",
			"code":  "ERR_NO_URL",
		})
	}

	// The run gets a fresh context: a dropped client connection must not
	// cancel the remote transcription or skip local cleanup.
	job, err := h.pipeline.Run(context.Background(), req.YoutubeURL)
	if err != nil {
		status, code, message := classifyError(err)
		log.Printf("Processing failed (%s): %v", code, err)
		return c.Status(status).JSON(fiber.Map{
			"error": message,
			"code":  code,
		})
	}
	defer h.pipeline.Cleanup(job)

	// The archive is read into memory before the deferred cleanup removes
	// the workspace, so the response body never depends on the file.
	data, err := os.ReadFile(job.ArchivePath)
	if err != nil {
		log.Printf("Cannot read archive for job %s: %v", job.ID, err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Could not read result archive",
			"code":  "ERR_ARCHIVE_READ",
		})
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+pipeline.ArchiveName+`"`)
	return c.Send(data)
}

// classifyError maps a pipeline error to the HTTP status, stable error
// code and client-safe message of the failing stage. Wrapped detail such
// as tool output or local paths stays in the server log.
func classifyError(err error) (int, string, string) {
	var downloadErr *download.Error
	var uploadErr *diarize.UploadError
	var transcriptionErr *diarize.TranscriptionError
	var providerErr *diarize.ProviderError
	var extractErr *extract.Error
	var archiveErr *archive.Error

	switch {
	case errors.As(err, &downloadErr):
		return 422, "ERR_DOWNLOAD", downloadErr.Message
	case errors.As(err, &uploadErr):
		return 502, "ERR_UPLOAD", uploadErr.Message
	case errors.As(err, &transcriptionErr):
		if transcriptionErr.Timeout {
			return 504, "ERR_TRANSCRIPTION_TIMEOUT", transcriptionErr.Message
		}
		return 502, "ERR_TRANSCRIPTION", transcriptionErr.Message
	case errors.As(err, &providerErr):
		return 502, "ERR_PROVIDER", providerErr.Message
	case errors.As(err, &extractErr):
		return 500, "ERR_EXTRACTION", extractErr.Message
	case errors.As(err, &archiveErr):
		return 500, "ERR_ARCHIVE", archiveErr.Message
	default:
		return 500, "ERR_INTERNAL", "Video processing failed"
	}
}
