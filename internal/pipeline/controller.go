// Package pipeline drives one video through audio extraction, upload and
// transcription.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/HugeFrog24/gpt-video-studio/internal/domain"
	"github.com/HugeFrog24/gpt-video-studio/internal/media"
)

type Status int

const (
	AwaitingInput Status = iota
	ExtractingAudio
	Uploading
	Transcribing
	Completed
)

func (s Status) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting-input"
	case ExtractingAudio:
		return "extracting-audio"
	case Uploading:
		return "uploading"
	case Transcribing:
		return "transcribing"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	// ErrNoVideo is returned by Submit when no video has been selected.
	ErrNoVideo = errors.New("no video selected")
	// ErrBusy is returned when the session is not in a state that accepts the call.
	ErrBusy = errors.New("pipeline is busy")
)

// StageError reports the stage a submission failed in.
type StageError struct {
	Stage Status
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type Result struct {
	Video         domain.Video
	Transcription string
}

// Controller is a single session. Submissions are accepted only while the
// session awaits input; anything else is rejected with ErrBusy.
type Controller struct {
	extractor   AudioExtractor
	uploader    Uploader
	transcriber TranscriptionRequester

	onStatus   func(Status)
	onProgress media.ProgressFunc
	log        zerolog.Logger

	mu     sync.Mutex
	status Status
	video  *media.VideoFile
}

type Option func(*Controller)

// WithStatusHook registers a callback invoked after every status change.
func WithStatusHook(fn func(Status)) Option {
	return func(c *Controller) { c.onStatus = fn }
}

// WithProgress forwards extraction progress to fn.
func WithProgress(fn media.ProgressFunc) Option {
	return func(c *Controller) { c.onProgress = fn }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

func NewController(extractor AudioExtractor, uploader Uploader, transcriber TranscriptionRequester, opts ...Option) *Controller {
	c := &Controller{
		extractor:   extractor,
		uploader:    uploader,
		transcriber: transcriber,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Select makes video the candidate for the next submission. Selecting after
// a completed run starts a new attempt.
func (c *Controller) Select(video media.VideoFile) error {
	c.mu.Lock()
	var changed bool
	switch c.status {
	case AwaitingInput:
	case Completed:
		c.status = AwaitingInput
		changed = true
	default:
		c.mu.Unlock()
		return ErrBusy
	}
	c.video = &video
	c.mu.Unlock()

	if changed {
		c.notify(AwaitingInput)
	}
	return nil
}

// Submit runs extraction, upload and transcription of the selected video.
// Any stage failure returns the session to awaiting-input and is reported
// as a *StageError.
func (c *Controller) Submit(ctx context.Context, prompt string) (Result, error) {
	c.mu.Lock()
	if c.status != AwaitingInput {
		c.mu.Unlock()
		return Result{}, ErrBusy
	}
	if c.video == nil {
		c.mu.Unlock()
		return Result{}, ErrNoVideo
	}
	video := *c.video
	c.status = ExtractingAudio
	c.mu.Unlock()
	c.notify(ExtractingAudio)

	// A panicking collaborator must not leave the session stuck in a stage.
	defer func() {
		if r := recover(); r != nil {
			c.setStatus(AwaitingInput)
			panic(r)
		}
	}()

	log := c.log.With().Str("video", video.Name).Logger()
	log.Info().Msg("converting video to audio")
	audio, err := c.extractor.Extract(ctx, video, c.onProgress)
	if err != nil {
		return Result{}, c.fail(log, ExtractingAudio, err)
	}

	c.setStatus(Uploading)
	uploaded, err := c.uploader.UploadAudio(ctx, audio)
	if err != nil {
		return Result{}, c.fail(log, Uploading, err)
	}
	log = log.With().Str("video_id", uploaded.ID).Logger()

	c.setStatus(Transcribing)
	log.Info().Msg("generating transcription")
	text, err := c.transcriber.RequestTranscription(ctx, uploaded.ID, prompt)
	if err != nil {
		return Result{}, c.fail(log, Transcribing, err)
	}

	uploaded.Transcription = &text
	c.setStatus(Completed)
	log.Info().Msg("upload completed")
	return Result{Video: uploaded, Transcription: text}, nil
}

func (c *Controller) fail(log zerolog.Logger, stage Status, err error) error {
	log.Error().Err(err).Stringer("stage", stage).Msg("pipeline stage failed")
	c.setStatus(AwaitingInput)
	return &StageError{Stage: stage, Err: err}
}

func (c *Controller) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	c.notify(s)
}

func (c *Controller) notify(s Status) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
}
