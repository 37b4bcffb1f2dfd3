// Package completion resolves a prompt template against a stored
// transcription and streams the language model's answer.
package completion

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/HugeFrog24/gpt-video-studio/internal/apperr"
	"github.com/HugeFrog24/gpt-video-studio/internal/domain"
	"github.com/HugeFrog24/gpt-video-studio/internal/prompt"
)

const DefaultTemperature = 0.5

// ErrTranscriptionMissing is returned when the video has not been transcribed.
var ErrTranscriptionMissing = apperr.Precondition("Video transcription was not generated yet.")

// FragmentReader yields text fragments until io.EOF.
type FragmentReader interface {
	Recv() (string, error)
	Close() error
}

type Provider interface {
	Stream(ctx context.Context, prompt string, temperature float64) (FragmentReader, error)
}

type VideoStore interface {
	Get(ctx context.Context, id string) (domain.Video, error)
}

type Request struct {
	Template    string
	VideoID     string
	Temperature *float64
}

type Service struct {
	videos             VideoStore
	provider           Provider
	defaultTemperature float64
	log                zerolog.Logger
}

type Option func(*Service)

func WithDefaultTemperature(t float64) Option {
	return func(s *Service) { s.defaultTemperature = t }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(videos VideoStore, provider Provider, opts ...Option) *Service {
	s := &Service{
		videos:             videos,
		provider:           provider,
		defaultTemperature: DefaultTemperature,
		log:                zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stream validates the request, resolves the template and opens a provider
// stream. The provider is not contacted unless every check passes.
func (s *Service) Stream(ctx context.Context, req Request) (*Stream, error) {
	temperature := s.defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temperature < 0 || temperature > 1 {
		return nil, apperr.Validation("temperature must be between 0 and 1")
	}
	if strings.TrimSpace(req.VideoID) == "" {
		return nil, apperr.Validation("videoId is required")
	}

	video, err := s.videos.Get(ctx, req.VideoID)
	if err != nil {
		return nil, err
	}
	if !video.HasTranscription() {
		return nil, ErrTranscriptionMissing
	}

	text := prompt.Substitute(req.Template, *video.Transcription)
	s.log.Info().
		Str("video_id", video.ID).
		Float64("temperature", temperature).
		Int("prompt_chars", len(text)).
		Msg("starting completion")

	fragments, err := s.provider.Stream(ctx, text, temperature)
	if err != nil {
		return nil, apperr.Provider("completion", err)
	}
	return &Stream{reader: fragments, log: s.log}, nil
}

// Stream is a single, non-restartable completion. Once Recv returns an
// error, every later call returns the same error.
type Stream struct {
	reader FragmentReader
	log    zerolog.Logger
	err    error
	closed bool
}

// Recv returns the next non-empty fragment, io.EOF on a clean end, or a
// provider error when the stream ends abnormally.
func (s *Stream) Recv() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for {
		fragment, err := s.reader.Recv()
		if err == io.EOF {
			s.finish(io.EOF)
			return "", io.EOF
		}
		if err != nil {
			s.log.Error().Err(err).Msg("completion stream failed")
			s.finish(apperr.Provider("completion", err))
			return "", s.err
		}
		if fragment != "" {
			return fragment, nil
		}
	}
}

func (s *Stream) finish(err error) {
	s.err = err
	s.Close()
}

func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.err == nil {
		s.err = io.EOF
	}
	return s.reader.Close()
}

// Receiver is anything that yields fragments with the Recv contract of Stream.
type Receiver interface {
	Recv() (string, error)
}

// Collect drains r and returns the concatenated text.
func Collect(r Receiver) (string, error) {
	var sb strings.Builder
	for {
		fragment, err := r.Recv()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(fragment)
	}
}
