// Package transcription turns a stored audio upload into text and binds the
// result to its video record.
package transcription

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/HugeFrog24/gpt-video-studio/internal/apperr"
	"github.com/HugeFrog24/gpt-video-studio/internal/domain"
	"github.com/HugeFrog24/gpt-video-studio/internal/language"
)

// Request is what a speech-to-text provider receives.
type Request struct {
	Audio    io.Reader
	FileName string
	Language string
	Prompt   string
}

type Provider interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}

type VideoStore interface {
	Get(ctx context.Context, id string) (domain.Video, error)
	SetTranscription(ctx context.Context, id, transcription string) error
}

type AudioStore interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

type Service struct {
	videos   VideoStore
	audio    AudioStore
	provider Provider
	detector language.Detector
	language string
	log      zerolog.Logger
}

type Option func(*Service)

// WithDetector enables a language check of every transcription.
func WithDetector(d language.Detector) Option {
	return func(s *Service) { s.detector = d }
}

func WithLanguage(lang string) Option {
	return func(s *Service) { s.language = lang }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(videos VideoStore, audio AudioStore, provider Provider, opts ...Option) *Service {
	s := &Service{
		videos:   videos,
		audio:    audio,
		provider: provider,
		language: "pt",
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transcribe transcribes the audio stored for videoID and persists the text.
// Nothing is written when the provider fails.
func (s *Service) Transcribe(ctx context.Context, videoID, prompt string) (string, error) {
	video, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return "", err
	}

	audio, err := s.audio.Open(ctx, video.Path)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("open audio for video %s: %w", videoID, err))
	}
	defer audio.Close()

	log := s.log.With().Str("video_id", videoID).Logger()
	log.Info().Str("language", s.language).Msg("transcribing audio")

	text, err := s.provider.Transcribe(ctx, Request{
		Audio:    audio,
		FileName: filepath.Base(video.Path),
		Language: s.language,
		Prompt:   prompt,
	})
	if err != nil {
		log.Error().Err(err).Msg("transcription failed")
		return "", apperr.Provider("transcription", err)
	}

	if err := s.videos.SetTranscription(ctx, videoID, text); err != nil {
		return "", err
	}

	s.checkLanguage(log, text)
	log.Info().Int("chars", len(text)).Msg("transcription stored")
	return text, nil
}

func (s *Service) checkLanguage(log zerolog.Logger, text string) {
	if s.detector == nil {
		return
	}
	detected, ok := s.detector.Detect(text)
	if !ok {
		log.Debug().Msg("could not detect transcription language")
		return
	}
	if !language.Matches(detected, s.language) {
		log.Warn().
			Str("expected", s.language).
			Str("detected", detected).
			Msg("transcription language differs from configured language")
	}
}
