package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/HugeFrog24/gpt-video-studio/internal/apperr"
)

const (
	AudioMediaType = "audio/mpeg"
	AudioFileName  = "audio.mp3"

	defaultBitrate = "20k"
)

// ErrNoAudio is the cause of extraction failures for videos without audio.
var ErrNoAudio = errors.New("video has no audio track")

// VideoFile is an in-memory video selected by the user.
type VideoFile struct {
	Name string
	Data []byte
}

// AudioAsset is the derived, upload-ready audio track.
type AudioAsset struct {
	Name      string
	MediaType string
	Data      []byte
}

// Extractor converts videos into low-bitrate mono MP3 audio using the shared engine.
type Extractor struct {
	engines *EngineLoader
	bitrate string
	tempDir string
	log     zerolog.Logger
}

type ExtractorOption func(*Extractor)

// WithBitrate overrides the target audio bitrate (ffmpeg syntax, e.g. "20k").
func WithBitrate(bitrate string) ExtractorOption {
	return func(e *Extractor) { e.bitrate = bitrate }
}

// WithTempDir sets the parent directory for per-extraction work directories.
func WithTempDir(dir string) ExtractorOption {
	return func(e *Extractor) { e.tempDir = dir }
}

func WithLogger(log zerolog.Logger) ExtractorOption {
	return func(e *Extractor) { e.log = log }
}

func NewExtractor(engines *EngineLoader, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		engines: engines,
		bitrate: defaultBitrate,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract derives the audio track of video. progress may be nil.
func (e *Extractor) Extract(ctx context.Context, video VideoFile, progress ProgressFunc) (AudioAsset, error) {
	if len(video.Data) == 0 {
		return AudioAsset{}, apperr.MediaExtraction("video is empty", nil)
	}

	engine, err := e.engines.Load(ctx)
	if err != nil {
		return AudioAsset{}, err
	}

	if e.tempDir != "" {
		if err := os.MkdirAll(e.tempDir, 0o755); err != nil {
			return AudioAsset{}, apperr.MediaExtraction("failed to create temp directory", err)
		}
	}
	workDir, err := os.MkdirTemp(e.tempDir, "extract-*")
	if err != nil {
		return AudioAsset{}, apperr.MediaExtraction("failed to create work directory", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			e.log.Warn().Err(err).Str("dir", workDir).Msg("failed to remove work directory")
		}
	}()

	input := filepath.Join(workDir, "input"+inputExt(video.Name))
	if err := os.WriteFile(input, video.Data, 0o600); err != nil {
		return AudioAsset{}, apperr.MediaExtraction("failed to stage video", err)
	}
	output := filepath.Join(workDir, AudioFileName)

	duration, err := engine.probeDuration(ctx, input)
	if err != nil {
		e.log.Debug().Err(err).Msg("duration unknown, progress limited to start and end")
	}

	pw := newProgressWriter(duration, progress)
	pw.emit(0)

	e.log.Info().Str("video", video.Name).Int("bytes", len(video.Data)).Msg("conversion started")

	stderr, err := engine.runner.Run(ctx, engine.FFmpeg, buildFFmpegArgs(input, output, e.bitrate), pw)
	if err != nil {
		if strings.Contains(stderr, "matches no streams") || strings.Contains(stderr, "does not contain any stream") {
			return AudioAsset{}, apperr.MediaExtraction(ErrNoAudio.Error(), fmt.Errorf("%w: %w", ErrNoAudio, err))
		}
		return AudioAsset{}, apperr.MediaExtraction("ffmpeg audio conversion failed", fmt.Errorf("%w\nStderr: %s", err, tail(stderr, 2048)))
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return AudioAsset{}, apperr.MediaExtraction("ffmpeg completed but output file is missing", err)
	}
	if len(data) == 0 {
		return AudioAsset{}, apperr.MediaExtraction("ffmpeg produced empty audio", nil)
	}

	pw.emit(100)
	e.log.Info().Str("video", video.Name).Int("audio_bytes", len(data)).Msg("conversion finished")

	return AudioAsset{
		Name:      AudioFileName,
		MediaType: AudioMediaType,
		Data:      data,
	}, nil
}

func buildFFmpegArgs(input, output, bitrate string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-nostats",
		"-i", input,
		"-map", "0:a",
		"-ac", "1",
		"-b:a", bitrate,
		"-acodec", "libmp3lame",
		"-progress", "pipe:1",
		output,
	}
}

func inputExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || strings.ContainsAny(ext, `/\ `) {
		return ".mp4"
	}
	return ext
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
