package pipeline

import (
	"context"

	"github.com/HugeFrog24/gpt-video-studio/internal/domain"
	"github.com/HugeFrog24/gpt-video-studio/internal/media"
)

type MockAudioExtractor struct {
	ExtractFunc func(ctx context.Context, video media.VideoFile, progress media.ProgressFunc) (media.AudioAsset, error)
}

func (m *MockAudioExtractor) Extract(ctx context.Context, video media.VideoFile, progress media.ProgressFunc) (media.AudioAsset, error) {
	return m.ExtractFunc(ctx, video, progress)
}

type MockUploader struct {
	UploadAudioFunc func(ctx context.Context, asset media.AudioAsset) (domain.Video, error)
}

func (m *MockUploader) UploadAudio(ctx context.Context, asset media.AudioAsset) (domain.Video, error) {
	return m.UploadAudioFunc(ctx, asset)
}

type MockTranscriptionRequester struct {
	RequestTranscriptionFunc func(ctx context.Context, videoID, prompt string) (string, error)
}

func (m *MockTranscriptionRequester) RequestTranscription(ctx context.Context, videoID, prompt string) (string, error) {
	return m.RequestTranscriptionFunc(ctx, videoID, prompt)
}

type MockCompleter struct {
	CompleteTextFunc func(ctx context.Context, videoID, template string) (string, error)
}

func (m *MockCompleter) CompleteText(ctx context.Context, videoID, template string) (string, error) {
	return m.CompleteTextFunc(ctx, videoID, template)
}
