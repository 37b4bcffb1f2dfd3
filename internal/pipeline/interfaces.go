package pipeline

import (
	"context"

	"github.com/HugeFrog24/gpt-video-studio/internal/domain"
	"github.com/HugeFrog24/gpt-video-studio/internal/media"
)

type AudioExtractor interface {
	Extract(ctx context.Context, video media.VideoFile, progress media.ProgressFunc) (media.AudioAsset, error)
}

type Uploader interface {
	UploadAudio(ctx context.Context, asset media.AudioAsset) (domain.Video, error)
}

type TranscriptionRequester interface {
	RequestTranscription(ctx context.Context, videoID, prompt string) (string, error)
}

// Completer produces the full text of a completion for a transcribed video.
type Completer interface {
	CompleteText(ctx context.Context, videoID, template string) (string, error)
}
