package transcription

import "context"

type MockProvider struct {
	TranscribeFunc func(ctx context.Context, req Request) (string, error)
}

func (m *MockProvider) Transcribe(ctx context.Context, req Request) (string, error) {
	return m.TranscribeFunc(ctx, req)
}
