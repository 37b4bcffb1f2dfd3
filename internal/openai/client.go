// Package openai adapts the OpenAI API to the transcription and completion
// providers.
package openai

import (
	"context"
	"errors"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/HugeFrog24/gpt-video-studio/internal/completion"
	"github.com/HugeFrog24/gpt-video-studio/internal/config"
	"github.com/HugeFrog24/gpt-video-studio/internal/transcription"
)

type Client struct {
	api                *openai.Client
	transcriptionModel string
	completionModel    string
}

func NewClient(cfg config.OpenAIConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	c := &Client{
		api:                openai.NewClientWithConfig(clientCfg),
		transcriptionModel: cfg.TranscriptionModel,
		completionModel:    cfg.CompletionModel,
	}
	if c.transcriptionModel == "" {
		c.transcriptionModel = openai.Whisper1
	}
	if c.completionModel == "" {
		c.completionModel = openai.GPT3Dot5Turbo16K
	}
	return c, nil
}

// Transcribe sends the audio to Whisper with temperature 0 and a JSON
// response format. go-openai leaves a zero temperature out of the form, so
// Whisper applies its own default, which is also 0.
func (c *Client) Transcribe(ctx context.Context, req transcription.Request) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:       c.transcriptionModel,
		Reader:      req.Audio,
		FilePath:    req.FileName,
		Prompt:      req.Prompt,
		Language:    req.Language,
		Temperature: 0,
		Format:      openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("transcription error: %w", err)
	}
	return resp.Text, nil
}

// Stream opens a streamed chat completion with the prompt as the only user
// message.
func (c *Client) Stream(ctx context.Context, prompt string, temperature float64) (completion.FragmentReader, error) {
	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       c.completionModel,
		Temperature: chatTemperature(temperature),
		Stream:      true,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating chat completion stream: %w", err)
	}
	return &chatStream{stream: stream}, nil
}

// chatTemperature keeps an explicit zero from being dropped by the request's
// omitempty encoding.
func chatTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

type chatStream struct {
	stream *openai.ChatCompletionStream
}

// Recv returns the delta text of the next chunk; chunks without choices
// yield an empty fragment.
func (s *chatStream) Recv() (string, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *chatStream) Close() error {
	return s.stream.Close()
}
