// Package client talks to the gpt-video-studio HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/HugeFrog24/gpt-video-studio/internal/apperr"
	"github.com/HugeFrog24/gpt-video-studio/internal/completion"
	"github.com/HugeFrog24/gpt-video-studio/internal/config"
	"github.com/HugeFrog24/gpt-video-studio/internal/domain"
	"github.com/HugeFrog24/gpt-video-studio/internal/media"
)

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(cfg config.ClientConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UploadAudio stores the asset on the server and returns the created video.
func (c *Client) UploadAudio(ctx context.Context, asset media.AudioAsset) (domain.Video, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, asset.Name))
	header.Set("Content-Type", asset.MediaType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return domain.Video{}, err
	}
	if _, err := part.Write(asset.Data); err != nil {
		return domain.Video{}, err
	}
	if err := mw.Close(); err != nil {
		return domain.Video{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", &body)
	if err != nil {
		return domain.Video{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		Video domain.Video `json:"video"`
	}
	if err := c.do(req, &resp); err != nil {
		return domain.Video{}, fmt.Errorf("upload audio: %w", err)
	}
	return resp.Video, nil
}

// RequestTranscription asks the server to transcribe the video's audio.
func (c *Client) RequestTranscription(ctx context.Context, videoID, prompt string) (string, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/videos/"+videoID+"/transcription", map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}

	var resp struct {
		Transcription string `json:"transcription"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("request transcription: %w", err)
	}
	return resp.Transcription, nil
}

func (c *Client) Prompts(ctx context.Context) ([]domain.Prompt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/prompts", nil)
	if err != nil {
		return nil, err
	}

	var prompts []domain.Prompt
	if err := c.do(req, &prompts); err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	return prompts, nil
}

// Prompt fetches one catalog template.
func (c *Client) Prompt(ctx context.Context, id string) (domain.Prompt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/prompts/"+url.PathEscape(id), nil)
	if err != nil {
		return domain.Prompt{}, err
	}

	var p domain.Prompt
	if err := c.do(req, &p); err != nil {
		return domain.Prompt{}, fmt.Errorf("get prompt %s: %w", id, err)
	}
	return p, nil
}

type CompleteRequest struct {
	Template    string   `json:"template"`
	VideoID     string   `json:"videoId"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Complete starts a streamed completion. The caller must Close the stream.
func (c *Client) Complete(ctx context.Context, in CompleteRequest) (*Stream, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/ai/complete", in)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("complete: %w", decodeError(resp))
	}
	return newStream(resp.Body), nil
}

// CompleteText runs a completion and returns the concatenated fragments.
func (c *Client) CompleteText(ctx context.Context, videoID, template string) (string, error) {
	stream, err := c.Complete(ctx, CompleteRequest{Template: template, VideoID: videoID})
	if err != nil {
		return "", err
	}
	defer stream.Close()
	return completion.Collect(stream)
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError maps an error response back onto an apperr kind.
func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
		if body.Error == "" {
			body.Error = resp.Status
		}
	}
	kind := kindForStatus(resp.StatusCode)
	if body.Error == completion.ErrTranscriptionMissing.Message {
		kind = apperr.KindPrecondition
	}
	return &apperr.Error{Kind: kind, Message: body.Error}
}

func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return apperr.KindValidation
	case http.StatusNotFound:
		return apperr.KindNotFound
	case http.StatusUnprocessableEntity:
		return apperr.KindMediaExtraction
	case http.StatusBadGateway:
		return apperr.KindProvider
	default:
		return apperr.KindInternal
	}
}
