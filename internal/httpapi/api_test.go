package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/HugeFrog24/gpt-video-studio/internal/apperr"
	"github.com/HugeFrog24/gpt-video-studio/internal/completion"
	"github.com/HugeFrog24/gpt-video-studio/internal/domain"
)

const testVideoID = "6f1c2a9e-3b7d-4c1e-9a55-0f2d8c4b7e10"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVideos struct {
	videos  map[string]domain.Video
	created []domain.Video
}

func (f *fakeVideos) Create(_ context.Context, name, path string) (domain.Video, error) {
	v := domain.Video{ID: testVideoID, Name: name, Path: path}
	f.created = append(f.created, v)
	return v, nil
}

func (f *fakeVideos) Get(_ context.Context, id string) (domain.Video, error) {
	v, ok := f.videos[id]
	if !ok {
		return domain.Video{}, apperr.NotFound("video", id)
	}
	return v, nil
}

type fakeUploads struct {
	saved map[string][]byte
}

func (f *fakeUploads) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	path := "/uploads/" + filename
	f.saved[path] = data
	return path, nil
}

type fakePrompts []domain.Prompt

func (f fakePrompts) List(context.Context) ([]domain.Prompt, error) { return f, nil }

func (f fakePrompts) Get(_ context.Context, id string) (domain.Prompt, error) {
	for _, p := range f {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Prompt{}, apperr.NotFound("prompt", id)
}

type transcriberFunc func(ctx context.Context, videoID, prompt string) (string, error)

func (f transcriberFunc) Transcribe(ctx context.Context, videoID, prompt string) (string, error) {
	return f(ctx, videoID, prompt)
}

type testAPI struct {
	handler  http.Handler
	videos   *fakeVideos
	uploads  *fakeUploads
	provider *completion.MockProvider
}

func newTestAPI(t *testing.T, transcribe transcriberFunc) *testAPI {
	t.Helper()
	text := "we talked about channels"
	videos := &fakeVideos{videos: map[string]domain.Video{
		testVideoID: {ID: testVideoID, Transcription: &text},
	}}
	provider := &completion.MockProvider{
		StreamFunc: func(ctx context.Context, prompt string, temperature float64) (completion.FragmentReader, error) {
			return &completion.SliceReader{Fragments: []string{"Go", " channels", " rock"}}, nil
		},
	}
	if transcribe == nil {
		transcribe = func(ctx context.Context, videoID, prompt string) (string, error) { return "text", nil }
	}

	uploads := &fakeUploads{}
	handler := NewRouter(Deps{
		Videos:         videos,
		Uploads:        uploads,
		Prompts:        fakePrompts{{ID: "a", Title: "A", Template: "{transcription}"}, {ID: "b", Title: "B", Template: "x"}},
		Transcriber:    transcribe,
		Completer:      completion.NewService(videos, provider),
		MaxUploadBytes: 1 << 10,
		Logger:         zerolog.Nop(),
	})
	return &testAPI{handler: handler, videos: videos, uploads: uploads, provider: provider}
}

func (a *testAPI) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/videos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}
	return body.Error
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t, nil)
	w := api.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	api := newTestAPI(t, nil)
	w := api.do(httptest.NewRequest(http.MethodOptions, "/ai/complete", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}

func TestListPrompts(t *testing.T) {
	api := newTestAPI(t, nil)
	w := api.do(httptest.NewRequest(http.MethodGet, "/prompts", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var prompts []domain.Prompt
	if err := json.Unmarshal(w.Body.Bytes(), &prompts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(prompts) != 2 || prompts[0].ID != "a" || prompts[1].ID != "b" {
		t.Errorf("unexpected prompts %+v", prompts)
	}
}

func TestGetPrompt(t *testing.T) {
	api := newTestAPI(t, nil)

	w := api.do(httptest.NewRequest(http.MethodGet, "/prompts/a", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var p domain.Prompt
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.ID != "a" || p.Template != "{transcription}" {
		t.Errorf("unexpected prompt %+v", p)
	}

	w = api.do(httptest.NewRequest(http.MethodGet, "/prompts/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if msg := errorMessage(t, w); msg != "prompt not found" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestUploadVideo(t *testing.T) {
	api := newTestAPI(t, nil)
	w := api.do(multipartRequest(t, "file", "audio.mp3", []byte("mp3 bytes")))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Video domain.Video `json:"video"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Video.ID != testVideoID || resp.Video.Name != "audio.mp3" {
		t.Errorf("unexpected video %+v", resp.Video)
	}
	if string(api.uploads.saved["/uploads/audio.mp3"]) != "mp3 bytes" {
		t.Errorf("upload was not stored")
	}
}

func TestUploadVideo_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     func(t *testing.T) *http.Request
		wantMsg string
	}{
		{
			name:    "wrong extension",
			req:     func(t *testing.T) *http.Request { return multipartRequest(t, "file", "clip.mp4", []byte("x")) },
			wantMsg: "Invalid input type, please upload a MP3.",
		},
		{
			name:    "missing file",
			req:     func(t *testing.T) *http.Request { return multipartRequest(t, "", "", nil) },
			wantMsg: "Missing file input.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)
			w := api.do(tt.req(t))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if msg := errorMessage(t, w); msg != tt.wantMsg {
				t.Errorf("unexpected message %q", msg)
			}
			if len(api.videos.created) != 0 {
				t.Error("no video should be created")
			}
		})
	}
}

func TestUploadVideo_TooLarge(t *testing.T) {
	api := newTestAPI(t, nil)
	w := api.do(multipartRequest(t, "file", "audio.mp3", bytes.Repeat([]byte("a"), 4<<10)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(api.videos.created) != 0 {
		t.Error("no video should be created")
	}
}

func TestCreateTranscription(t *testing.T) {
	var gotID, gotPrompt string
	api := newTestAPI(t, func(ctx context.Context, videoID, prompt string) (string, error) {
		gotID, gotPrompt = videoID, prompt
		return "olá", nil
	})

	w := api.do(jsonRequest(http.MethodPost, "/videos/"+testVideoID+"/transcription", `{"prompt":"go, gin"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != `{"transcription":"olá"}` {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if gotID != testVideoID || gotPrompt != "go, gin" {
		t.Errorf("transcriber got %q %q", gotID, gotPrompt)
	}
}

func TestCreateTranscription_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"invalid id", "/videos/not-a-uuid/transcription", `{"prompt":""}`, nil, http.StatusBadRequest, "videoId must be a valid UUID"},
		{"missing prompt", "/videos/" + testVideoID + "/transcription", `{}`, nil, http.StatusBadRequest, "prompt is required"},
		{"malformed body", "/videos/" + testVideoID + "/transcription", `{`, nil, http.StatusBadRequest, "invalid request payload"},
		{"unknown video", "/videos/" + testVideoID + "/transcription", `{"prompt":""}`, apperr.NotFound("video", testVideoID), http.StatusNotFound, "video not found"},
		{"provider failure", "/videos/" + testVideoID + "/transcription", `{"prompt":""}`, apperr.Provider("transcription", errors.New("500")), http.StatusBadGateway, "transcription request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, func(ctx context.Context, videoID, prompt string) (string, error) {
				return "", tt.err
			})
			w := api.do(jsonRequest(http.MethodPost, tt.path, tt.body))
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if msg := errorMessage(t, w); msg != tt.wantMsg {
				t.Errorf("unexpected message %q", msg)
			}
		})
	}
}

func TestGenerateCompletion_Text(t *testing.T) {
	api := newTestAPI(t, nil)
	var gotPrompt string
	var gotTemp float64
	api.provider.StreamFunc = func(ctx context.Context, prompt string, temperature float64) (completion.FragmentReader, error) {
		gotPrompt, gotTemp = prompt, temperature
		return &completion.SliceReader{Fragments: []string{"Go", " channels", " rock"}}, nil
	}

	w := api.do(jsonRequest(http.MethodPost, "/ai/complete",
		`{"template":"Summarize: {transcription}","videoId":"`+testVideoID+`","temperature":0.2}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "Go channels rock" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
	if gotPrompt != "Summarize: we talked about channels" || gotTemp != 0.2 {
		t.Errorf("provider got %q at %v", gotPrompt, gotTemp)
	}
}

func TestGenerateCompletion_Events(t *testing.T) {
	api := newTestAPI(t, nil)
	req := jsonRequest(http.MethodPost, "/ai/complete", `{"template":"{transcription}","videoId":"`+testVideoID+`"}`)
	req.Header.Set("Accept", "text/event-stream")

	w := api.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"event:token\ndata:{\"text\":\"Go\"}\n\n",
		"event:token\ndata:{\"text\":\" channels\"}\n\n",
		"event:done\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q does not contain %q", body, want)
		}
	}
	if strings.Index(body, `" channels"`) > strings.Index(body, `" rock"`) {
		t.Error("fragments out of order")
	}
}

func TestGenerateCompletion_EventsMidStreamError(t *testing.T) {
	api := newTestAPI(t, nil)
	api.provider.StreamFunc = func(ctx context.Context, prompt string, temperature float64) (completion.FragmentReader, error) {
		return &completion.SliceReader{Fragments: []string{"partial"}, Err: errors.New("reset")}, nil
	}
	req := jsonRequest(http.MethodPost, "/ai/complete", `{"template":"x","videoId":"`+testVideoID+`"}`)
	req.Header.Set("Accept", "text/event-stream")

	body := api.do(req).Body.String()
	if !strings.Contains(body, "event:error\ndata:{\"error\":\"completion request failed\"}") {
		t.Errorf("expected an error event, got %q", body)
	}
	if strings.Contains(body, "event:done") {
		t.Error("a failed stream must not report done")
	}
}

func TestGenerateCompletion_TextMidStreamErrorAbortsConnection(t *testing.T) {
	api := newTestAPI(t, nil)
	api.provider.StreamFunc = func(ctx context.Context, prompt string, temperature float64) (completion.FragmentReader, error) {
		return &completion.SliceReader{Fragments: []string{"partial"}, Err: errors.New("reset")}, nil
	}
	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/ai/complete", "application/json",
		strings.NewReader(`{"template":"x","videoId":"`+testVideoID+`"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if _, err := io.ReadAll(resp.Body); err == nil {
		t.Fatal("expected the body to end abnormally")
	}
}

func TestGenerateCompletion_Rejections(t *testing.T) {
	empty := ""
	tests := []struct {
		name       string
		body       string
		video      *domain.Video
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "no transcription",
			body:       `{"template":"x","videoId":"` + testVideoID + `"}`,
			video:      &domain.Video{ID: testVideoID},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Video transcription was not generated yet.",
		},
		{
			name:       "empty transcription",
			body:       `{"template":"x","videoId":"` + testVideoID + `"}`,
			video:      &domain.Video{ID: testVideoID, Transcription: &empty},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Video transcription was not generated yet.",
		},
		{
			name:       "temperature out of range",
			body:       `{"template":"x","videoId":"` + testVideoID + `","temperature":2}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "temperature must be between 0 and 1",
		},
		{
			name:       "missing template",
			body:       `{"videoId":"` + testVideoID + `"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "template is required",
		},
		{
			name:       "unknown video",
			body:       `{"template":"x","videoId":"0d6f1f5e-8a2b-4b8e-9d43-2a1c7f0e9b21"}`,
			wantStatus: http.StatusNotFound,
			wantMsg:    "video not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, nil)
			if tt.video != nil {
				api.videos.videos[tt.video.ID] = *tt.video
			}
			calls := 0
			api.provider.StreamFunc = func(ctx context.Context, prompt string, temperature float64) (completion.FragmentReader, error) {
				calls++
				return &completion.SliceReader{}, nil
			}

			w := api.do(jsonRequest(http.MethodPost, "/ai/complete", tt.body))
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if msg := errorMessage(t, w); msg != tt.wantMsg {
				t.Errorf("unexpected message %q", msg)
			}
			if calls != 0 {
				t.Errorf("provider called %d times", calls)
			}
		})
	}
}

func TestGenerateCompletion_TemplateWithoutPlaceholder(t *testing.T) {
	api := newTestAPI(t, nil)
	var gotPrompt string
	api.provider.StreamFunc = func(ctx context.Context, prompt string, temperature float64) (completion.FragmentReader, error) {
		gotPrompt = prompt
		return &completion.SliceReader{Fragments: []string{"ok"}}, nil
	}

	w := api.do(jsonRequest(http.MethodPost, "/ai/complete", `{"template":"Write a haiku.","videoId":"`+testVideoID+`"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotPrompt != "Write a haiku." {
		t.Errorf("template should be sent verbatim, got %q", gotPrompt)
	}
}
