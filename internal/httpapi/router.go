package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/HugeFrog24/gpt-video-studio/internal/completion"
	"github.com/HugeFrog24/gpt-video-studio/internal/domain"
)

const defaultMaxUploadBytes = 25 << 20

type VideoStore interface {
	Create(ctx context.Context, name, path string) (domain.Video, error)
}

type UploadStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

type PromptStore interface {
	List(ctx context.Context) ([]domain.Prompt, error)
	Get(ctx context.Context, id string) (domain.Prompt, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, videoID, prompt string) (string, error)
}

type Completer interface {
	Stream(ctx context.Context, req completion.Request) (*completion.Stream, error)
}

// Deps are the collaborators the API serves.
type Deps struct {
	Videos         VideoStore
	Uploads        UploadStore
	Prompts        PromptStore
	Transcriber    Transcriber
	Completer      Completer
	MaxUploadBytes int64
	Logger         zerolog.Logger
}

type API struct {
	videos         VideoStore
	uploads        UploadStore
	prompts        PromptStore
	transcriber    Transcriber
	completer      Completer
	maxUploadBytes int64
	log            zerolog.Logger
}

func NewRouter(deps Deps) http.Handler {
	api := &API{
		videos:         deps.Videos,
		uploads:        deps.Uploads,
		prompts:        deps.Prompts,
		transcriber:    deps.Transcriber,
		completer:      deps.Completer,
		maxUploadBytes: deps.MaxUploadBytes,
		log:            deps.Logger,
	}
	if api.maxUploadBytes <= 0 {
		api.maxUploadBytes = defaultMaxUploadBytes
	}

	r := gin.New()
	r.Use(requestLogger(api.log), recovery(api.log), cors())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.registerRoutes(&r.RouterGroup)

	return r
}

func (api *API) registerRoutes(r *gin.RouterGroup) {
	r.GET("/prompts", api.listPrompts)
	r.GET("/prompts/:promptId", api.getPrompt)
	r.POST("/videos", api.uploadVideo)
	r.POST("/videos/:videoId/transcription", api.createTranscription)
	r.POST("/ai/complete", api.generateCompletion)
}

func (api *API) listPrompts(c *gin.Context) {
	prompts, err := api.prompts.List(c.Request.Context())
	if err != nil {
		api.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompts)
}

type promptURI struct {
	PromptID string `uri:"promptId" binding:"required"`
}

func (api *API) getPrompt(c *gin.Context) {
	var uri promptURI
	if err := c.ShouldBindUri(&uri); err != nil {
		api.handleError(c, bindingError(err))
		return
	}

	p, err := api.prompts.Get(c.Request.Context(), uri.PromptID)
	if err != nil {
		api.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
