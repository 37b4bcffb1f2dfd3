package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/HugeFrog24/gpt-video-studio/internal/completion"
	"github.com/HugeFrog24/gpt-video-studio/internal/httpapi"
	"github.com/HugeFrog24/gpt-video-studio/internal/language"
	"github.com/HugeFrog24/gpt-video-studio/internal/logging"
	"github.com/HugeFrog24/gpt-video-studio/internal/openai"
	"github.com/HugeFrog24/gpt-video-studio/internal/prompt"
	"github.com/HugeFrog24/gpt-video-studio/internal/server"
	"github.com/HugeFrog24/gpt-video-studio/internal/store"
	"github.com/HugeFrog24/gpt-video-studio/internal/transcription"
)

func runServe(ctx context.Context, args []string) error {
	fs := newFlagSet("serve")
	fs.Int("port", 3333, "HTTP listen port")
	fs.String("language", "pt", "ISO 639-1 language of the audio")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, log, err := loadConfig(fs)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	videos := store.NewVideoRepository(db)
	prompts := store.NewPromptRepository(db)
	if err := prompts.Seed(ctx, prompt.DefaultCatalog); err != nil {
		return fmt.Errorf("seed prompts: %w", err)
	}
	uploads, err := store.NewUploads(cfg.Storage.UploadDir)
	if err != nil {
		return err
	}

	ai, err := openai.NewClient(cfg.OpenAI)
	if err != nil {
		return err
	}

	transcriber := transcription.NewService(videos, uploads, ai,
		transcription.WithLanguage(cfg.Transcription.Language),
		transcription.WithDetector(language.NewLingua()),
		transcription.WithLogger(logging.Component(log, "transcription")),
	)
	completer := completion.NewService(videos, ai,
		completion.WithDefaultTemperature(cfg.Completion.DefaultTemperature),
		completion.WithLogger(logging.Component(log, "completion")),
	)

	handler := httpapi.NewRouter(httpapi.Deps{
		Videos:         videos,
		Uploads:        uploads,
		Prompts:        prompts,
		Transcriber:    transcriber,
		Completer:      completer,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		Logger:         logging.Component(log, "http"),
	})

	log.Info().
		Str("database", cfg.Database.Driver).
		Str("transcription_model", cfg.OpenAI.TranscriptionModel).
		Str("completion_model", cfg.OpenAI.CompletionModel).
		Msg("starting server")
	return server.New(cfg.Server, handler, log).Run(ctx)
}
