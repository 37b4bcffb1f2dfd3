package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/HugeFrog24/gpt-video-studio/internal/client"
	"github.com/HugeFrog24/gpt-video-studio/internal/config"
	"github.com/HugeFrog24/gpt-video-studio/internal/logging"
	"github.com/HugeFrog24/gpt-video-studio/internal/media"
	"github.com/HugeFrog24/gpt-video-studio/internal/pipeline"
)

func runTranscribe(ctx context.Context, args []string) error {
	fs := newFlagSet("transcribe")
	fs.String("server-url", "http://localhost:3333", "API server base URL")
	fs.String("temp-dir", ".tmp", "directory for extraction work files")
	hint := fs.String("prompt", "", "comma separated keywords mentioned in the video")
	report := fs.String("report", "transcriptions.xml", "XML report written in directory mode")
	templates := fs.StringArray("template", nil, "template completed for every video in directory mode (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: gpt-video-studio transcribe <video_file_path|directory>")
	}
	target := fs.Arg(0)

	cfg, log, err := loadConfig(fs)
	if err != nil {
		return err
	}

	tmpDir := cfg.Media.TempDir
	if err := os.MkdirAll(tmpDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", tmpDir, err)
	}
	cleanupTmpDir(log, tmpDir)
	defer cleanupTmpDir(log, tmpDir)

	api := client.New(cfg.Client)
	extractor := newExtractor(cfg.Media, log)
	newSession := func() *pipeline.Controller {
		return pipeline.NewController(extractor, api, api,
			pipeline.WithStatusHook(func(s pipeline.Status) {
				log.Info().Stringer("status", s).Msg("pipeline status")
			}),
			pipeline.WithProgress(func(p int) {
				log.Debug().Int("percent", p).Msg("conversion progress")
			}),
			pipeline.WithLogger(logging.Component(log, "pipeline")),
		)
	}

	info, err := os.Stat(target)
	if err != nil {
		return err
	}

	if info.IsDir() {
		opts := pipeline.BatchOptions{
			Report:        *report,
			Prompt:        *hint,
			Templates:     *templates,
			NewController: newSession,
			Logger:        logging.Component(log, "batch"),
		}
		if len(*templates) > 0 {
			opts.Completer = api
		}
		results, err := pipeline.ProcessDirectory(ctx, target, opts)
		if err != nil {
			return err
		}
		log.Info().Int("videos", len(results.Results)).Str("report", *report).Msg("directory processed")
		return nil
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return err
	}
	session := newSession()
	if err := session.Select(media.VideoFile{Name: filepath.Base(target), Data: data}); err != nil {
		return err
	}
	res, err := session.Submit(ctx, *hint)
	if err != nil {
		return err
	}

	fmt.Println("Video ID:", res.Video.ID)
	fmt.Println("Transcription:", res.Transcription)
	return nil
}

func newExtractor(cfg config.MediaConfig, log zerolog.Logger) *media.Extractor {
	engines := media.NewEngineLoader(cfg.FFmpegPath, cfg.FFprobePath)
	return media.NewExtractor(engines,
		media.WithBitrate(cfg.AudioBitrate),
		media.WithTempDir(cfg.TempDir),
		media.WithLogger(logging.Component(log, "media")),
	)
}
