package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/HugeFrog24/gpt-video-studio/internal/config"
	"github.com/HugeFrog24/gpt-video-studio/internal/logging"
)

const usage = `Usage: gpt-video-studio <command> [flags]

Commands:
  serve                     run the HTTP API server
  transcribe <video|dir>    extract, upload and transcribe a video or every .mp4 in a directory
  complete                  stream a completion for a transcribed video
  prompts                   list the prompt catalog

Run 'gpt-video-studio <command> --help' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Cancelled on interrupt so running stages and the server can clean up.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(ctx, args)
	case "transcribe":
		err = runTranscribe(ctx, args)
	case "complete":
		err = runComplete(ctx, args)
	case "prompts":
		err = runPrompts(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet returns a flag set carrying the flags every command shares.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.String("env-file", ".env", "path to a .env file")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", logging.FormatConsole, "log format (console or json)")
	return fs
}

func loadConfig(fs *pflag.FlagSet) (config.Config, zerolog.Logger, error) {
	configFile, _ := fs.GetString("config")
	envFile, _ := fs.GetString("env-file")

	cfg, err := config.Load(
		config.WithEnvFile(envFile),
		config.WithConfigFile(configFile),
		config.WithFlags(fs),
	)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.Log), nil
}

// cleanupTmpDir removes leftovers of interrupted extractions.
func cleanupTmpDir(log zerolog.Logger, tmpDir string) {
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("dir", tmpDir).Msg("failed to read temp directory")
		}
		return
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "extract-") {
			continue
		}
		if err := os.RemoveAll(filepath.Join(tmpDir, entry.Name())); err != nil {
			log.Warn().Err(err).Str("path", entry.Name()).Msg("failed to remove temp entry")
		}
	}
}
