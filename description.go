package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/HugeFrog24/gpt-video-studio/internal/client"
)

// runComplete streams a completion for a transcribed video to stdout.
func runComplete(ctx context.Context, args []string) error {
	fs := newFlagSet("complete")
	fs.String("server-url", "http://localhost:3333", "API server base URL")
	videoID := fs.String("video", "", "id of a transcribed video")
	template := fs.String("template", "", "prompt template; {transcription} is replaced by the transcription")
	promptID := fs.String("prompt-id", "", "use a template from the server's prompt catalog")
	temperature := fs.Float64("temperature", 0.5, "sampling temperature between 0 and 1")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *videoID == "" {
		return errors.New("--video is required")
	}
	if (*template == "") == (*promptID == "") {
		return errors.New("exactly one of --template or --prompt-id is required")
	}

	cfg, _, err := loadConfig(fs)
	if err != nil {
		return err
	}
	api := client.New(cfg.Client)

	if *promptID != "" {
		p, err := api.Prompt(ctx, *promptID)
		if err != nil {
			return err
		}
		*template = p.Template
	}

	req := client.CompleteRequest{Template: *template, VideoID: *videoID}
	if fs.Changed("temperature") {
		req.Temperature = temperature
	}

	stream, err := api.Complete(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			fmt.Println()
			return nil
		}
		if err != nil {
			fmt.Println()
			return fmt.Errorf("error generating completion: %w", err)
		}
		fmt.Print(fragment)
	}
}

func runPrompts(ctx context.Context, args []string) error {
	fs := newFlagSet("prompts")
	fs.String("server-url", "http://localhost:3333", "API server base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, _, err := loadConfig(fs)
	if err != nil {
		return err
	}

	prompts, err := client.New(cfg.Client).Prompts(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE")
	for _, p := range prompts {
		fmt.Fprintf(w, "%s\t%s\n", p.ID, p.Title)
	}
	return w.Flush()
}
