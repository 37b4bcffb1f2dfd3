package pipeline

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/HugeFrog24/gpt-video-studio/internal/media"
)

type Completion struct {
	Template string `xml:"template,attr"`
	Content  string `xml:",chardata"`
}

type TranscriptionResult struct {
	VideoFile     string       `xml:"VideoFile"`
	VideoID       string       `xml:"VideoID,omitempty"`
	Transcription string       `xml:"Transcription"`
	Skipped       string       `xml:"Skipped,omitempty"`
	Completions   []Completion `xml:"Completions>Completion"`
}

type TranscriptionResults struct {
	XMLName xml.Name              `xml:"TranscriptionResults"`
	Results []TranscriptionResult `xml:"TranscriptionResult"`
}

// BatchOptions configures ProcessDirectory.
type BatchOptions struct {
	// Report is the XML file results are resumed from and written to.
	Report string
	// Prompt is the transcription hint sent for every video.
	Prompt string
	// Templates are completed for every transcribed video when a Completer is set.
	Templates []string
	Completer Completer
	// NewController returns a fresh session for each video.
	NewController func() *Controller
	Logger        zerolog.Logger
}

// ProcessDirectory transcribes every .mp4 below dir, one session per video.
// Videos already present in the report are not transcribed again and the
// report is rewritten after each video.
func ProcessDirectory(ctx context.Context, dir string, opts BatchOptions) (TranscriptionResults, error) {
	if opts.NewController == nil {
		return TranscriptionResults{}, errors.New("batch: NewController is required")
	}
	log := opts.Logger

	results, err := readReport(opts.Report)
	if err != nil {
		return TranscriptionResults{}, err
	}

	processed := make(map[string]int, len(results.Results))
	for i, r := range results.Results {
		processed[r.VideoFile] = i
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".mp4") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var existing *TranscriptionResult
		idx, seen := processed[path]
		if seen {
			existing = &results.Results[idx]
			if isDone(*existing, opts) {
				log.Info().Str("file", path).Msg("already processed, skipping")
				return nil
			}
		}

		result, err := processVideoFile(ctx, path, opts, existing)
		if err != nil {
			return fmt.Errorf("failed to process video file '%s': %w", path, err)
		}

		if seen {
			results.Results[idx] = result
		} else {
			processed[path] = len(results.Results)
			results.Results = append(results.Results, result)
		}

		if opts.Report != "" {
			if err := writeReport(opts.Report, results); err != nil {
				return err
			}
			log.Info().Str("report", opts.Report).Msg("results written")
		}
		return nil
	})
	if err != nil {
		return TranscriptionResults{}, err
	}
	return results, nil
}

func isDone(r TranscriptionResult, opts BatchOptions) bool {
	if r.Skipped != "" {
		return true
	}
	if r.Transcription == "" {
		return false
	}
	return opts.Completer == nil || len(missingTemplates(r, opts.Templates)) == 0
}

func processVideoFile(ctx context.Context, path string, opts BatchOptions, existing *TranscriptionResult) (TranscriptionResult, error) {
	result := TranscriptionResult{VideoFile: path}
	if existing != nil {
		result = *existing
	}

	if result.Transcription == "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return TranscriptionResult{}, fmt.Errorf("failed to read video: %w", err)
		}

		session := opts.NewController()
		if err := session.Select(media.VideoFile{Name: filepath.Base(path), Data: data}); err != nil {
			return TranscriptionResult{}, err
		}
		out, err := session.Submit(ctx, opts.Prompt)
		if errors.Is(err, media.ErrNoAudio) {
			opts.Logger.Warn().Str("file", path).Msg("skipping file without an audio stream")
			return TranscriptionResult{VideoFile: path, Skipped: "no audio"}, nil
		}
		if err != nil {
			return TranscriptionResult{}, err
		}
		result.VideoID = out.Video.ID
		result.Transcription = out.Transcription
	}

	if opts.Completer == nil || result.VideoID == "" {
		return result, nil
	}
	for _, template := range missingTemplates(result, opts.Templates) {
		text, err := opts.Completer.CompleteText(ctx, result.VideoID, template)
		if err != nil {
			return TranscriptionResult{}, fmt.Errorf("failed to complete prompt: %w", err)
		}
		result.Completions = append(result.Completions, Completion{Template: template, Content: text})
	}
	return result, nil
}

func missingTemplates(r TranscriptionResult, templates []string) []string {
	done := make(map[string]bool, len(r.Completions))
	for _, c := range r.Completions {
		done[c.Template] = true
	}
	var missing []string
	for _, t := range templates {
		if !done[t] {
			missing = append(missing, t)
		}
	}
	return missing
}

func readReport(path string) (TranscriptionResults, error) {
	var results TranscriptionResults
	if path == "" {
		return results, nil
	}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return results, nil
	}
	if err != nil {
		return results, fmt.Errorf("failed to open existing report: %w", err)
	}
	defer file.Close()

	if err := xml.NewDecoder(file).Decode(&results); err != nil {
		return TranscriptionResults{}, fmt.Errorf("failed to decode existing report: %w", err)
	}
	return results, nil
}

func writeReport(path string, results TranscriptionResults) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report '%s': %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(xml.Header); err != nil {
		return err
	}
	encoder := xml.NewEncoder(file)
	encoder.Indent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("failed to encode report '%s': %w", path, err)
	}
	return encoder.Close()
}
