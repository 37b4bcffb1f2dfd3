package media

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/HugeFrog24/gpt-video-studio/internal/apperr"
)

// commandRunner abstracts process execution so the engine can be faked in tests.
type commandRunner interface {
	Run(ctx context.Context, name string, args []string, stdout io.Writer) (stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args []string, stdout io.Writer) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

// Engine is a loaded ffmpeg installation. It is read-only once returned by
// EngineLoader.Load and safe to share between sessions.
type Engine struct {
	FFmpeg string
	// FFprobe is empty when ffprobe is unavailable; extraction still works
	// but progress is only reported at start and end.
	FFprobe string
	Version string

	runner commandRunner
}

// EngineLoader resolves the ffmpeg engine at most once per process.
// A failed load is not cached, so a later call may succeed once the
// binary is installed.
type EngineLoader struct {
	ffmpegPath  string
	ffprobePath string
	lookPath    func(file string) (string, error)
	runner      commandRunner

	mu     sync.Mutex
	engine *Engine
}

func NewEngineLoader(ffmpegPath, ffprobePath string) *EngineLoader {
	return &EngineLoader{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		lookPath:    exec.LookPath,
		runner:      execRunner{},
	}
}

// Load returns the shared engine, initializing it on first use.
func (l *EngineLoader) Load(ctx context.Context) (*Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.engine != nil {
		return l.engine, nil
	}

	ffmpeg, err := l.lookPath(l.ffmpegPath)
	if err != nil {
		return nil, apperr.MediaExtraction("ffmpeg binary not found", err)
	}

	var out bytes.Buffer
	stderr, err := l.runner.Run(ctx, ffmpeg, []string{"-hide_banner", "-version"}, &out)
	if err != nil {
		return nil, apperr.MediaExtraction("ffmpeg failed to start", fmt.Errorf("%w\nStderr: %s", err, stderr))
	}

	engine := &Engine{
		FFmpeg:  ffmpeg,
		Version: firstLine(out.String()),
		runner:  l.runner,
	}
	if l.ffprobePath != "" {
		if ffprobe, err := l.lookPath(l.ffprobePath); err == nil {
			engine.FFprobe = ffprobe
		}
	}

	l.engine = engine
	return engine, nil
}

// probeDuration returns the container duration of path, or 0 when it
// cannot be determined.
func (e *Engine) probeDuration(ctx context.Context, path string) (time.Duration, error) {
	if e.FFprobe == "" {
		return 0, fmt.Errorf("ffprobe not available")
	}

	var out bytes.Buffer
	_, err := e.runner.Run(ctx, e.FFprobe, []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}, &out)
	if err != nil {
		return 0, fmt.Errorf("failed to get media duration: %w", err)
	}

	durationStr := strings.TrimSpace(out.String())
	duration, err := time.ParseDuration(durationStr + "s")
	if err != nil {
		return 0, fmt.Errorf("failed to parse media duration %q: %w", durationStr, err)
	}
	return duration, nil
}

func firstLine(s string) string {
	scanner := bufio.NewScanner(strings.NewReader(s))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
