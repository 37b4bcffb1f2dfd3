package store

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HugeFrog24/gpt-video-studio/internal/apperr"
	"github.com/HugeFrog24/gpt-video-studio/internal/config"
	"github.com/HugeFrog24/gpt-video-studio/internal/domain"
)

func openTestDB(t *testing.T) *VideoRepository {
	t.Helper()
	db, err := Open(context.Background(), config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "nested", "test.db"),
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewVideoRepository(db)
}

func TestVideoRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	videos := openTestDB(t)

	created, err := videos.Create(ctx, "audio.mp3", "/uploads/audio-1.mp3")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an id to be assigned")
	}

	got, err := videos.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Transcription != nil {
		t.Errorf("expected no transcription on a new video, got %q", *got.Transcription)
	}
	if got.Path != "/uploads/audio-1.mp3" || got.Name != "audio.mp3" {
		t.Errorf("unexpected video %+v", got)
	}

	if err := videos.SetTranscription(ctx, created.ID, "first"); err != nil {
		t.Fatalf("SetTranscription failed: %v", err)
	}
	if err := videos.SetTranscription(ctx, created.ID, "second"); err != nil {
		t.Fatalf("SetTranscription failed: %v", err)
	}

	got, err = videos.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Transcription == nil || *got.Transcription != "second" {
		t.Errorf("expected overwritten transcription, got %v", got.Transcription)
	}
}

func TestVideoRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	videos := openTestDB(t)

	if _, err := videos.Get(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found from Get, got %v", err)
	}
	if err := videos.SetTranscription(ctx, "missing", "text"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found from SetTranscription, got %v", err)
	}
}

func TestPromptRepository_SeedAndList(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "p.db")})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()
	prompts := NewPromptRepository(db)

	seed := []domain.Prompt{
		{ID: "z-last-id", Title: "First", Template: "1 {transcription}"},
		{ID: "a-first-id", Title: "Second", Template: "2 {transcription}"},
	}
	if err := prompts.Seed(ctx, seed); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	// Seeding again keeps the existing rows.
	if err := prompts.Seed(ctx, []domain.Prompt{{ID: "z-last-id", Title: "Changed", Template: "x"}}); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}

	list, err := prompts.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(list))
	}
	if list[0].Title != "First" || list[1].Title != "Second" {
		t.Errorf("expected catalog order to be preserved, got %+v", list)
	}

	if _, err := prompts.Get(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql", DSN: "x"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestUploads_SaveAndOpen(t *testing.T) {
	ctx := context.Background()
	uploads, err := NewUploads(t.TempDir())
	if err != nil {
		t.Fatalf("NewUploads failed: %v", err)
	}

	path, err := uploads.Save(ctx, "../my talk.MP3", strings.NewReader("mp3 bytes"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Dir(path) != uploads.dir {
		t.Errorf("upload escaped its directory: %s", path)
	}
	if !strings.HasPrefix(filepath.Base(path), "my_talk-") || !strings.HasSuffix(path, ".mp3") {
		t.Errorf("unexpected stored name %s", filepath.Base(path))
	}

	rc, err := uploads.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "mp3 bytes" {
		t.Errorf("unexpected content %q", data)
	}
}
