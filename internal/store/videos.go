package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/HugeFrog24/gpt-video-studio/internal/apperr"
	"github.com/HugeFrog24/gpt-video-studio/internal/domain"
)

type VideoRepository struct {
	db *sql.DB
}

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Create(ctx context.Context, name, path string) (domain.Video, error) {
	video := domain.Video{
		ID:        uuid.NewString(),
		Name:      name,
		Path:      path,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO videos (id, name, path, created_at)
		VALUES ($1, $2, $3, $4)
	`, video.ID, video.Name, video.Path, video.CreatedAt)
	return video, err
}

// Get returns the video or an apperr not-found error.
func (r *VideoRepository) Get(ctx context.Context, id string) (domain.Video, error) {
	var video domain.Video
	var transcription sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, path, transcription, created_at
		FROM videos
		WHERE id = $1
	`, id).Scan(&video.ID, &video.Name, &video.Path, &transcription, &video.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Video{}, apperr.NotFound("video", id)
	}
	if err != nil {
		return domain.Video{}, err
	}
	if transcription.Valid {
		value := transcription.String
		video.Transcription = &value
	}
	return video, nil
}

// SetTranscription overwrites the stored transcription of the video.
func (r *VideoRepository) SetTranscription(ctx context.Context, id, transcription string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE videos
		SET transcription = $1
		WHERE id = $2
	`, transcription, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("video", id)
	}
	return nil
}
