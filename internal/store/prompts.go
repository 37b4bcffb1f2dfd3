package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/HugeFrog24/gpt-video-studio/internal/apperr"
	"github.com/HugeFrog24/gpt-video-studio/internal/domain"
)

type PromptRepository struct {
	db *sql.DB
}

func NewPromptRepository(db *sql.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

func (r *PromptRepository) List(ctx context.Context) ([]domain.Prompt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, template
		FROM prompts
		ORDER BY position, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prompts := make([]domain.Prompt, 0)
	for rows.Next() {
		var p domain.Prompt
		if err := rows.Scan(&p.ID, &p.Title, &p.Template); err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

func (r *PromptRepository) Get(ctx context.Context, id string) (domain.Prompt, error) {
	var p domain.Prompt
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, template
		FROM prompts
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Title, &p.Template)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Prompt{}, apperr.NotFound("prompt", id)
	}
	return p, err
}

// Seed inserts prompts that are not stored yet; existing rows are kept so
// edits made in the database survive restarts.
func (r *PromptRepository) Seed(ctx context.Context, prompts []domain.Prompt) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, p := range prompts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO prompts (id, title, template, position)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING
		`, p.ID, p.Title, p.Template, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}
