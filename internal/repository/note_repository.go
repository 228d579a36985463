package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/Freeeeeet/notebase/internal/repository/base"
)

type NoteRepository struct {
	*base.Repository
}

func NewNoteRepository(db base.DB) *NoteRepository {
	return &NoteRepository{Repository: base.NewRepository(db)}
}

// GetByID получает заметку по ID, nil если не найдена
func (r *NoteRepository) GetByID(ctx context.Context, id string) (*model.Note, error) {
	query := `
		SELECT id, COALESCE(topic_id::text, ''), title, min_tier, is_active, pdf_url, created_at
		FROM notes
		WHERE id = $1
	`

	var note model.Note
	err := r.DB().QueryRow(ctx, query, id).Scan(
		&note.ID,
		&note.TopicID,
		&note.Title,
		&note.MinTier,
		&note.IsActive,
		&note.PDFURL,
		&note.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get note by id: %w", err)
	}

	return &note, nil
}

// InsertAccessLog записывает факт выдачи документа
func (r *NoteRepository) InsertAccessLog(ctx context.Context, entry *model.AccessLog) error {
	query := `
		INSERT INTO note_access_logs (user_id, note_id, accessed_at, ip_address)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.ExecAffected(ctx, query, entry.UserID, entry.NoteID, entry.AccessedAt, entry.IPAddress)
	if err != nil {
		return fmt.Errorf("insert access log: %w", err)
	}

	return nil
}
