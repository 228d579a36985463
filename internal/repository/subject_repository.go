package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/Freeeeeet/notebase/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type SubjectRepository struct {
	*base.Repository
}

func NewSubjectRepository(db base.DB) *SubjectRepository {
	return &SubjectRepository{Repository: base.NewRepository(db)}
}

// GetTopicByID получает тему по ID
func (r *SubjectRepository) GetTopicByID(ctx context.Context, id string) (*model.Topic, error) {
	query := `
		SELECT id, COALESCE(subject_id::text, ''), name
		FROM topics
		WHERE id = $1
	`

	var topic model.Topic
	err := r.DB().QueryRow(ctx, query, id).Scan(&topic.ID, &topic.SubjectID, &topic.Name)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get topic by id: %w", err)
	}

	return &topic, nil
}

// GetByID получает предмет по ID
func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	query := `
		SELECT id, name, grade, stream, medium, is_active, created_at
		FROM subjects
		WHERE id = $1
	`

	var subject model.Subject
	err := r.DB().QueryRow(ctx, query, id).Scan(
		&subject.ID,
		&subject.Name,
		&subject.Grade,
		&subject.Stream,
		&subject.Medium,
		&subject.IsActive,
		&subject.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subject by id: %w", err)
	}

	return &subject, nil
}

// CountSelected подсчитывает выбранные пользователем предметы
func (r *SubjectRepository) CountSelected(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM user_subjects
		WHERE user_id = $1
	`

	var count int
	err := r.DB().QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count selected subjects: %w", err)
	}

	return count, nil
}

// ReplaceSelection заменяет выбор предметов пользователя.
// Предметы вне scope игнорируются.
func (r *SubjectRepository) ReplaceSelection(ctx context.Context, userID string, scope model.Scope, subjectIDs []string) (int, error) {
	var inserted int64

	err := base.InTx(ctx, r.DB(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_subjects WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear selection: %w", err)
		}

		if len(subjectIDs) == 0 {
			return nil
		}

		query := `
			INSERT INTO user_subjects (user_id, subject_id)
			SELECT $1, s.id
			FROM subjects s
			WHERE s.id = ANY($2::uuid[])
			  AND s.is_active = true
			  AND s.grade = $3
			  AND s.stream IS NOT DISTINCT FROM $4
			  AND s.medium = $5
		`

		tag, err := tx.Exec(ctx, query, userID, subjectIDs, scope.Grade, scope.Stream, scope.Medium)
		if err != nil {
			return fmt.Errorf("insert selection: %w", err)
		}
		inserted = tag.RowsAffected()

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("replace subject selection: %w", err)
	}

	return int(inserted), nil
}
