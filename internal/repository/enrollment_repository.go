package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/Freeeeeet/notebase/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const enrollmentColumns = `id, user_id, grade, stream, medium, tier, is_active, expires_at, source, created_at`

type EnrollmentRepository struct {
	*base.Repository
}

func NewEnrollmentRepository(db base.DB) *EnrollmentRepository {
	return &EnrollmentRepository{Repository: base.NewRepository(db)}
}

// WithTx возвращает репозиторий, работающий внутри транзакции
func (r *EnrollmentRepository) WithTx(tx pgx.Tx) *EnrollmentRepository {
	return NewEnrollmentRepository(tx)
}

func scanEnrollment(row pgx.Row) (*model.Enrollment, error) {
	var e model.Enrollment
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Grade,
		&e.Stream,
		&e.Medium,
		&e.Tier,
		&e.IsActive,
		&e.ExpiresAt,
		&e.Source,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FindActiveForScope возвращает активную запись для (user, grade, stream, medium).
// Срок действия здесь не проверяется: истёкшая запись тоже возвращается.
func (r *EnrollmentRepository) FindActiveForScope(ctx context.Context, userID string, scope model.Scope) (*model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE user_id = $1
		  AND grade = $2
		  AND stream IS NOT DISTINCT FROM $3
		  AND medium = $4
		  AND is_active = true
		ORDER BY expires_at DESC NULLS FIRST, created_at DESC
		LIMIT 1
	`

	enrollment, err := scanEnrollment(r.DB().QueryRow(ctx, query, userID, scope.Grade, scope.Stream, scope.Medium))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find enrollment for scope: %w", err)
	}

	return enrollment, nil
}

// ListEffective получает все активные и не истёкшие записи пользователя
func (r *EnrollmentRepository) ListEffective(ctx context.Context, userID string, now time.Time) ([]*model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE user_id = $1
		  AND is_active = true
		  AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY created_at DESC
	`

	rows, err := r.DB().Query(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*model.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}

	return enrollments, nil
}

// Create создаёт новую запись о доступе
func (r *EnrollmentRepository) Create(ctx context.Context, e *model.Enrollment) error {
	query := `
		INSERT INTO enrollments (user_id, grade, stream, medium, tier, is_active, expires_at, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.DB().QueryRow(ctx, query,
		e.UserID,
		e.Grade,
		e.Stream,
		e.Medium,
		string(e.Tier),
		e.IsActive,
		e.ExpiresAt,
		string(e.Source),
	).Scan(&e.ID, &e.CreatedAt)

	if err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}

	return nil
}

// UpdateGrant обновляет уровень и срок действия существующей записи
func (r *EnrollmentRepository) UpdateGrant(ctx context.Context, id string, tier model.Tier, expiresAt *time.Time) error {
	query := `
		UPDATE enrollments
		SET tier = $2, expires_at = $3, is_active = true
		WHERE id = $1
	`

	affected, err := r.ExecAffected(ctx, query, id, string(tier), expiresAt)
	if err != nil {
		return fmt.Errorf("update enrollment grant: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("enrollment not found")
	}

	return nil
}
