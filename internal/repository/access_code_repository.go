package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/Freeeeeet/notebase/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type AccessCodeRepository struct {
	*base.Repository
}

func NewAccessCodeRepository(db base.DB) *AccessCodeRepository {
	return &AccessCodeRepository{Repository: base.NewRepository(db)}
}

// WithTx возвращает репозиторий, работающий внутри транзакции
func (r *AccessCodeRepository) WithTx(tx pgx.Tx) *AccessCodeRepository {
	return NewAccessCodeRepository(tx)
}

// GetByCode получает код по строке
func (r *AccessCodeRepository) GetByCode(ctx context.Context, code string) (*model.AccessCode, error) {
	query := `
		SELECT id, code, grade, stream, medium, tier, duration_days, max_uses, current_uses, expires_at, is_active, created_at
		FROM access_codes
		WHERE code = $1
	`

	var accessCode model.AccessCode
	err := r.DB().QueryRow(ctx, query, code).Scan(
		&accessCode.ID,
		&accessCode.Code,
		&accessCode.Grade,
		&accessCode.Stream,
		&accessCode.Medium,
		&accessCode.Tier,
		&accessCode.DurationDays,
		&accessCode.MaxUses,
		&accessCode.CurrentUses,
		&accessCode.ExpiresAt,
		&accessCode.IsActive,
		&accessCode.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get access code by code: %w", err)
	}

	return &accessCode, nil
}

// Claim использует код (инкремент current_uses), если лимит ещё не исчерпан.
// Возвращает false, если код уже израсходован или деактивирован.
func (r *AccessCodeRepository) Claim(ctx context.Context, codeID string) (bool, error) {
	query := `
		UPDATE access_codes
		SET current_uses = current_uses + 1
		WHERE id = $1
		  AND is_active = true
		  AND (max_uses IS NULL OR current_uses < max_uses)
	`

	affected, err := r.ExecAffected(ctx, query, codeID)
	if err != nil {
		return false, fmt.Errorf("claim access code: %w", err)
	}

	return affected == 1, nil
}
