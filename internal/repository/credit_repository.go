package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/Freeeeeet/notebase/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const creditColumns = `id, user_id, month_year, credits_used, credits_limit, abuse_strikes, is_suspended, suspended_at, created_at`

// CreditRepository хранит помесячный учёт кредитов AI-чата.
// Все изменения баланса выполняются одним условным UPDATE, без чтения перед записью.
type CreditRepository struct {
	*base.Repository
}

func NewCreditRepository(db base.DB) *CreditRepository {
	return &CreditRepository{Repository: base.NewRepository(db)}
}

func scanCredit(row pgx.Row) (*model.CreditRecord, error) {
	var c model.CreditRecord
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.MonthYear,
		&c.CreditsUsed,
		&c.CreditsLimit,
		&c.AbuseStrikes,
		&c.IsSuspended,
		&c.SuspendedAt,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Get получает запись за месяц, nil если её ещё нет
func (r *CreditRepository) Get(ctx context.Context, userID, monthYear string) (*model.CreditRecord, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM ai_credits
		WHERE user_id = $1 AND month_year = $2
	`

	record, err := scanCredit(r.DB().QueryRow(ctx, query, userID, monthYear))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit record: %w", err)
	}

	return record, nil
}

// GetByID получает запись по ID
func (r *CreditRepository) GetByID(ctx context.Context, id string) (*model.CreditRecord, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM ai_credits
		WHERE id = $1
	`

	record, err := scanCredit(r.DB().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit record by id: %w", err)
	}

	return record, nil
}

// GetOrCreate возвращает запись за месяц, создавая её с указанным лимитом.
// Параллельные вызовы создают не более одной записи.
func (r *CreditRepository) GetOrCreate(ctx context.Context, userID, monthYear string, limit int) (*model.CreditRecord, error) {
	query := `
		INSERT INTO ai_credits (user_id, month_year, credits_used, credits_limit)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (user_id, month_year) DO NOTHING
	`

	if _, err := r.ExecAffected(ctx, query, userID, monthYear, limit); err != nil {
		return nil, fmt.Errorf("create credit record: %w", err)
	}

	record, err := r.Get(ctx, userID, monthYear)
	if err != nil {
		return nil, err
	}

	if record == nil {
		return nil, fmt.Errorf("credit record missing after insert")
	}

	return record, nil
}

// Consume атомарно списывает cost кредитов.
// Возвращает nil, если запись заблокирована или баланса не хватает.
func (r *CreditRepository) Consume(ctx context.Context, id string, cost int) (*model.CreditRecord, error) {
	query := `
		UPDATE ai_credits
		SET credits_used = credits_used + $2,
		    updated_at = now()
		WHERE id = $1
		  AND is_suspended = false
		  AND credits_used + $2 <= credits_limit
		RETURNING ` + creditColumns

	record, err := scanCredit(r.DB().QueryRow(ctx, query, id, cost))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("consume credits: %w", err)
	}

	return record, nil
}

// RecordStrike атомарно добавляет предупреждение.
// При достижении threshold запись блокируется, а остаток баланса сжигается.
// Возвращает nil, если запись уже заблокирована.
func (r *CreditRepository) RecordStrike(ctx context.Context, id string, threshold int, now time.Time) (*model.CreditRecord, error) {
	query := `
		UPDATE ai_credits
		SET abuse_strikes = abuse_strikes + 1,
		    is_suspended = (abuse_strikes + 1 >= $2),
		    suspended_at = CASE WHEN abuse_strikes + 1 >= $2 THEN $3 ELSE suspended_at END,
		    credits_used = CASE WHEN abuse_strikes + 1 >= $2 THEN GREATEST(credits_used, credits_limit) ELSE credits_used END,
		    updated_at = now()
		WHERE id = $1
		  AND is_suspended = false
		RETURNING ` + creditColumns

	record, err := scanCredit(r.DB().QueryRow(ctx, query, id, threshold, now))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("record abuse strike: %w", err)
	}

	return record, nil
}
