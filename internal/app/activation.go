package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/Freeeeeet/notebase/internal/repository"
	"github.com/Freeeeeet/notebase/internal/repository/base"
	"github.com/Freeeeeet/notebase/internal/service"
	"github.com/jackc/pgx/v5"
)

// activationTx объединяет репозитории кодов и записей в одной транзакции
type activationTx struct {
	*repository.AccessCodeRepository
	enrollments *repository.EnrollmentRepository
}

func (t activationTx) FindActiveForScope(ctx context.Context, userID string, scope model.Scope) (*model.Enrollment, error) {
	return t.enrollments.FindActiveForScope(ctx, userID, scope)
}

func (t activationTx) Create(ctx context.Context, e *model.Enrollment) error {
	return t.enrollments.Create(ctx, e)
}

func (t activationTx) UpdateGrant(ctx context.Context, id string, tier model.Tier, expiresAt *time.Time) error {
	return t.enrollments.UpdateGrant(ctx, id, tier, expiresAt)
}

// activationStore запускает активацию кода в транзакции pgx
type activationStore struct {
	db          base.DB
	codes       *repository.AccessCodeRepository
	enrollments *repository.EnrollmentRepository
}

func newActivationStore(db base.DB) *activationStore {
	return &activationStore{
		db:          db,
		codes:       repository.NewAccessCodeRepository(db),
		enrollments: repository.NewEnrollmentRepository(db),
	}
}

func (s *activationStore) InActivation(ctx context.Context, fn func(tx service.ActivationTx) error) error {
	return base.InTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(activationTx{
			AccessCodeRepository: s.codes.WithTx(tx),
			enrollments:          s.enrollments.WithTx(tx),
		})
	})
}
