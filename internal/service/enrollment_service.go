package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivationTx - операции, выполняемые в одной транзакции активации кода
type ActivationTx interface {
	GetByCode(ctx context.Context, code string) (*model.AccessCode, error)
	Claim(ctx context.Context, codeID string) (bool, error)
	FindActiveForScope(ctx context.Context, userID string, scope model.Scope) (*model.Enrollment, error)
	Create(ctx context.Context, e *model.Enrollment) error
	UpdateGrant(ctx context.Context, id string, tier model.Tier, expiresAt *time.Time) error
}

type ActivationStore interface {
	InActivation(ctx context.Context, fn func(tx ActivationTx) error) error
}

// EnrollmentService выдаёт доступ по кодам и управляет выбором предметов
type EnrollmentService struct {
	activations ActivationStore
	enrolls     EnrollmentLister
	selections  SelectionStore
	sessions    *SessionService
	logger      *zap.Logger
	now         func() time.Time
}

func NewEnrollmentService(activations ActivationStore, enrolls EnrollmentLister, selections SelectionStore, sessions *SessionService, logger *zap.Logger) *EnrollmentService {
	return &EnrollmentService{
		activations: activations,
		enrolls:     enrolls,
		selections:  selections,
		sessions:    sessions,
		logger:      logger,
		now:         time.Now,
	}
}

// WithNow подменяет часы (для тестов)
func (s *EnrollmentService) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// NormalizeCode приводит код доступа к каноническому виду
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Activate применяет код доступа.
// Существующая запись на тот же scope расширяется, иначе создаётся новая.
func (s *EnrollmentService) Activate(ctx context.Context, userID, code string) (*model.Enrollment, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	now := s.now()
	var result *model.Enrollment

	err := s.activations.InActivation(ctx, func(tx ActivationTx) error {
		accessCode, err := tx.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if accessCode == nil || !accessCode.IsValid(now) {
			return ErrInvalidCode
		}

		claimed, err := tx.Claim(ctx, accessCode.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrCodeExhausted
		}

		expiresAt := accessCode.EnrollmentExpiry(now)

		existing, err := tx.FindActiveForScope(ctx, userID, accessCode.Scope())
		if err != nil {
			return err
		}

		if existing == nil {
			result = &model.Enrollment{
				UserID:    userID,
				Grade:     accessCode.Grade,
				Stream:    accessCode.Stream,
				Medium:    accessCode.Medium,
				Tier:      accessCode.Tier,
				IsActive:  true,
				ExpiresAt: expiresAt,
				Source:    model.EnrollmentSourceCode,
			}
			return tx.Create(ctx, result)
		}

		tier := model.MaxTier(existing.Tier, accessCode.Tier)
		expiry := mergeExpiry(existing, expiresAt, now)
		if err := tx.UpdateGrant(ctx, existing.ID, tier, expiry); err != nil {
			return err
		}

		existing.Tier = tier
		existing.ExpiresAt = expiry
		result = existing
		return nil
	})
	if err != nil {
		if ErrorCode(err) == CodeInternalError {
			s.logger.Error("Failed to activate access code",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("activate code: %w", err)
		}
		return nil, err
	}

	s.sessions.Invalidate(userID)

	s.logger.Info("Access code activated",
		zap.String("user_id", userID),
		zap.String("enrollment_id", result.ID),
		zap.String("tier", string(result.Tier)),
	)

	return result, nil
}

// mergeExpiry выбирает более поздний срок; nil означает бессрочный доступ
func mergeExpiry(existing *model.Enrollment, granted *time.Time, now time.Time) *time.Time {
	switch {
	case existing.ExpiresAt == nil, granted == nil:
		return nil
	case existing.IsExpired(now), granted.After(*existing.ExpiresAt):
		return granted
	default:
		return existing.ExpiresAt
	}
}

// SelectSubjects заменяет выбор предметов в рамках текущей записи пользователя
func (s *EnrollmentService) SelectSubjects(ctx context.Context, userID string, subjectIDs []string) (int, error) {
	ids := make([]string, 0, len(subjectIDs))
	seen := make(map[string]bool, len(subjectIDs))
	for _, raw := range subjectIDs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSubjectID, raw)
		}
		id := parsed.String()
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	enrollments, err := s.enrolls.ListEffective(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("list enrollments: %w", err)
	}

	best := BestEnrollment(enrollments)
	if best == nil {
		return 0, ErrNoEnrollment
	}

	count, err := s.selections.ReplaceSelection(ctx, userID, best.Scope(), ids)
	if err != nil {
		return 0, err
	}

	s.sessions.Invalidate(userID)

	return count, nil
}
