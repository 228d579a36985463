package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/notebase/internal/guard"
	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

type RoleStore interface {
	GetRoles(ctx context.Context, userID string) ([]model.Role, error)
}

type SelectionStore interface {
	CountSelected(ctx context.Context, userID string) (int, error)
	ReplaceSelection(ctx context.Context, userID string, scope model.Scope, subjectIDs []string) (int, error)
}

type SessionConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

// SessionService собирает снимок сессии для клиентского роутинга.
// Снимок кэшируется и сбрасывается при изменениях, влияющих на него.
type SessionService struct {
	roles      RoleStore
	enrolls    EnrollmentLister
	selections SelectionStore
	cache      *expirable.LRU[string, guard.Session]
	logger     *zap.Logger
	now        func() time.Time
}

func NewSessionService(roles RoleStore, enrolls EnrollmentLister, selections SelectionStore, cfg SessionConfig, logger *zap.Logger) *SessionService {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 4096
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	return &SessionService{
		roles:      roles,
		enrolls:    enrolls,
		selections: selections,
		cache:      expirable.NewLRU[string, guard.Session](cfg.CacheSize, nil, cfg.CacheTTL),
		logger:     logger,
		now:        time.Now,
	}
}

// WithNow подменяет часы (для тестов)
func (s *SessionService) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Snapshot возвращает снимок сессии пользователя
func (s *SessionService) Snapshot(ctx context.Context, userID string) (guard.Session, error) {
	if session, ok := s.cache.Get(userID); ok {
		return session, nil
	}

	roles, err := s.roles.GetRoles(ctx, userID)
	if err != nil {
		return guard.Session{}, fmt.Errorf("load roles: %w", err)
	}

	enrollments, err := s.enrolls.ListEffective(ctx, userID, s.now())
	if err != nil {
		return guard.Session{}, fmt.Errorf("load enrollments: %w", err)
	}

	selected, err := s.selections.CountSelected(ctx, userID)
	if err != nil {
		return guard.Session{}, fmt.Errorf("load subject selection: %w", err)
	}

	session := guard.Session{
		Authenticated:       true,
		UserID:              userID,
		Roles:               roles,
		Enrollment:          BestEnrollment(enrollments),
		HasSubjectSelection: selected > 0,
	}
	s.cache.Add(userID, session)

	return session, nil
}

// Evaluate применяет требования маршрута к снимку; пустой userID - анонимный пользователь
func (s *SessionService) Evaluate(ctx context.Context, userID string, req guard.Requirements) (guard.Decision, error) {
	if userID == "" {
		return guard.Evaluate(guard.Session{}, req), nil
	}

	session, err := s.Snapshot(ctx, userID)
	if err != nil {
		return guard.Decision{}, err
	}

	return guard.Evaluate(session, req), nil
}

// Invalidate сбрасывает кэшированный снимок пользователя
func (s *SessionService) Invalidate(userID string) {
	if s.cache.Remove(userID) {
		s.logger.Debug("Session snapshot invalidated", zap.String("user_id", userID))
	}
}

// BestEnrollment выбирает запись с наивысшим уровнем, при равенстве - с более поздним сроком
func BestEnrollment(enrollments []*model.Enrollment) *model.Enrollment {
	var best *model.Enrollment
	for _, e := range enrollments {
		switch {
		case best == nil:
			best = e
		case e.Tier.Rank() > best.Tier.Rank():
			best = e
		case e.Tier.Rank() == best.Tier.Rank() && laterOrUnbounded(e.ExpiresAt, best.ExpiresAt):
			best = e
		}
	}
	return best
}

func laterOrUnbounded(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	return b != nil && a.After(*b)
}
