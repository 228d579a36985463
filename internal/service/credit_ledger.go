package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/notebase/internal/metrics"
	"github.com/Freeeeeet/notebase/internal/model"
	"go.uber.org/zap"
)

type CreditStore interface {
	Get(ctx context.Context, userID, monthYear string) (*model.CreditRecord, error)
	GetByID(ctx context.Context, id string) (*model.CreditRecord, error)
	GetOrCreate(ctx context.Context, userID, monthYear string, limit int) (*model.CreditRecord, error)
	Consume(ctx context.Context, id string, cost int) (*model.CreditRecord, error)
	RecordStrike(ctx context.Context, id string, threshold int, now time.Time) (*model.CreditRecord, error)
}

type EnrollmentLister interface {
	ListEffective(ctx context.Context, userID string, now time.Time) ([]*model.Enrollment, error)
}

// SuspensionNotifier получает уведомление о блокировке пользователя
type SuspensionNotifier interface {
	NotifySuspension(ctx context.Context, record *model.CreditRecord) error
}

type LedgerConfig struct {
	Allotments  model.CreditAllotments
	StrikeLimit int
}

// CreditLedger ведёт помесячный учёт кредитов AI-чата
type CreditLedger struct {
	credits  CreditStore
	enrolls  EnrollmentLister
	notifier SuspensionNotifier
	metrics  *metrics.Metrics
	config   LedgerConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewCreditLedger(credits CreditStore, enrolls EnrollmentLister, notifier SuspensionNotifier, m *metrics.Metrics, cfg LedgerConfig, logger *zap.Logger) *CreditLedger {
	if cfg.Allotments == nil {
		cfg.Allotments = model.DefaultCreditAllotments()
	}
	if cfg.StrikeLimit <= 0 {
		cfg.StrikeLimit = 3
	}
	return &CreditLedger{
		credits:  credits,
		enrolls:  enrolls,
		notifier: notifier,
		metrics:  m,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow подменяет часы (для тестов)
func (l *CreditLedger) WithNow(now func() time.Time) {
	if now != nil {
		l.now = now
	}
}

// StrikeLimit возвращает число предупреждений до блокировки
func (l *CreditLedger) StrikeLimit() int {
	return l.config.StrikeLimit
}

// CurrentTier возвращает наивысший уровень среди действующих записей пользователя
func (l *CreditLedger) CurrentTier(ctx context.Context, userID string) (model.Tier, error) {
	enrollments, err := l.enrolls.ListEffective(ctx, userID, l.now())
	if err != nil {
		return "", fmt.Errorf("list enrollments: %w", err)
	}

	var tier model.Tier
	for _, e := range enrollments {
		tier = model.MaxTier(tier, e.Tier)
	}

	return tier, nil
}

func (l *CreditLedger) limitFor(ctx context.Context, userID string) (int, error) {
	tier, err := l.CurrentTier(ctx, userID)
	if err != nil {
		return 0, err
	}

	limit := l.config.Allotments.For(tier)
	if limit <= 0 {
		return 0, ErrTierIneligible
	}

	return limit, nil
}

// Resolve возвращает запись текущего месяца, создавая её при первом обращении.
// Лимит фиксируется по уровню пользователя на момент создания.
func (l *CreditLedger) Resolve(ctx context.Context, userID string) (*model.CreditRecord, error) {
	limit, err := l.limitFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	month := model.MonthKey(l.now())
	record, err := l.credits.GetOrCreate(ctx, userID, month, limit)
	if err != nil {
		return nil, fmt.Errorf("resolve credit record: %w", err)
	}

	return record, nil
}

// Status возвращает состояние текущего месяца без создания записи
func (l *CreditLedger) Status(ctx context.Context, userID string) (*model.CreditRecord, error) {
	limit, err := l.limitFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	month := model.MonthKey(l.now())
	record, err := l.credits.Get(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("get credit record: %w", err)
	}

	if record == nil {
		return &model.CreditRecord{UserID: userID, MonthYear: month, CreditsLimit: limit}, nil
	}

	return record, nil
}

// Consume атомарно списывает cost кредитов.
// При отказе баланс не меняется, причина берётся из свежего состояния записи.
func (l *CreditLedger) Consume(ctx context.Context, record *model.CreditRecord, cost int) (*model.CreditRecord, error) {
	updated, err := l.credits.Consume(ctx, record.ID, cost)
	if err != nil {
		return nil, err
	}

	if updated != nil {
		l.metrics.CreditsConsumed(cost)
		return updated, nil
	}

	fresh, err := l.credits.GetByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, fmt.Errorf("credit record %s disappeared", record.ID)
	}

	if fresh.IsSuspended {
		return fresh, ErrSuspended
	}

	return fresh, &InsufficientCreditsError{Required: cost, Remaining: fresh.Remaining()}
}

// RecordStrike фиксирует попытку злоупотребления.
// Возвращает AbuseWarningError или ErrSuspended, если лимит предупреждений достигнут.
func (l *CreditLedger) RecordStrike(ctx context.Context, record *model.CreditRecord) (*model.CreditRecord, error) {
	updated, err := l.credits.RecordStrike(ctx, record.ID, l.config.StrikeLimit, l.now())
	if err != nil {
		return nil, err
	}

	// Запись уже заблокирована параллельным запросом
	if updated == nil {
		fresh, err := l.credits.GetByID(ctx, record.ID)
		if err != nil {
			return nil, err
		}
		return fresh, ErrSuspended
	}

	if updated.IsSuspended {
		l.logger.Warn("AI access suspended",
			zap.String("user_id", updated.UserID),
			zap.String("month", updated.MonthYear),
			zap.Int("strikes", updated.AbuseStrikes),
		)
		l.metrics.Suspension()
		l.notifySuspension(ctx, updated)
		return updated, ErrSuspended
	}

	l.logger.Info("Abuse strike recorded",
		zap.String("user_id", updated.UserID),
		zap.Int("strikes", updated.AbuseStrikes),
	)

	return updated, &AbuseWarningError{
		Strikes:      updated.AbuseStrikes,
		WarningsLeft: l.config.StrikeLimit - updated.AbuseStrikes,
	}
}

func (l *CreditLedger) notifySuspension(ctx context.Context, record *model.CreditRecord) {
	if l.notifier == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := l.notifier.NotifySuspension(ctx, record); err != nil {
			l.logger.Warn("Failed to send suspension notification",
				zap.String("user_id", record.UserID),
				zap.Error(err),
			)
		}
	}()
}
