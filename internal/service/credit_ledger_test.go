package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var ledgerNow = time.Date(2025, 7, 15, 9, 30, 0, 0, time.UTC)

func newTestLedger(tiers map[string]model.Tier) (*CreditLedger, *fakeCredits, *fakeNotifier) {
	enrolls := &fakeEnrollments{}
	for userID, tier := range tiers {
		enrolls.items = append(enrolls.items, &model.Enrollment{
			ID: userID, UserID: userID, Grade: "O/L", Medium: "sinhala", Tier: tier, IsActive: true,
		})
	}

	credits := newFakeCredits()
	notifier := &fakeNotifier{sent: make(chan *model.CreditRecord, 4)}
	ledger := NewCreditLedger(credits, enrolls, notifier, nil, LedgerConfig{
		Allotments:  model.DefaultCreditAllotments(),
		StrikeLimit: 3,
	}, zap.NewNop())
	ledger.WithNow(func() time.Time { return ledgerNow })

	return ledger, credits, notifier
}

func TestLedgerResolveCreatesMonthlyRecord(t *testing.T) {
	ledger, credits, _ := newTestLedger(map[string]model.Tier{"gold": model.TierGold, "plat": model.TierPlatinum})

	rec, err := ledger.Resolve(context.Background(), "gold")
	require.NoError(t, err)
	assert.Equal(t, "2025-07", rec.MonthYear)
	assert.Equal(t, 10000, rec.CreditsLimit)
	assert.Equal(t, 0, rec.CreditsUsed)
	assert.Equal(t, 0, rec.AbuseStrikes)
	assert.False(t, rec.IsSuspended)

	again, err := ledger.Resolve(context.Background(), "gold")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)
	assert.Equal(t, 1, credits.creates)

	plat, err := ledger.Resolve(context.Background(), "plat")
	require.NoError(t, err)
	assert.Equal(t, 25000, plat.CreditsLimit)
}

func TestLedgerSilverIsIneligible(t *testing.T) {
	ledger, credits, _ := newTestLedger(map[string]model.Tier{"silver": model.TierSilver})

	_, err := ledger.Resolve(context.Background(), "silver")
	assert.ErrorIs(t, err, ErrTierIneligible)
	assert.Equal(t, CodeTierIneligible, ErrorCode(err))

	_, err = ledger.Resolve(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrTierIneligible)

	assert.Equal(t, 0, credits.creates)
}

func TestLedgerHighestTierWins(t *testing.T) {
	ledger, _, _ := newTestLedger(map[string]model.Tier{"u": model.TierSilver})
	ledger.enrolls.(*fakeEnrollments).items = append(ledger.enrolls.(*fakeEnrollments).items,
		&model.Enrollment{ID: "u2", UserID: "u", Grade: "A/L", Medium: "english", Tier: model.TierPlatinum, IsActive: true},
		&model.Enrollment{ID: "u3", UserID: "u", Grade: "A/L", Medium: "tamil", Tier: model.TierGold, IsActive: true, ExpiresAt: ptr(ledgerNow.Add(-time.Hour))},
	)

	tier, err := ledger.CurrentTier(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, model.TierPlatinum, tier)
}

func TestLedgerStatusDoesNotCreate(t *testing.T) {
	ledger, credits, _ := newTestLedger(map[string]model.Tier{"gold": model.TierGold})

	rec, err := ledger.Status(context.Background(), "gold")
	require.NoError(t, err)
	assert.Equal(t, 10000, rec.Remaining())
	assert.Equal(t, 0, credits.creates)
}

func TestLedgerConsumeRejectsOverspend(t *testing.T) {
	ledger, _, _ := newTestLedger(map[string]model.Tier{"gold": model.TierGold})

	rec, err := ledger.Resolve(context.Background(), "gold")
	require.NoError(t, err)

	rec, err = ledger.Consume(context.Background(), rec, 9970)
	require.NoError(t, err)
	assert.Equal(t, 30, rec.Remaining())

	after, err := ledger.Consume(context.Background(), rec, 50)
	var creditErr *InsufficientCreditsError
	require.ErrorAs(t, err, &creditErr)
	assert.Equal(t, 50, creditErr.Required)
	assert.Equal(t, 30, creditErr.Remaining)
	assert.Equal(t, 9970, after.CreditsUsed)

	rec, err = ledger.Consume(context.Background(), rec, 30)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Remaining())
}

func TestLedgerStrikesLeadToSuspension(t *testing.T) {
	ledger, _, notifier := newTestLedger(map[string]model.Tier{"gold": model.TierGold})

	rec, err := ledger.Resolve(context.Background(), "gold")
	require.NoError(t, err)

	for strike := 1; strike <= 2; strike++ {
		_, err := ledger.RecordStrike(context.Background(), rec)
		var warn *AbuseWarningError
		require.ErrorAs(t, err, &warn)
		assert.Equal(t, strike, warn.Strikes)
		assert.Equal(t, 3-strike, warn.WarningsLeft)
	}

	suspended, err := ledger.RecordStrike(context.Background(), rec)
	assert.ErrorIs(t, err, ErrSuspended)
	assert.True(t, suspended.IsSuspended)
	assert.Equal(t, ledgerNow, *suspended.SuspendedAt)
	assert.Equal(t, 0, suspended.Remaining())
	assert.Equal(t, 3, suspended.AbuseStrikes)

	select {
	case sent := <-notifier.sent:
		assert.Equal(t, "gold", sent.UserID)
	case <-time.After(time.Second):
		t.Fatal("suspension notification was not sent")
	}

	_, err = ledger.Consume(context.Background(), rec, 1)
	assert.ErrorIs(t, err, ErrSuspended)

	_, err = ledger.RecordStrike(context.Background(), rec)
	assert.ErrorIs(t, err, ErrSuspended)
	assert.Empty(t, notifier.sent)
}

func TestLedgerConcurrentConsumeNeverOverspends(t *testing.T) {
	ledger, credits, _ := newTestLedger(map[string]model.Tier{"gold": model.TierGold})

	rec, err := ledger.Resolve(context.Background(), "gold")
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(cost int) {
			defer wg.Done()
			if _, err := ledger.Consume(context.Background(), rec, cost); err == nil {
				mu.Lock()
				accepted += cost
				mu.Unlock()
			}
		}(40 + i%50)
	}
	wg.Wait()

	final, err := credits.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, accepted, final.CreditsUsed)
	assert.LessOrEqual(t, final.CreditsUsed, final.CreditsLimit)
}
