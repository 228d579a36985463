package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Freeeeeet/notebase/internal/model"
)

var errDB = errors.New("db unavailable")

func ptr[T any](v T) *T { return &v }

type fakeNotes struct {
	notes  map[string]*model.Note
	logs   chan *model.AccessLog
	logErr error
	err    error
}

func (f *fakeNotes) GetByID(_ context.Context, id string) (*model.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.notes[id], nil
}

func (f *fakeNotes) InsertAccessLog(_ context.Context, entry *model.AccessLog) error {
	if f.logs != nil {
		f.logs <- entry
	}
	return f.logErr
}

type fakeStructure struct {
	topics   map[string]*model.Topic
	subjects map[string]*model.Subject
}

func (f *fakeStructure) GetTopicByID(_ context.Context, id string) (*model.Topic, error) {
	return f.topics[id], nil
}

func (f *fakeStructure) GetByID(_ context.Context, id string) (*model.Subject, error) {
	return f.subjects[id], nil
}

// fakeEnrollments хранит записи в памяти и повторяет правила выбора репозитория
type fakeEnrollments struct {
	mu    sync.Mutex
	items []*model.Enrollment
	err   error
}

func (f *fakeEnrollments) FindActiveForScope(_ context.Context, userID string, scope model.Scope) (*model.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	var best *model.Enrollment
	for _, e := range f.items {
		if e.UserID != userID || !e.IsActive || !e.Scope().Matches(scope) {
			continue
		}
		if best == nil || laterExpiry(e.ExpiresAt, best.ExpiresAt) {
			best = e
		}
	}
	return best, nil
}

func (f *fakeEnrollments) ListEffective(_ context.Context, userID string, now time.Time) ([]*model.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	var out []*model.Enrollment
	for _, e := range f.items {
		if e.UserID == userID && e.IsEffective(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEnrollments) Create(_ context.Context, e *model.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = "enr-" + string(rune('a'+len(f.items)))
	f.items = append(f.items, e)
	return nil
}

func (f *fakeEnrollments) UpdateGrant(_ context.Context, id string, tier model.Tier, expiresAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.items {
		if e.ID == id {
			e.Tier = tier
			e.ExpiresAt = expiresAt
			e.IsActive = true
		}
	}
	return nil
}

func laterExpiry(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.After(*b)
}

type fakeUsers struct {
	admins   map[string]bool
	profiles map[string]*model.Profile
	roles    map[string][]model.Role
	err      error
}

func (f *fakeUsers) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	return f.profiles[userID], nil
}

func (f *fakeUsers) IsAdmin(_ context.Context, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.admins[userID], nil
}

func (f *fakeUsers) GetRoles(_ context.Context, userID string) ([]model.Role, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.roles[userID], nil
}

type fakeSigner struct {
	err   error
	paths []string
}

func (f *fakeSigner) SignedURL(_ context.Context, objectPath string, ttl time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.paths = append(f.paths, objectPath)
	return "https://storage.test/signed/" + objectPath + "?ttl=" + ttl.String(), nil
}

// fakeCredits повторяет условные UPDATE репозитория под мьютексом
type fakeCredits struct {
	mu      sync.Mutex
	records map[string]*model.CreditRecord
	creates int
}

func newFakeCredits() *fakeCredits {
	return &fakeCredits{records: make(map[string]*model.CreditRecord)}
}

func (f *fakeCredits) find(userID, month string) *model.CreditRecord {
	for _, r := range f.records {
		if r.UserID == userID && r.MonthYear == month {
			return r
		}
	}
	return nil
}

func (f *fakeCredits) Get(_ context.Context, userID, monthYear string) (*model.CreditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r := f.find(userID, monthYear); r != nil {
		c := *r
		return &c, nil
	}
	return nil, nil
}

func (f *fakeCredits) GetByID(_ context.Context, id string) (*model.CreditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok {
		c := *r
		return &c, nil
	}
	return nil, nil
}

func (f *fakeCredits) GetOrCreate(_ context.Context, userID, monthYear string, limit int) (*model.CreditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.find(userID, monthYear)
	if r == nil {
		f.creates++
		r = &model.CreditRecord{
			ID:           "cr-" + userID + "-" + monthYear,
			UserID:       userID,
			MonthYear:    monthYear,
			CreditsLimit: limit,
		}
		f.records[r.ID] = r
	}
	c := *r
	return &c, nil
}

func (f *fakeCredits) Consume(_ context.Context, id string, cost int) (*model.CreditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.IsSuspended || r.CreditsUsed+cost > r.CreditsLimit {
		return nil, nil
	}
	r.CreditsUsed += cost
	c := *r
	return &c, nil
}

func (f *fakeCredits) RecordStrike(_ context.Context, id string, threshold int, now time.Time) (*model.CreditRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.IsSuspended {
		return nil, nil
	}
	r.AbuseStrikes++
	if r.AbuseStrikes >= threshold {
		r.IsSuspended = true
		r.SuspendedAt = &now
		if r.CreditsUsed < r.CreditsLimit {
			r.CreditsUsed = r.CreditsLimit
		}
	}
	c := *r
	return &c, nil
}

type fakeNotifier struct {
	sent chan *model.CreditRecord
}

func (f *fakeNotifier) NotifySuspension(_ context.Context, record *model.CreditRecord) error {
	f.sent <- record
	return nil
}
