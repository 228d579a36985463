package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/notebase/internal/auth"
	"github.com/Freeeeeet/notebase/internal/metrics"
	"github.com/Freeeeeet/notebase/internal/model"
	"github.com/Freeeeeet/notebase/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const accessLogTimeout = 5 * time.Second

type NoteStore interface {
	GetByID(ctx context.Context, id string) (*model.Note, error)
	InsertAccessLog(ctx context.Context, entry *model.AccessLog) error
}

type StructureStore interface {
	GetTopicByID(ctx context.Context, id string) (*model.Topic, error)
	GetByID(ctx context.Context, id string) (*model.Subject, error)
}

type EntitlementStore interface {
	FindActiveForScope(ctx context.Context, userID string, scope model.Scope) (*model.Enrollment, error)
}

type UserStore interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type URLSigner interface {
	SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error)
}

// Capability is the caller's standing for one access decision.
type Capability int

const (
	CapabilityUnentitled Capability = iota
	CapabilityEntitled
	CapabilityAdmin
)

// Watermark identifies the requester on every rendered page.
type Watermark struct {
	Email   string `json:"email"`
	OrderID string `json:"orderId"`
}

// AccessGrant is a short-lived, single-request permission to read a note.
type AccessGrant struct {
	SignedURL string    `json:"signedUrl"`
	ExpiresIn int       `json:"expiresIn"`
	Watermark Watermark `json:"watermark"`
	NoteTitle string    `json:"noteTitle"`
}

type ContentGateConfig struct {
	Bucket string
	URLTTL time.Duration
}

// ContentGate решает, может ли пользователь получить документ, и выдаёт подписанную ссылку
type ContentGate struct {
	notes     NoteStore
	structure StructureStore
	enrolls   EntitlementStore
	users     UserStore
	signer    URLSigner
	metrics   *metrics.Metrics
	config    ContentGateConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewContentGate(
	notes NoteStore,
	structure StructureStore,
	enrolls EntitlementStore,
	users UserStore,
	signer URLSigner,
	m *metrics.Metrics,
	cfg ContentGateConfig,
	logger *zap.Logger,
) *ContentGate {
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = 300 * time.Second
	}
	return &ContentGate{
		notes:     notes,
		structure: structure,
		enrolls:   enrolls,
		users:     users,
		signer:    signer,
		metrics:   m,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow подменяет часы (для тестов)
func (g *ContentGate) WithNow(now func() time.Time) {
	if now != nil {
		g.now = now
	}
}

// Authorize проверяет доступ к заметке и выдаёт короткоживущую ссылку
func (g *ContentGate) Authorize(ctx context.Context, identity auth.Identity, noteID, clientIP string) (*AccessGrant, error) {
	grant, err := g.authorize(ctx, identity, noteID, clientIP)
	g.metrics.GateDecision(ErrorCode(err))
	return grant, err
}

func (g *ContentGate) authorize(ctx context.Context, identity auth.Identity, noteID, clientIP string) (*AccessGrant, error) {
	noteID = strings.TrimSpace(noteID)
	if noteID == "" {
		return nil, ErrMissingNoteID
	}
	// Идентификатор не UUID: такой заметки быть не может
	parsed, err := uuid.Parse(noteID)
	if err != nil {
		return nil, ErrNoteNotFound
	}
	noteID = parsed.String()

	// 1. Заметка существует, активна и имеет файл
	note, err := g.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	if !note.IsActive {
		return nil, ErrNoteInactive
	}
	if !note.HasFile() {
		return nil, ErrNoFile
	}

	// 2. Цепочка тема -> предмет определяет grade/stream/medium
	subject, err := g.resolveSubject(ctx, note)
	if err != nil {
		return nil, err
	}

	// 3-5. Права пользователя
	capability, enrollment, err := g.resolveCapability(ctx, identity.UserID, subject.Scope())
	if err != nil {
		g.logger.Error("Access check failed",
			zap.String("user_id", identity.UserID),
			zap.String("note_id", note.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrAccessCheckFailed, err)
	}

	switch capability {
	case CapabilityAdmin:
	case CapabilityUnentitled:
		return nil, ErrNoEnrollment
	case CapabilityEntitled:
		if enrollment.IsExpired(g.now()) {
			return nil, ErrEnrollmentExpired
		}
		if !enrollment.Tier.Meets(note.MinTier) {
			return nil, &TierInsufficientError{Required: note.MinTier, Current: enrollment.Tier}
		}
	}

	objectPath := storage.NormalizeObjectPath(*note.PDFURL, g.config.Bucket)
	if objectPath == "" {
		return nil, ErrNoFile
	}

	started := time.Now()
	signedURL, err := g.signer.SignedURL(ctx, objectPath, g.config.URLTTL)
	g.metrics.Upstream("storage", started, err)
	if err != nil {
		g.logger.Error("Failed to sign note url",
			zap.String("note_id", note.ID),
			zap.String("path", objectPath),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrSignedURLFailed, err)
	}

	grant := &AccessGrant{
		SignedURL: signedURL,
		ExpiresIn: int(g.config.URLTTL / time.Second),
		Watermark: Watermark{
			Email:   g.watermarkEmail(ctx, identity),
			OrderID: newOrderID(),
		},
		NoteTitle: note.Title,
	}

	g.logAccess(ctx, &model.AccessLog{
		UserID:     identity.UserID,
		NoteID:     note.ID,
		AccessedAt: g.now(),
		IPAddress:  clientIP,
	})

	g.logger.Info("Note access granted",
		zap.String("user_id", identity.UserID),
		zap.String("note_id", note.ID),
		zap.Bool("admin", capability == CapabilityAdmin),
		zap.String("order_id", grant.Watermark.OrderID),
	)

	return grant, nil
}

// resolveSubject находит предмет заметки; разрыв цепочки - ошибка данных, а не пользователя
func (g *ContentGate) resolveSubject(ctx context.Context, note *model.Note) (*model.Subject, error) {
	var topic *model.Topic
	if note.TopicID != "" {
		t, err := g.structure.GetTopicByID(ctx, note.TopicID)
		if err != nil {
			return nil, fmt.Errorf("get topic: %w", err)
		}
		topic = t
	}
	if topic == nil {
		g.logger.Error("Note references missing topic",
			zap.String("note_id", note.ID),
			zap.String("topic_id", note.TopicID),
		)
		return nil, ErrTopicNotFound
	}

	var subject *model.Subject
	if topic.SubjectID != "" {
		s, err := g.structure.GetByID(ctx, topic.SubjectID)
		if err != nil {
			return nil, fmt.Errorf("get subject: %w", err)
		}
		subject = s
	}
	if subject == nil {
		g.logger.Error("Topic references missing subject",
			zap.String("note_id", note.ID),
			zap.String("topic_id", topic.ID),
			zap.String("subject_id", topic.SubjectID),
		)
		return nil, ErrSubjectNotFound
	}

	return subject, nil
}

// resolveCapability вычисляет права один раз за запрос
func (g *ContentGate) resolveCapability(ctx context.Context, userID string, scope model.Scope) (Capability, *model.Enrollment, error) {
	isAdmin, err := g.users.IsAdmin(ctx, userID)
	if err != nil {
		return CapabilityUnentitled, nil, err
	}
	if isAdmin {
		return CapabilityAdmin, nil, nil
	}

	enrollment, err := g.enrolls.FindActiveForScope(ctx, userID, scope)
	if err != nil {
		return CapabilityUnentitled, nil, err
	}
	if enrollment == nil {
		return CapabilityUnentitled, nil, nil
	}

	return CapabilityEntitled, enrollment, nil
}

func (g *ContentGate) watermarkEmail(ctx context.Context, identity auth.Identity) string {
	profile, err := g.users.GetProfile(ctx, identity.UserID)
	if err != nil {
		g.logger.Warn("Failed to load profile for watermark",
			zap.String("user_id", identity.UserID),
			zap.Error(err),
		)
	}
	if profile != nil && profile.Email != "" {
		return profile.Email
	}
	if identity.Email != "" {
		return identity.Email
	}
	return identity.UserID
}

// logAccess пишет аудит в фоне; ошибка записи не влияет на ответ
func (g *ContentGate) logAccess(ctx context.Context, entry *model.AccessLog) {
	ctx = context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(ctx, accessLogTimeout)
		defer cancel()

		if err := g.notes.InsertAccessLog(ctx, entry); err != nil {
			g.logger.Warn("Failed to write access log",
				zap.String("user_id", entry.UserID),
				zap.String("note_id", entry.NoteID),
				zap.Error(err),
			)
		}
	}()
}

func newOrderID() string {
	return "NB-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
