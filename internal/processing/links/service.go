package links

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-links/internal/events"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/metrics"
)

const (
	MaxURLLength          = 2048
	DefaultStorageTimeout = 5 * time.Second
	defaultPublishTimeout = 2 * time.Second
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

type Service struct {
	repo        LinkRepository
	gen         CodeGenerator
	publisher   EventPublisher
	callTimeout time.Duration
	now         func() time.Time
}

type Option func(*Service)

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithCallTimeout bounds every repository call. Non-positive values keep the default.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo LinkRepository, gen CodeGenerator, opts ...Option) *Service {
	if gen == nil {
		gen = NewHashCodeGenerator(DefaultCodeLength)
	}

	s := &Service{
		repo:        repo,
		gen:         gen,
		callTimeout: DefaultStorageTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateLink(ctx context.Context, in CreateLinkInput) (*Link, error) {
	target, err := validateURL(in.URL)
	if err != nil {
		return nil, err
	}

	alias := strings.TrimSpace(in.CustomAlias)
	if alias != "" && !aliasPattern.MatchString(alias) {
		return nil, ErrInvalidAlias
	}

	now := s.now().UTC()
	if in.ExpiresAt != nil && !in.ExpiresAt.UTC().After(now) {
		return nil, ErrInvalidExpiry
	}

	code := s.gen.Generate(target)

	existing, err := s.findByCode(ctx, code)
	switch {
	case err == nil && existing != nil:
		metrics.LinkDuplicates.WithLabelValues(FieldShortCode).Inc()
		return nil, &DuplicateError{Code: code}
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, err
	}

	if alias != "" {
		_, err := s.findByAlias(ctx, alias)
		switch {
		case err == nil:
			metrics.LinkDuplicates.WithLabelValues(FieldCustomAlias).Inc()
			return nil, &DuplicateError{Alias: alias}
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	link := &Link{
		ShortCode:   code,
		OriginalURL: target,
		CreatedAt:   now,
		AccessCount: 0,
	}
	if alias != "" {
		link.CustomAlias = &alias
	}
	if owner := strings.TrimSpace(in.OwnerID); owner != "" {
		link.OwnerID = &owner
	}
	if in.ExpiresAt != nil {
		exp := in.ExpiresAt.UTC()
		link.ExpiresAt = &exp
	}

	if err := s.save(ctx, link); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			metrics.LinkDuplicates.WithLabelValues(conflict.Field).Inc()
			if conflict.Field == FieldCustomAlias {
				return nil, &DuplicateError{Alias: alias}
			}
			return nil, &DuplicateError{Code: code}
		}
		return nil, err
	}

	metrics.LinksCreated.Inc()
	s.publish(ctx, events.TypeLinkCreated, link, 0)
	return link, nil
}

// ResolveAndVisit returns the link for code after recording one visit.
// Expired links are reported without touching the counter.
func (s *Service) ResolveAndVisit(ctx context.Context, code string) (*Link, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		metrics.LinkVisits.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return nil, ErrNotFound
	}

	link, err := s.findByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.LinkVisits.WithLabelValues(metrics.OutcomeNotFound).Inc()
		}
		return nil, err
	}

	now := s.now().UTC()
	if link.ExpiredAt(now) {
		metrics.LinkVisits.WithLabelValues(metrics.OutcomeExpired).Inc()
		return nil, ErrExpired
	}

	if err := s.incrementVisit(ctx, code, now); err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.LinkVisits.WithLabelValues(metrics.OutcomeNotFound).Inc()
		}
		return nil, err
	}

	visited, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	metrics.LinkVisits.WithLabelValues(metrics.OutcomeVisited).Inc()
	return visited, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Link, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}
	return s.findByCode(ctx, code)
}

func (s *Service) GetByAlias(ctx context.Context, alias string) (*Link, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return nil, ErrNotFound
	}
	return s.findByAlias(ctx, alias)
}

func (s *Service) GetByOriginalURL(ctx context.Context, rawURL string) (*Link, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrNotFound
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	link, err := s.repo.FindByOriginalURL(ctx, rawURL)
	return link, WrapStorage("find by original url", err)
}

func (s *Service) UpdateURL(ctx context.Context, code, newURL string) (*Link, error) {
	target, err := validateURL(newURL)
	if err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNotFound
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	link, err := s.repo.UpdateURL(callCtx, code, target)
	if err != nil {
		return nil, WrapStorage("update url", err)
	}

	s.publish(ctx, events.TypeLinkUpdated, link, 0)
	return link, nil
}

func (s *Service) DeleteByCode(ctx context.Context, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	deleted, err := s.repo.DeleteByCode(callCtx, code)
	if err != nil {
		return false, WrapStorage("delete by code", err)
	}
	if deleted {
		metrics.LinksDeleted.WithLabelValues(FieldShortCode).Inc()
		s.publish(ctx, events.TypeLinkDeleted, &Link{ShortCode: code}, 0)
	}
	return deleted, nil
}

func (s *Service) DeleteByAlias(ctx context.Context, alias string) (bool, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return false, nil
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	deleted, err := s.repo.DeleteByAlias(callCtx, alias)
	if err != nil {
		return false, WrapStorage("delete by alias", err)
	}
	if deleted {
		metrics.LinksDeleted.WithLabelValues(FieldCustomAlias).Inc()
		s.publish(ctx, events.TypeLinkDeleted, &Link{CustomAlias: &alias}, 0)
	}
	return deleted, nil
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.callTimeout)
}

func (s *Service) findByCode(ctx context.Context, code string) (*Link, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	link, err := s.repo.FindByCode(ctx, code)
	return link, WrapStorage("find by code", err)
}

func (s *Service) findByAlias(ctx context.Context, alias string) (*Link, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	link, err := s.repo.FindByAlias(ctx, alias)
	return link, WrapStorage("find by alias", err)
}

func (s *Service) save(ctx context.Context, link *Link) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	return WrapStorage("save", s.repo.Save(ctx, link))
}

func (s *Service) incrementVisit(ctx context.Context, code string, at time.Time) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	return WrapStorage("increment visit", s.repo.IncrementVisit(ctx, code, at))
}

func (s *Service) publish(ctx context.Context, typ string, link *Link, count int64) {
	if s.publisher == nil {
		return
	}

	ev := NewLinkEvent(typ, link, count, s.now())

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, ev); err != nil {
		logger.Warn("Failed to publish link event",
			zap.String("type", ev.Type),
			zap.String("short_code", ev.ShortCode),
			zap.Error(err),
		)
	}
}

// NewLinkEvent builds the lifecycle event for link. link may be nil for
// events that are not tied to a single row.
func NewLinkEvent(typ string, link *Link, count int64, at time.Time) events.LinkEvent {
	ev := events.LinkEvent{
		EventID:    uuid.NewString(),
		Type:       typ,
		Count:      count,
		OccurredAt: at.UTC().Format(time.RFC3339Nano),
	}
	if link != nil {
		ev.ShortCode = link.ShortCode
		ev.CustomAlias = link.Alias()
		ev.OriginalURL = link.OriginalURL
	}
	return ev
}

func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > MaxURLLength {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", ErrInvalidURL
	}

	return raw, nil
}
