// Package state holds the in-memory mirrors of the remote collections together with the sync
// status, and is the only path through which records are changed.
package state

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

var (
	ErrRecordNotFound = errors.New("state: record not found")
	ErrStaleFetch     = errors.New("state: stale fetch result discarded")
)

// MutationError reports a failed upsert or delete. The mirrors are left as they were.
type MutationError struct {
	Kind domain.Kind
	Op   string
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("state: %s %s failed: %v", e.Op, e.Kind, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Snapshot is a point-in-time copy of the container.
type Snapshot struct {
	Products  []domain.Product           `json:"products"`
	Ads       []domain.Ad                `json:"ads"`
	Questions []domain.CommunityQuestion `json:"questions"`
	Connected bool                       `json:"connected"`
	Error     string                     `json:"error,omitempty"`
	LastSync  time.Time                  `json:"last_sync"`
	Stats     domain.SiteStats           `json:"stats"`
	Loading   bool                       `json:"loading"`
}

// State is the application state container. Create it with New and share the pointer.
type State struct {
	gw        store.Gateway
	logger    *zap.Logger
	sanitizer *bluemonday.Policy
	now       func() time.Time
	newID     func() string

	issued atomic.Uint64

	mu        sync.RWMutex
	applied   uint64
	inFlight  int
	products  []domain.Product
	ads       []domain.Ad
	questions []domain.CommunityQuestion
	connected bool
	lastErr   string
	lastSync  time.Time
	stats     domain.SiteStats
	listeners []func(Snapshot)
}

// New creates an empty, disconnected container over gw.
func New(gw store.Gateway, logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{
		gw:        gw,
		logger:    logger,
		sanitizer: bluemonday.StrictPolicy(),
		now:       time.Now,
		newID:     func() string { return ulid.Make().String() },
	}
}

// OnRefresh registers fn to be called with a snapshot each time a fetch result is applied,
// whether it succeeded or not.
func (s *State) OnRefresh(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// FetchAll reloads the three mirrors concurrently. A product or ad failure leaves the mirrors
// untouched and marks the container disconnected; a question failure only empties the
// questions mirror. A missing backend configuration is not an error. Results of a fetch that
// was overtaken by a newer one are dropped.
func (s *State) FetchAll(ctx context.Context) error {
	ticket := s.issued.Add(1)
	s.setLoading(1)
	defer s.setLoading(-1)

	var (
		products  []domain.Product
		ads       []domain.Ad
		questions []domain.CommunityQuestion
		qErr      error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.gw.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ads, err = s.gw.ListAds(gctx)
		return err
	})
	g.Go(func() error {
		questions, qErr = s.gw.ListQuestions(gctx)
		return nil
	})
	err := g.Wait()

	s.mu.Lock()
	if ticket < s.applied {
		s.mu.Unlock()
		s.logger.Debug("discarding fetch result", zap.Uint64("ticket", ticket), zap.Error(ErrStaleFetch))
		return nil
	}
	s.applied = ticket

	if err != nil {
		s.connected = false
		if errors.Is(err, store.ErrNotConfigured) {
			s.lastErr = ""
			s.logger.Info("backend not configured, running disconnected")
			err = nil
		} else {
			s.lastErr = err.Error()
			s.logger.Error("failed to fetch catalog", zap.Error(err))
			err = fmt.Errorf("state: fetch failed: %w", err)
		}
	} else {
		if qErr != nil {
			s.logger.Warn("failed to fetch community questions", zap.Error(qErr))
			questions = nil
		}
		s.products = products
		s.ads = ads
		s.questions = questions
		s.connected = true
		s.lastErr = ""
		s.lastSync = s.now()
		s.stats.Inventory = len(products)
	}
	snap := s.snapshotLocked()
	listeners := append(([]func(Snapshot))(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return err
}

func (s *State) setLoading(delta int) {
	s.mu.Lock()
	s.inFlight += delta
	s.mu.Unlock()
}

// Upsert writes record to its collection and refreshes on success. New records get an id and
// a creation time. Once the write has landed the call succeeds even if the refresh fails.
func (s *State) Upsert(ctx context.Context, record domain.Record) error {
	if record == nil {
		return &MutationError{Op: "upsert", Err: store.ErrInvalidRecord}
	}
	kind := record.RecordKind()

	var err error
	switch r := record.(type) {
	case *domain.Product:
		s.stamp(kind, &r.ID, &r.CreatedAt)
		err = s.gw.UpsertProduct(ctx, r)
	case *domain.Ad:
		s.stamp(kind, &r.ID, &r.CreatedAt)
		err = s.gw.UpsertAd(ctx, r)
	case *domain.CommunityQuestion:
		s.stamp(kind, &r.ID, &r.CreatedAt)
		err = s.gw.UpsertQuestion(ctx, r)
	default:
		err = fmt.Errorf("%w: %T", store.ErrUnknownKind, record)
	}
	if err != nil {
		s.logger.Error("upsert failed", zap.String("kind", string(kind)), zap.String("id", record.RecordID()), zap.Error(err))
		return &MutationError{Kind: kind, Op: "upsert", Err: err}
	}
	s.refreshAfterWrite(ctx, kind)
	return nil
}

// stamp assigns an id to new records. A missing creation time is taken from the mirrored record
// with the same id, or set to now for records the mirror does not know.
func (s *State) stamp(kind domain.Kind, id *string, createdAt *time.Time) {
	if *id == "" {
		*id = s.newID()
	}
	if !createdAt.IsZero() {
		return
	}
	if existing, ok := s.createdAt(kind, *id); ok && !existing.IsZero() {
		*createdAt = existing
		return
	}
	*createdAt = s.now().UTC()
}

func (s *State) createdAt(kind domain.Kind, id string) (time.Time, bool) {
	switch kind {
	case domain.KindProduct:
		p, ok := s.Product(id)
		return p.CreatedAt, ok
	case domain.KindAd:
		a, ok := s.ad(id)
		return a.CreatedAt, ok
	case domain.KindQuestion:
		q, ok := s.question(id)
		return q.CreatedAt, ok
	}
	return time.Time{}, false
}

// refreshAfterWrite refetches after a write that already landed. A failed refresh shows up in
// the sync status, not as a failure of the write.
func (s *State) refreshAfterWrite(ctx context.Context, kind domain.Kind) {
	if err := s.FetchAll(ctx); err != nil {
		s.logger.Warn("refresh after write failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

// Remove deletes the record of the given kind and refreshes on success.
func (s *State) Remove(ctx context.Context, kind domain.Kind, id string) error {
	if err := s.gw.Delete(ctx, kind, id); err != nil {
		s.logger.Error("delete failed", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
		return &MutationError{Kind: kind, Op: "delete", Err: err}
	}
	s.refreshAfterWrite(ctx, kind)
	return nil
}

// ToggleFeatured flips the featured flag of a product.
func (s *State) ToggleFeatured(ctx context.Context, id string) error {
	p, ok := s.Product(id)
	if !ok {
		return fmt.Errorf("%w: product %q", ErrRecordNotFound, id)
	}
	p.IsFeatured = !p.IsFeatured
	return s.Upsert(ctx, &p)
}

// ToggleAdActive flips whether an ad is shown.
func (s *State) ToggleAdActive(ctx context.Context, id string) error {
	ad, ok := s.ad(id)
	if !ok {
		return fmt.Errorf("%w: ad %q", ErrRecordNotFound, id)
	}
	ad.IsActive = !ad.IsActive
	return s.Upsert(ctx, &ad)
}

// ToggleQuestionPublished flips the published flag of a question. No other field changes.
func (s *State) ToggleQuestionPublished(ctx context.Context, id string) error {
	q, ok := s.question(id)
	if !ok {
		return fmt.Errorf("%w: question %q", ErrRecordNotFound, id)
	}
	q.IsPublished = !q.IsPublished
	return s.Upsert(ctx, &q)
}

// AnswerQuestion sets the official answer of a question without publishing it.
func (s *State) AnswerQuestion(ctx context.Context, id, answer string) error {
	q, ok := s.question(id)
	if !ok {
		return fmt.Errorf("%w: question %q", ErrRecordNotFound, id)
	}
	q.Answer = strings.TrimSpace(answer)
	return s.Upsert(ctx, &q)
}

// SubmitQuestion stores a visitor question. It stays unpublished until an admin publishes it.
func (s *State) SubmitQuestion(ctx context.Context, userName, question string) (domain.CommunityQuestion, error) {
	q := domain.CommunityQuestion{
		UserName: s.plainText(userName),
		Question: s.plainText(question),
	}
	if q.UserName == "" || q.Question == "" {
		return domain.CommunityQuestion{}, fmt.Errorf("%w: name and question are required", store.ErrInvalidRecord)
	}
	if err := s.Upsert(ctx, &q); err != nil {
		return domain.CommunityQuestion{}, err
	}
	return q, nil
}

// plainText strips markup from visitor input. The sanitizer escapes the text it keeps, so the
// entities are decoded again and the record holds what the visitor typed.
func (s *State) plainText(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(in)))
}

// Snapshot returns a copy of the mirrors and sync status.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		Products:  append([]domain.Product(nil), s.products...),
		Ads:       append([]domain.Ad(nil), s.ads...),
		Questions: append([]domain.CommunityQuestion(nil), s.questions...),
		Connected: s.connected,
		Error:     s.lastErr,
		LastSync:  s.lastSync,
		Stats:     s.stats,
		Loading:   s.inFlight > 0,
	}
}

// Connected reports whether the last applied refresh succeeded.
func (s *State) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Products returns a copy of the product mirror, newest first.
func (s *State) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Product(nil), s.products...)
}

// Product looks a product up by id.
func (s *State) Product(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// PublishedQuestions returns the questions visible on the public board.
func (s *State) PublishedQuestions() []domain.CommunityQuestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CommunityQuestion, 0, len(s.questions))
	for _, q := range s.questions {
		if q.IsPublished {
			out = append(out, q)
		}
	}
	return out
}

func (s *State) ad(id string) (domain.Ad, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.ads {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Ad{}, false
}

func (s *State) question(id string) (domain.CommunityQuestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.questions {
		if q.ID == id {
			return q, true
		}
	}
	return domain.CommunityQuestion{}, false
}
