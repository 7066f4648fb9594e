package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// MockGateway is a testify mock of store.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]domain.Product)
	return products, args.Error(1)
}

func (m *MockGateway) ListAds(ctx context.Context) ([]domain.Ad, error) {
	args := m.Called(ctx)
	ads, _ := args.Get(0).([]domain.Ad)
	return ads, args.Error(1)
}

func (m *MockGateway) ListQuestions(ctx context.Context) ([]domain.CommunityQuestion, error) {
	args := m.Called(ctx)
	questions, _ := args.Get(0).([]domain.CommunityQuestion)
	return questions, args.Error(1)
}

func (m *MockGateway) UpsertProduct(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockGateway) UpsertAd(ctx context.Context, ad *domain.Ad) error {
	return m.Called(ctx, ad).Error(0)
}

func (m *MockGateway) UpsertQuestion(ctx context.Context, question *domain.CommunityQuestion) error {
	return m.Called(ctx, question).Error(0)
}

func (m *MockGateway) Delete(ctx context.Context, kind domain.Kind, id string) error {
	return m.Called(ctx, kind, id).Error(0)
}

func (m *MockGateway) Close() error { return nil }

var (
	fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	seedProducts = []domain.Product{
		{ID: "p2", Title: "Editor Pro", Price: 300, Type: domain.ProductTypeSoftware, DownloadURL: "https://dl/p2"},
		{ID: "p1", Title: "Guia", Price: 100, Type: domain.ProductTypeEbook, DownloadURL: "https://dl/p1", IsFeatured: true},
	}
	seedAds       = []domain.Ad{{ID: "a1", Title: "Promo", ImageURL: "https://img/a1", IsActive: true, CreatedAt: fixedNow.Add(-3 * time.Hour)}}
	seedQuestions = []domain.CommunityQuestion{
		{ID: "q1", UserName: "Ana", Question: "Tem suporte?", Answer: "Sim", CreatedAt: fixedNow.Add(-time.Hour)},
		{ID: "q2", UserName: "Rui", Question: "Aceita M-Pesa?", IsPublished: true, CreatedAt: fixedNow.Add(-2 * time.Hour)},
	}
)

func newTestState(gw store.Gateway) *State {
	s := New(gw, nil)
	s.now = func() time.Time { return fixedNow }
	s.newID = func() string { return "new-id" }
	return s
}

func expectFetch(gw *MockGateway) {
	gw.On("ListProducts", mock.Anything).Return(seedProducts, nil)
	gw.On("ListAds", mock.Anything).Return(seedAds, nil)
	gw.On("ListQuestions", mock.Anything).Return(seedQuestions, nil)
}

func loadedState(t *testing.T) (*State, *MockGateway) {
	t.Helper()
	gw := new(MockGateway)
	expectFetch(gw)
	s := newTestState(gw)
	require.NoError(t, s.FetchAll(context.Background()))
	return s, gw
}

func TestFetchAll_Success(t *testing.T) {
	s, gw := loadedState(t)

	var notified []Snapshot
	s.OnRefresh(func(snap Snapshot) { notified = append(notified, snap) })
	require.NoError(t, s.FetchAll(context.Background()))

	snap := s.Snapshot()
	assert.True(t, snap.Connected)
	assert.Empty(t, snap.Error)
	assert.Equal(t, seedProducts, snap.Products)
	assert.Equal(t, seedAds, snap.Ads)
	assert.Equal(t, seedQuestions, snap.Questions)
	assert.Equal(t, fixedNow, snap.LastSync)
	assert.Equal(t, 2, snap.Stats.Inventory)
	assert.False(t, snap.Loading)
	require.Len(t, notified, 1)
	assert.Equal(t, snap.Products, notified[0].Products)
	assert.True(t, notified[0].Connected)
	gw.AssertExpectations(t)
}

func TestFetchAll_BackendUnreachable(t *testing.T) {
	gw := new(MockGateway)
	gw.On("ListProducts", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))
	gw.On("ListAds", mock.Anything).Return(nil, errors.New("dial tcp: connection refused")).Maybe()
	gw.On("ListQuestions", mock.Anything).Return(nil, errors.New("dial tcp: connection refused")).Maybe()
	s := newTestState(gw)

	var err error
	assert.NotPanics(t, func() { err = s.FetchAll(context.Background()) })
	require.Error(t, err)

	snap := s.Snapshot()
	assert.False(t, snap.Connected)
	assert.Contains(t, snap.Error, "connection refused")
	assert.Empty(t, snap.Products)
	assert.Empty(t, snap.Ads)
	assert.Empty(t, snap.Questions)
	assert.True(t, snap.LastSync.IsZero())
}

func TestFetchAll_NotConfigured(t *testing.T) {
	s := newTestState(store.Disconnected{})

	require.NoError(t, s.FetchAll(context.Background()))

	snap := s.Snapshot()
	assert.False(t, snap.Connected)
	assert.Empty(t, snap.Error)
	assert.Empty(t, snap.Products)
}

func TestFetchAll_AdFailureKeepsPreviousMirrors(t *testing.T) {
	s, gw := loadedState(t)

	gw.ExpectedCalls = nil
	gw.On("ListProducts", mock.Anything).Return([]domain.Product{}, nil).Maybe()
	gw.On("ListAds", mock.Anything).Return(nil, errors.New("ads table missing"))
	gw.On("ListQuestions", mock.Anything).Return([]domain.CommunityQuestion{}, nil).Maybe()

	require.Error(t, s.FetchAll(context.Background()))

	snap := s.Snapshot()
	assert.False(t, snap.Connected)
	assert.Equal(t, "ads table missing", snap.Error)
	assert.Equal(t, seedProducts, snap.Products)
	assert.Equal(t, seedQuestions, snap.Questions)
}

func TestFetchAll_QuestionErrorTolerated(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	gw := new(MockGateway)
	gw.On("ListProducts", mock.Anything).Return(seedProducts, nil)
	gw.On("ListAds", mock.Anything).Return(seedAds, nil)
	gw.On("ListQuestions", mock.Anything).Return(nil, errors.New("permission denied"))
	s := New(gw, zap.New(core))

	require.NoError(t, s.FetchAll(context.Background()))

	snap := s.Snapshot()
	assert.True(t, snap.Connected)
	assert.Empty(t, snap.Questions)
	assert.Len(t, snap.Products, 2)
	assert.Equal(t, 1, logs.FilterMessage("failed to fetch community questions").Len())
}

func TestFetchAll_StaleResultDiscarded(t *testing.T) {
	gw := new(MockGateway)
	started := make(chan struct{})
	release := make(chan struct{})
	oldProducts := []domain.Product{{ID: "old"}}
	newProducts := []domain.Product{{ID: "new"}}

	gw.On("ListProducts", mock.Anything).Return(oldProducts, nil).Once().Run(func(mock.Arguments) {
		close(started)
		<-release
	})
	gw.On("ListProducts", mock.Anything).Return(newProducts, nil).Once()
	gw.On("ListAds", mock.Anything).Return([]domain.Ad{}, nil)
	gw.On("ListQuestions", mock.Anything).Return([]domain.CommunityQuestion{}, nil)
	s := newTestState(gw)

	slow := make(chan error, 1)
	go func() { slow <- s.FetchAll(context.Background()) }()
	<-started

	require.NoError(t, s.FetchAll(context.Background()))
	close(release)
	require.NoError(t, <-slow)

	assert.Equal(t, newProducts, s.Snapshot().Products)
}

func TestUpsert_NewProductGetsIDAndRefetches(t *testing.T) {
	s, gw := loadedState(t)
	product := &domain.Product{Title: "Novo", Price: 10, Type: domain.ProductTypeEbook, DownloadURL: "https://dl/new"}
	gw.On("UpsertProduct", mock.Anything, product).Return(nil).Once()

	require.NoError(t, s.Upsert(context.Background(), product))

	assert.Equal(t, "new-id", product.ID)
	assert.Equal(t, fixedNow, product.CreatedAt)
	gw.AssertNumberOfCalls(t, "ListProducts", 2)
}

func TestUpsert_KeepsExistingCreatedAt(t *testing.T) {
	s, gw := loadedState(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ad := &domain.Ad{ID: "a1", Title: "Promo", ImageURL: "https://img/a1", CreatedAt: created}
	gw.On("UpsertAd", mock.Anything, ad).Return(nil).Once()

	require.NoError(t, s.Upsert(context.Background(), ad))
	assert.Equal(t, "a1", ad.ID)
	assert.Equal(t, created, ad.CreatedAt)
}

func TestUpsert_EditWithoutCreatedAtKeepsStoredTime(t *testing.T) {
	s, gw := loadedState(t)
	gw.On("UpsertAd", mock.Anything, mock.Anything).Return(nil).Once()
	gw.On("UpsertQuestion", mock.Anything, mock.Anything).Return(nil).Once()

	ad := &domain.Ad{ID: "a1", Title: "Promo editada", ImageURL: "https://img/a1", IsActive: true}
	require.NoError(t, s.Upsert(context.Background(), ad))
	assert.Equal(t, seedAds[0].CreatedAt, ad.CreatedAt)

	q := &domain.CommunityQuestion{ID: "q2", UserName: "Rui", Question: "Aceita M-Pesa?", Answer: "Sim", IsPublished: true}
	require.NoError(t, s.Upsert(context.Background(), q))
	assert.Equal(t, seedQuestions[1].CreatedAt, q.CreatedAt)
}

func TestUpsert_RefreshFailureAfterWrite(t *testing.T) {
	s, gw := loadedState(t)
	gw.ExpectedCalls = nil
	gw.On("UpsertProduct", mock.Anything, mock.Anything).Return(nil).Once()
	gw.On("Delete", mock.Anything, domain.KindAd, "a1").Return(nil).Once()
	gw.On("ListProducts", mock.Anything).Return(nil, errors.New("connection reset"))
	gw.On("ListAds", mock.Anything).Return(seedAds, nil).Maybe()
	gw.On("ListQuestions", mock.Anything).Return(seedQuestions, nil).Maybe()

	product := &domain.Product{Title: "Novo", Price: 10, Type: domain.ProductTypeEbook, DownloadURL: "https://dl/new"}
	require.NoError(t, s.Upsert(context.Background(), product), "the write landed")
	require.NoError(t, s.Remove(context.Background(), domain.KindAd, "a1"), "the delete landed")

	snap := s.Snapshot()
	assert.False(t, snap.Connected)
	assert.Contains(t, snap.Error, "connection reset")
	assert.Equal(t, seedProducts, snap.Products, "mirrors keep the last good fetch")
	gw.AssertExpectations(t)
}

func TestUpsert_FailureLeavesStateUntouched(t *testing.T) {
	s, gw := loadedState(t)
	before := s.Snapshot()
	gw.On("UpsertProduct", mock.Anything, mock.Anything).Return(errors.New("row violates policy")).Once()

	err := s.Upsert(context.Background(), &domain.Product{ID: "p9", Title: "X", Type: domain.ProductTypeEbook, DownloadURL: "https://dl"})

	var mutErr *MutationError
	require.ErrorAs(t, err, &mutErr)
	assert.Equal(t, domain.KindProduct, mutErr.Kind)
	assert.Equal(t, "upsert", mutErr.Op)
	assert.Equal(t, before, s.Snapshot())
	gw.AssertNumberOfCalls(t, "ListProducts", 1)
}

func TestRemove(t *testing.T) {
	s, gw := loadedState(t)
	gw.On("Delete", mock.Anything, domain.KindAd, "a1").Return(nil).Once()

	require.NoError(t, s.Remove(context.Background(), domain.KindAd, "a1"))
	gw.AssertNumberOfCalls(t, "ListAds", 2)

	gw.On("Delete", mock.Anything, domain.KindQuestion, "q1").Return(store.ErrNotConfigured).Once()
	err := s.Remove(context.Background(), domain.KindQuestion, "q1")
	assert.ErrorIs(t, err, store.ErrNotConfigured)
	gw.AssertNumberOfCalls(t, "ListAds", 2)
}

func TestToggleQuestionPublished_OnlyFlagChanges(t *testing.T) {
	s, gw := loadedState(t)

	var sent *domain.CommunityQuestion
	gw.On("UpsertQuestion", mock.Anything, mock.Anything).Return(nil).Once().Run(func(args mock.Arguments) {
		sent = args.Get(1).(*domain.CommunityQuestion)
	})

	require.NoError(t, s.ToggleQuestionPublished(context.Background(), "q1"))

	require.NotNil(t, sent)
	want := seedQuestions[0]
	want.IsPublished = true
	assert.Equal(t, want, *sent)
}

func TestToggles(t *testing.T) {
	s, gw := loadedState(t)
	gw.On("UpsertProduct", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.ID == "p2" && p.IsFeatured
	})).Return(nil).Once()
	gw.On("UpsertAd", mock.Anything, mock.MatchedBy(func(a *domain.Ad) bool {
		return a.ID == "a1" && !a.IsActive
	})).Return(nil).Once()
	gw.On("UpsertQuestion", mock.Anything, mock.MatchedBy(func(q *domain.CommunityQuestion) bool {
		return q.ID == "q2" && q.Answer == "Sim, aceitamos." && q.IsPublished
	})).Return(nil).Once()

	require.NoError(t, s.ToggleFeatured(context.Background(), "p2"))
	require.NoError(t, s.ToggleAdActive(context.Background(), "a1"))
	require.NoError(t, s.AnswerQuestion(context.Background(), "q2", "  Sim, aceitamos. "))
	gw.AssertExpectations(t)

	assert.ErrorIs(t, s.ToggleFeatured(context.Background(), "nope"), ErrRecordNotFound)
	assert.ErrorIs(t, s.ToggleAdActive(context.Background(), "nope"), ErrRecordNotFound)
	assert.ErrorIs(t, s.ToggleQuestionPublished(context.Background(), "nope"), ErrRecordNotFound)
	assert.ErrorIs(t, s.AnswerQuestion(context.Background(), "nope", "x"), ErrRecordNotFound)
}

func TestSubmitQuestion(t *testing.T) {
	s, gw := loadedState(t)
	gw.On("UpsertQuestion", mock.Anything, mock.Anything).Return(nil).Once()

	q, err := s.SubmitQuestion(context.Background(), " <b>Carla</b> ", "Funciona <script>alert(1)</script>offline?")
	require.NoError(t, err)
	assert.Equal(t, "new-id", q.ID)
	assert.Equal(t, "Carla", q.UserName)
	assert.Equal(t, "Funciona offline?", q.Question)
	assert.False(t, q.IsPublished)

	gw.On("UpsertQuestion", mock.Anything, mock.Anything).Return(nil).Once()
	q, err = s.SubmitQuestion(context.Background(), "D'Ávila & Filhos", `Funciona no "modo avião"? <b>Sim</b> & não`)
	require.NoError(t, err)
	assert.Equal(t, "D'Ávila & Filhos", q.UserName)
	assert.Equal(t, `Funciona no "modo avião"? Sim & não`, q.Question)

	_, err = s.SubmitQuestion(context.Background(), "", "pergunta")
	assert.ErrorIs(t, err, store.ErrInvalidRecord)
	_, err = s.SubmitQuestion(context.Background(), "Ana", "<i></i>")
	assert.ErrorIs(t, err, store.ErrInvalidRecord)
}

func TestReadAccessors(t *testing.T) {
	s, _ := loadedState(t)

	p, ok := s.Product("p1")
	require.True(t, ok)
	assert.Equal(t, "Guia", p.Title)
	_, ok = s.Product("zzz")
	assert.False(t, ok)

	published := s.PublishedQuestions()
	require.Len(t, published, 1)
	assert.Equal(t, "q2", published[0].ID)
	assert.True(t, s.Connected())
	assert.Len(t, s.Products(), 2)
}
