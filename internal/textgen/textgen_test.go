package textgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/domain"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestPrompt(t *testing.T) {
	p := Prompt("  Gestor Pro ", "", domain.ProductTypeSoftware)

	assert.Contains(t, p, `do tipo "Software"`)
	assert.Contains(t, p, `chamado "Gestor Pro"`)
	assert.Contains(t, p, `na categoria "Ativos Digitais"`)
	assert.Contains(t, Prompt("x", "Educação", domain.ProductTypeEbook), `"E-Book"`)
}

func TestSuggest_ReturnsGeneratedText(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, Prompt("Ebook", "Educação", domain.ProductTypeEbook)).
		Return("  Uma descrição.  ", nil).Once()

	got := NewSuggester(gen, nil).Suggest(context.Background(), "Ebook", "Educação", domain.ProductTypeEbook)

	assert.Equal(t, "Uma descrição.", got)
	gen.AssertExpectations(t)
}

func TestSuggest_ErrorYieldsFallback(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded")).Once()

	got := NewSuggester(gen, nil).Suggest(context.Background(), "Ebook", "", domain.ProductTypeEbook)

	assert.Equal(t, FallbackError, got)
}

func TestSuggest_EmptyYieldsFallback(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("   ", nil).Once()

	got := NewSuggester(gen, nil).Suggest(context.Background(), "Ebook", "", domain.ProductTypeEbook)

	assert.Equal(t, FallbackEmpty, got)
}

func TestSuggest_DisabledGenerator(t *testing.T) {
	got := NewSuggester(nil, nil).Suggest(context.Background(), "Ebook", "", domain.ProductTypeEbook)
	assert.Equal(t, FallbackError, got)
}

func TestNewGenAIGenerator_RequiresKey(t *testing.T) {
	gen, err := NewGenAIGenerator(context.Background(), "", "")
	require.ErrorIs(t, err, ErrDisabled)
	assert.Nil(t, gen)
}
