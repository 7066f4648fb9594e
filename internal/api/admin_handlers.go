package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront-service/internal/auth"
	"storefront-service/internal/domain"
	"storefront-service/internal/observability"
	"storefront-service/internal/state"
)

// AdminSessionInput defines the expected input for the access key exchange.
type AdminSessionInput struct {
	Key string `json:"key" validate:"required,max=256"`
}

func (h *HTTPHandler) CreateAdminSession(w http.ResponseWriter, r *http.Request) {
	var input AdminSessionInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	session, err := h.gate.Login(input.Key)
	if err != nil {
		observability.FromContext(r.Context()).Warn("admin login rejected", zap.Error(err))
		if errors.Is(err, auth.ErrInvalidKey) {
			respondWithError(w, r, http.StatusUnauthorized, "Chave de acesso inválida")
		} else {
			respondWithError(w, r, http.StatusInternalServerError, "Failed to create session")
		}
		return
	}
	respondWithJSON(w, r, http.StatusCreated, session)
}

// DashboardResponse is everything the admin panel shows.
type DashboardResponse struct {
	state.Snapshot
	LiveVisitors   int `json:"live_visitors"`
	ActiveSessions int `json:"active_sessions"`
}

func (h *HTTPHandler) dashboard() DashboardResponse {
	return DashboardResponse{
		Snapshot:       h.state.Snapshot(),
		LiveVisitors:   h.visitors.Current(),
		ActiveSessions: h.carts.Len(),
	}
}

func (h *HTTPHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, r, http.StatusOK, h.dashboard())
}

func (h *HTTPHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.state.FetchAll(r.Context()); err != nil {
		respondWithError(w, r, http.StatusBadGateway, "Refresh failed: "+err.Error())
		return
	}
	respondWithJSON(w, r, http.StatusOK, h.dashboard())
}

// --- Products ---

// ProductInput defines the expected input for creating or editing a product. An empty id
// creates a new product. Edits without created_at keep the stored creation time.
type ProductInput struct {
	ID          string             `json:"id" validate:"omitempty,max=64"`
	Title       string             `json:"title" validate:"required,max=255"`
	Price       float64            `json:"price" validate:"gte=0"`
	Type        domain.ProductType `json:"type" validate:"required,oneof=software ebook"`
	Category    string             `json:"category" validate:"max=120"`
	CoverURL    string             `json:"cover_url" validate:"omitempty,url,max=2048"`
	DownloadURL string             `json:"download_url" validate:"required,url,max=2048"`
	Description string             `json:"description"`
	IsFeatured  bool               `json:"is_featured"`
	CreatedAt   *time.Time         `json:"created_at"`
}

func (h *HTTPHandler) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	product := &domain.Product{
		ID:          input.ID,
		Title:       strings.TrimSpace(input.Title),
		Price:       input.Price,
		Type:        input.Type,
		Category:    strings.TrimSpace(input.Category),
		CoverURL:    input.CoverURL,
		DownloadURL: input.DownloadURL,
		Description: input.Description,
		IsFeatured:  input.IsFeatured,
	}
	if input.CreatedAt != nil {
		product.CreatedAt = *input.CreatedAt
	}

	if err := h.state.Upsert(r.Context(), product); err != nil {
		h.respondWithStateError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, product)
}

func (h *HTTPHandler) ToggleFeatured(w http.ResponseWriter, r *http.Request) {
	if err := h.state.ToggleFeatured(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondWithStateError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Ads ---

// AdInput defines the expected input for creating or editing an ad. New ads are active unless
// is_active is sent as false.
type AdInput struct {
	ID        string     `json:"id" validate:"omitempty,max=64"`
	Title     string     `json:"title" validate:"required,max=255"`
	ImageURL  string     `json:"image_url" validate:"required,url,max=2048"`
	LinkURL   string     `json:"link_url" validate:"omitempty,url,max=2048"`
	IsActive  *bool      `json:"is_active"`
	CreatedAt *time.Time `json:"created_at"`
}

func (h *HTTPHandler) UpsertAd(w http.ResponseWriter, r *http.Request) {
	var input AdInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	ad := &domain.Ad{
		ID:       input.ID,
		Title:    strings.TrimSpace(input.Title),
		ImageURL: input.ImageURL,
		LinkURL:  input.LinkURL,
		IsActive: true,
	}
	if input.IsActive != nil {
		ad.IsActive = *input.IsActive
	}
	if input.CreatedAt != nil {
		ad.CreatedAt = *input.CreatedAt
	}

	if err := h.state.Upsert(r.Context(), ad); err != nil {
		h.respondWithStateError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, ad)
}

func (h *HTTPHandler) ToggleAdActive(w http.ResponseWriter, r *http.Request) {
	if err := h.state.ToggleAdActive(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondWithStateError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Questions ---

// QuestionAdminInput defines the expected input for editing a question from the admin panel.
type QuestionAdminInput struct {
	ID          string     `json:"id" validate:"omitempty,max=64"`
	UserName    string     `json:"user_name" validate:"required,max=120"`
	Question    string     `json:"question" validate:"required,max=4000"`
	Answer      string     `json:"answer" validate:"max=8000"`
	IsPublished bool       `json:"is_published"`
	CreatedAt   *time.Time `json:"created_at"`
}

// AnswerInput defines the expected input for answering a question.
type AnswerInput struct {
	Answer string `json:"answer" validate:"max=8000"`
}

func (h *HTTPHandler) UpsertQuestion(w http.ResponseWriter, r *http.Request) {
	var input QuestionAdminInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	q := &domain.CommunityQuestion{
		ID:          input.ID,
		UserName:    input.UserName,
		Question:    input.Question,
		Answer:      strings.TrimSpace(input.Answer),
		IsPublished: input.IsPublished,
	}
	if input.CreatedAt != nil {
		q.CreatedAt = *input.CreatedAt
	}

	if err := h.state.Upsert(r.Context(), q); err != nil {
		h.respondWithStateError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, q)
}

func (h *HTTPHandler) ToggleQuestionPublished(w http.ResponseWriter, r *http.Request) {
	if err := h.state.ToggleQuestionPublished(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondWithStateError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var input AnswerInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	if err := h.state.AnswerQuestion(r.Context(), chi.URLParam(r, "id"), input.Answer); err != nil {
		h.respondWithStateError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Shared ---

// DeleteRecord returns the delete handler for one collection.
func (h *HTTPHandler) DeleteRecord(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.state.Remove(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
			h.respondWithStateError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SuggestionInput defines the expected input for a generated product description.
type SuggestionInput struct {
	Title    string             `json:"title" validate:"required,max=255"`
	Category string             `json:"category" validate:"max=120"`
	Type     domain.ProductType `json:"type" validate:"omitempty,oneof=software ebook"`
}

func (h *HTTPHandler) SuggestDescription(w http.ResponseWriter, r *http.Request) {
	var input SuggestionInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	if strings.TrimSpace(input.Title) == "" {
		respondWithError(w, r, http.StatusBadRequest, "Digite o título primeiro!")
		return
	}
	if input.Type == "" {
		input.Type = domain.ProductTypeSoftware
	}
	description := h.suggester.Suggest(r.Context(), input.Title, input.Category, input.Type)
	respondWithJSON(w, r, http.StatusOK, map[string]string{"description": description})
}
