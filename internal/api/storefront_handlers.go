package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront-service/internal/catalog"
	"storefront-service/internal/config"
	"storefront-service/internal/domain"
)

// StorefrontResponse is the navbar and banner state of the public page.
type StorefrontResponse struct {
	StoreName      string                 `json:"store_name"`
	ContactNumber  string                 `json:"contact_number"`
	Currency       string                 `json:"currency"`
	Connected      bool                   `json:"connected"`
	Error          string                 `json:"error,omitempty"`
	LastSync       *time.Time             `json:"last_sync,omitempty"`
	Stats          domain.SiteStats       `json:"stats"`
	LiveVisitors   int                    `json:"live_visitors"`
	CartCount      int                    `json:"cart_count"`
	Categories     []string               `json:"categories"`
	PaymentMethods []config.PaymentMethod `json:"payment_methods"`
}

func (h *HTTPHandler) GetStorefront(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	resp := StorefrontResponse{
		StoreName:      h.profile.StoreName,
		ContactNumber:  h.profile.ContactNumber,
		Currency:       h.profile.Currency,
		Connected:      snap.Connected,
		Error:          snap.Error,
		Stats:          snap.Stats,
		LiveVisitors:   h.visitors.Current(),
		Categories:     h.profile.Categories,
		PaymentMethods: h.profile.PaymentMethods,
	}
	if !snap.LastSync.IsZero() {
		resp.LastSync = &snap.LastSync
	}
	if c := h.peekSession(r); c != nil {
		resp.CartCount = c.Count()
	}
	respondWithJSON(w, r, http.StatusOK, resp)
}

// --- Catalog ---

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	qParams := r.URL.Query()
	filter, err := catalog.ParseTypeFilter(qParams.Get("type"))
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid type filter. Allowed: all, software, ebook")
		return
	}

	products := catalog.Filter(h.state.Products(), filter, qParams.Get("q"))
	respondWithJSON(w, r, http.StatusOK, struct {
		Data  []domain.Product `json:"data"`
		Total int              `json:"total"`
	}{Data: products, Total: len(products)})
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	product, ok := h.state.Product(chi.URLParam(r, "productId"))
	if !ok {
		respondWithError(w, r, http.StatusNotFound, "product not found")
		return
	}
	respondWithJSON(w, r, http.StatusOK, product)
}

func (h *HTTPHandler) ShareProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.state.Product(chi.URLParam(r, "productId"))
	if !ok {
		respondWithError(w, r, http.StatusNotFound, "product not found")
		return
	}
	respondWithJSON(w, r, http.StatusOK, catalog.Share(h.publicBaseURL, h.profile.StoreName, product))
}

// --- Carousel ---

func (h *HTTPHandler) GetCarousel(w http.ResponseWriter, r *http.Request) {
	view := h.carousel.View()
	if len(view.Slides) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondWithJSON(w, r, http.StatusOK, view)
}

// respondWithCarouselMove reports the rotation after a manual move. A move ignored because a
// transition is still running is a 409.
func (h *HTTPHandler) respondWithCarouselMove(w http.ResponseWriter, r *http.Request, moved bool) {
	view := h.carousel.View()
	switch {
	case len(view.Slides) == 0:
		w.WriteHeader(http.StatusNoContent)
	case !moved:
		respondWithJSON(w, r, http.StatusConflict, view)
	default:
		respondWithJSON(w, r, http.StatusOK, view)
	}
}

func (h *HTTPHandler) CarouselNext(w http.ResponseWriter, r *http.Request) {
	h.respondWithCarouselMove(w, r, h.carousel.Next())
}

func (h *HTTPHandler) CarouselPrev(w http.ResponseWriter, r *http.Request) {
	h.respondWithCarouselMove(w, r, h.carousel.Prev())
}

func (h *HTTPHandler) CarouselSelect(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		respondWithError(w, r, http.StatusBadRequest, "Invalid slide index")
		return
	}
	if n := h.carousel.Len(); n > 0 && index >= n {
		respondWithError(w, r, http.StatusBadRequest, "Slide index out of range")
		return
	}
	h.respondWithCarouselMove(w, r, h.carousel.Select(index))
}

// --- Community questions ---

// QuestionInput defines the expected input for a visitor question.
type QuestionInput struct {
	UserName string `json:"user_name" validate:"required,max=120"`
	Question string `json:"question" validate:"required,max=4000"`
}

func (h *HTTPHandler) ListPublishedQuestions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, r, http.StatusOK, h.state.PublishedQuestions())
}

func (h *HTTPHandler) SubmitQuestion(w http.ResponseWriter, r *http.Request) {
	var input QuestionInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	q, err := h.state.SubmitQuestion(r.Context(), input.UserName, input.Question)
	if err != nil {
		h.respondWithStateError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusAccepted, q)
}
