package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/config"
	"storefront-service/internal/domain"
	"storefront-service/internal/observability"
	"storefront-service/internal/presence"
	"storefront-service/internal/state"
	"storefront-service/internal/store"
	"storefront-service/internal/textgen"
)

// SessionCookie carries the id of the visitor's cart session.
const SessionCookie = "sf_session"

// Dependencies are the collaborators of the HTTP handlers.
type Dependencies struct {
	State         *state.State
	Carts         *cart.Registry
	Carousel      *catalog.Carousel
	Gate          *auth.Gate
	Suggester     *textgen.Suggester
	Visitors      presence.Counter
	Profile       config.Profile
	PublicBaseURL string
	SessionTTL    time.Duration
	SecureCookies bool
	Logger        *zap.Logger
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	state         *state.State
	carts         *cart.Registry
	carousel      *catalog.Carousel
	gate          *auth.Gate
	suggester     *textgen.Suggester
	visitors      presence.Counter
	profile       config.Profile
	publicBaseURL string
	sessionTTL    time.Duration
	secureCookies bool
	validate      *validator.Validate
	logger        *zap.Logger
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(deps Dependencies) *HTTPHandler {
	h := &HTTPHandler{
		state:         deps.State,
		carts:         deps.Carts,
		carousel:      deps.Carousel,
		gate:          deps.Gate,
		suggester:     deps.Suggester,
		visitors:      deps.Visitors,
		profile:       deps.Profile,
		publicBaseURL: deps.PublicBaseURL,
		sessionTTL:    deps.SessionTTL,
		secureCookies: deps.SecureCookies,
		validate:      validator.New(),
		logger:        observability.OrNop(deps.Logger),
	}
	if h.carts == nil {
		h.carts = cart.NewRegistry(deps.SessionTTL)
	}
	if h.carousel == nil {
		h.carousel = catalog.NewCarousel(0, 0)
	}
	if h.visitors == nil {
		h.visitors = presence.Static(0)
	}
	if h.suggester == nil {
		h.suggester = textgen.NewSuggester(nil, h.logger)
	}
	if h.gate == nil {
		h.gate = auth.NewGate("", "", 0)
	}
	if h.sessionTTL <= 0 {
		h.sessionTTL = cart.DefaultSessionTTL
	}
	return h
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, r *http.Request, code int, message string) {
	respondWithJSON(w, r, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			observability.FromContext(r.Context()).Error("failed to encode JSON response", zap.Error(err))
		}
	}
}

// decodeAndValidate reads a JSON body into dst and runs the struct validation rules.
// It writes the 400 response itself and reports false on failure.
func (h *HTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// respondWithStateError maps errors from the state container to HTTP statuses.
// Backend failures of a mutation are a 502 carrying the backend message.
func (h *HTTPHandler) respondWithStateError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.FromContext(r.Context())
	switch {
	case errors.Is(err, state.ErrRecordNotFound):
		respondWithError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNotConfigured):
		respondWithError(w, r, http.StatusServiceUnavailable, store.ErrNotConfigured.Error())
	case errors.Is(err, store.ErrInvalidRecord), errors.Is(err, store.ErrUnknownKind):
		respondWithError(w, r, http.StatusBadRequest, err.Error())
	default:
		logger.Error("state operation failed", zap.Error(err))
		respondWithError(w, r, http.StatusBadGateway, "Operation failed: "+err.Error())
	}
}

// session returns the visitor's cart, issuing a new session cookie when needed.
func (h *HTTPHandler) session(w http.ResponseWriter, r *http.Request) *cart.Cart {
	var current string
	if c, err := r.Cookie(SessionCookie); err == nil {
		current = c.Value
	}
	id, c := h.carts.Get(current)
	if id != current {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(h.sessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return c
}

// peekSession returns the visitor's cart without creating a session.
func (h *HTTPHandler) peekSession(r *http.Request) *cart.Cart {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	sc, ok := h.carts.Lookup(c.Value)
	if !ok {
		return nil
	}
	return sc
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/storefront", h.GetStorefront)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", h.GetProductByID)
				r.Get("/share", h.ShareProduct)
			})
		})

		r.Route("/carousel", func(r chi.Router) {
			r.Get("/", h.GetCarousel)
			r.Post("/next", h.CarouselNext)
			r.Post("/prev", h.CarouselPrev)
			r.Post("/select/{index}", h.CarouselSelect)
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", h.ListPublishedQuestions)
			r.Post("/", h.SubmitQuestion)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddCartItem)
			r.Delete("/items/{productId}", h.RemoveCartItem)
			r.Post("/checkout", h.Checkout)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/session", h.CreateAdminSession)

			r.Group(func(r chi.Router) {
				r.Use(h.gate.RequireAdmin)
				r.Get("/dashboard", h.GetDashboard)
				r.Post("/refresh", h.Refresh)
				r.Post("/suggestions", h.SuggestDescription)

				r.Put("/products", h.UpsertProduct)
				r.Delete("/products/{id}", h.DeleteRecord(domain.KindProduct))
				r.Post("/products/{id}/featured", h.ToggleFeatured)

				r.Put("/ads", h.UpsertAd)
				r.Delete("/ads/{id}", h.DeleteRecord(domain.KindAd))
				r.Post("/ads/{id}/active", h.ToggleAdActive)

				r.Put("/questions", h.UpsertQuestion)
				r.Delete("/questions/{id}", h.DeleteRecord(domain.KindQuestion))
				r.Post("/questions/{id}/published", h.ToggleQuestionPublished)
				r.Put("/questions/{id}/answer", h.AnswerQuestion)
			})
		})
	})
}
