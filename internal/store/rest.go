package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-service/internal/domain"
)

const restPathPrefix = "/rest/v1/"

// RemoteError is the error body returned by the hosted backend's REST layer.
type RemoteError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("remote %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("remote %d: %s", e.StatusCode, msg)
}

// RESTStore implements Gateway over the hosted backend's PostgREST-style HTTP interface.
type RESTStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRESTStore creates a RESTStore. A nil client gets a default one with a 15s timeout.
func NewRESTStore(baseURL, apiKey string, client *http.Client) *RESTStore {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RESTStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

// Close is a no-op; the http.Client owns no resources that need releasing.
func (s *RESTStore) Close() error { return nil }

func (s *RESTStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows := []productRow{}
	if err := s.list(ctx, "products", &rows); err != nil {
		return nil, fmt.Errorf("store: ListProducts failed: %w", err)
	}
	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}
	return products, nil
}

func (s *RESTStore) ListAds(ctx context.Context) ([]domain.Ad, error) {
	ads := []domain.Ad{}
	if err := s.list(ctx, "ads", &ads); err != nil {
		return nil, fmt.Errorf("store: ListAds failed: %w", err)
	}
	return ads, nil
}

func (s *RESTStore) ListQuestions(ctx context.Context) ([]domain.CommunityQuestion, error) {
	questions := []domain.CommunityQuestion{}
	if err := s.list(ctx, "community_questions", &questions); err != nil {
		return nil, fmt.Errorf("store: ListQuestions failed: %w", err)
	}
	return questions, nil
}

func (s *RESTStore) UpsertProduct(ctx context.Context, product *domain.Product) error {
	if err := ValidateRecord(product); err != nil {
		return err
	}
	if err := s.upsert(ctx, "products", productRowFrom(product)); err != nil {
		return fmt.Errorf("store: UpsertProduct failed: %w", err)
	}
	return nil
}

func (s *RESTStore) UpsertAd(ctx context.Context, ad *domain.Ad) error {
	if err := ValidateRecord(ad); err != nil {
		return err
	}
	if err := s.upsert(ctx, "ads", ad); err != nil {
		return fmt.Errorf("store: UpsertAd failed: %w", err)
	}
	return nil
}

func (s *RESTStore) UpsertQuestion(ctx context.Context, question *domain.CommunityQuestion) error {
	if err := ValidateRecord(question); err != nil {
		return err
	}
	if err := s.upsert(ctx, "community_questions", question); err != nil {
		return fmt.Errorf("store: UpsertQuestion failed: %w", err)
	}
	return nil
}

func (s *RESTStore) Delete(ctx context.Context, kind domain.Kind, id string) error {
	table, err := checkDeleteArgs(kind, id)
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("id", "eq."+id)
	req, err := s.newRequest(ctx, http.MethodDelete, table, q, nil)
	if err != nil {
		return fmt.Errorf("store: Delete %s failed: %w", table, err)
	}
	if err := s.do(req, nil); err != nil {
		return fmt.Errorf("store: Delete %s failed: %w", table, err)
	}
	return nil
}

func (s *RESTStore) list(ctx context.Context, table string, out any) error {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	req, err := s.newRequest(ctx, http.MethodGet, table, q, nil)
	if err != nil {
		return err
	}
	return s.do(req, out)
}

func (s *RESTStore) upsert(ctx context.Context, table string, record any) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	req, err := s.newRequest(ctx, http.MethodPost, table, nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
	return s.do(req, nil)
}

func (s *RESTStore) newRequest(ctx context.Context, method, table string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := s.baseURL + restPathPrefix + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (s *RESTStore) do(req *http.Request, out any) error {
	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		remote := &RemoteError{StatusCode: res.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, remote)
		}
		return remote
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
