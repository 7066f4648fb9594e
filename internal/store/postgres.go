package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"storefront-service/internal/domain"
)

// PostgresStore implements Gateway by talking straight to the Postgres database behind the
// hosted backend.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens and pings a connection pool for the given DSN.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: OpenPostgres failed to open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: OpenPostgres failed to ping: %w", err)
	}
	return NewPostgresStore(db), nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// --- Products ---

func (s *PostgresStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, title, price, type, category, cover_url, download_url, descricao, created_at, is_featured
		FROM products
		ORDER BY created_at DESC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var (
			p                            domain.Product
			wireType                     string
			category, cover, description sql.NullString
			featured                     sql.NullBool
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Price, &wireType, &category, &cover, &p.DownloadURL,
			&description, &p.CreatedAt, &featured); err != nil {
			return nil, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		p.Type = productTypeFromWire(wireType)
		p.Category = category.String
		p.CoverURL = cover.String
		p.Description = description.String
		p.IsFeatured = featured.Bool
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) UpsertProduct(ctx context.Context, product *domain.Product) error {
	if err := ValidateRecord(product); err != nil {
		return err
	}
	query := `
		INSERT INTO products (id, title, price, type, category, cover_url, download_url, descricao, created_at, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, price = EXCLUDED.price, type = EXCLUDED.type, category = EXCLUDED.category,
			cover_url = EXCLUDED.cover_url, download_url = EXCLUDED.download_url,
			descricao = EXCLUDED.descricao, is_featured = EXCLUDED.is_featured;
	`
	_, err := s.db.ExecContext(ctx, query,
		product.ID, product.Title, product.Price, productTypeToWire(product.Type), product.Category, product.CoverURL,
		product.DownloadURL, product.Description, product.CreatedAt, product.IsFeatured,
	)
	if err != nil {
		return fmt.Errorf("store: UpsertProduct failed: %w", mapPQError(err))
	}
	return nil
}

// --- Ads ---

func (s *PostgresStore) ListAds(ctx context.Context) ([]domain.Ad, error) {
	query := `
		SELECT id, title, image_url, link_url, is_active, created_at
		FROM ads
		ORDER BY created_at DESC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListAds failed to query ads: %w", err)
	}
	defer rows.Close()

	ads := []domain.Ad{}
	for rows.Next() {
		var (
			a    domain.Ad
			link sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.ImageURL, &link, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: ListAds failed to scan ad row: %w", err)
		}
		a.LinkURL = link.String
		ads = append(ads, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListAds iteration error: %w", err)
	}
	return ads, nil
}

func (s *PostgresStore) UpsertAd(ctx context.Context, ad *domain.Ad) error {
	if err := ValidateRecord(ad); err != nil {
		return err
	}
	query := `
		INSERT INTO ads (id, title, image_url, link_url, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, image_url = EXCLUDED.image_url,
			link_url = EXCLUDED.link_url, is_active = EXCLUDED.is_active;
	`
	_, err := s.db.ExecContext(ctx, query, ad.ID, ad.Title, ad.ImageURL, nullIfEmpty(ad.LinkURL), ad.IsActive, ad.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: UpsertAd failed: %w", mapPQError(err))
	}
	return nil
}

// --- Community questions ---

func (s *PostgresStore) ListQuestions(ctx context.Context) ([]domain.CommunityQuestion, error) {
	query := `
		SELECT id, user_name, question, answer, is_published, created_at
		FROM community_questions
		ORDER BY created_at DESC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListQuestions failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []domain.CommunityQuestion{}
	for rows.Next() {
		var (
			q      domain.CommunityQuestion
			answer sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.UserName, &q.Question, &answer, &q.IsPublished, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: ListQuestions failed to scan question row: %w", err)
		}
		q.Answer = answer.String
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListQuestions iteration error: %w", err)
	}
	return questions, nil
}

func (s *PostgresStore) UpsertQuestion(ctx context.Context, question *domain.CommunityQuestion) error {
	if err := ValidateRecord(question); err != nil {
		return err
	}
	query := `
		INSERT INTO community_questions (id, user_name, question, answer, is_published, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			user_name = EXCLUDED.user_name, question = EXCLUDED.question,
			answer = EXCLUDED.answer, is_published = EXCLUDED.is_published;
	`
	_, err := s.db.ExecContext(ctx, query, question.ID, question.UserName, question.Question,
		nullIfEmpty(question.Answer), question.IsPublished, question.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: UpsertQuestion failed: %w", mapPQError(err))
	}
	return nil
}

// --- Delete ---

func (s *PostgresStore) Delete(ctx context.Context, kind domain.Kind, id string) error {
	table, err := checkDeleteArgs(kind, id)
	if err != nil {
		return err
	}
	// table comes from a closed set in domain.Kind.Collection, never from input.
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1;`, pq.QuoteIdentifier(table))
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("store: Delete %s failed to execute delete: %w", table, mapPQError(err))
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// mapPQError turns constraint violations into ErrInvalidRecord so callers can tell a bad row
// from an unreachable backend.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23": // data exception, integrity constraint violation
			return fmt.Errorf("%w: %s", ErrInvalidRecord, pqErr.Message)
		}
	}
	return err
}
