package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pricely/backend/internal/domain"
)

// CatalogRepository implements domain.CatalogRepository
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{pool: db.Pool}
}

const productColumns = `
	p.id, p.name,
	COALESCE(p.brand, ''), COALESCE(p.category, ''),
	COALESCE(p.description, ''), COALESCE(p.image_url, ''),
	COALESCE(p.ean, ''),
	p.created_at, p.updated_at
`

// searchPredicate builds the WHERE clause matching any keyword against
// name, brand, category and description (case-insensitive substring),
// OR-combined across keywords. Placeholders start at $1; the returned
// args line up with them.
func searchPredicate(keywords []string) (string, []any) {
	var clauses []string
	var args []any
	for _, kw := range keywords {
		args = append(args, "%"+escapeLike(kw)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(p.name ILIKE $%d OR p.brand ILIKE $%d OR p.category ILIKE $%d OR p.description ILIKE $%d)",
			n, n, n, n,
		))
	}
	return strings.Join(clauses, " OR "), args
}

// escapeLike neutralizes LIKE metacharacters in user input so a keyword
// like "100%" matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// SearchProducts finds products matching any of the keywords.
func (r *CatalogRepository) SearchProducts(ctx context.Context, keywords []string, limit int) ([]domain.ProductMatch, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	predicate, args := searchPredicate(keywords)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		WHERE %s
		ORDER BY p.name
		LIMIT $%d
	`, productColumns, predicate, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	matches, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachOffers(ctx, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// GetProduct retrieves a single product with its offers
func (r *CatalogRepository) GetProduct(ctx context.Context, id uuid.UUID) (*domain.ProductMatch, error) {
	query := fmt.Sprintf(`SELECT %s FROM products p WHERE p.id = $1`, productColumns)

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	defer rows.Close()

	matches, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, domain.ErrProductNotFound
	}

	if err := r.attachOffers(ctx, matches); err != nil {
		return nil, err
	}
	return &matches[0], nil
}

// ListCheapest returns products having at least one available offer, ordered
// by their cheapest available price, optionally filtered by category.
func (r *CatalogRepository) ListCheapest(ctx context.Context, category string, limit int) ([]domain.ProductMatch, error) {
	var args []any
	categoryFilter := ""
	if category != "" {
		args = append(args, "%"+escapeLike(category)+"%")
		categoryFilter = fmt.Sprintf("AND p.category ILIKE $%d", len(args))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN prices pr ON pr.product_id = p.id AND pr.availability = TRUE
		WHERE TRUE %s
		GROUP BY p.id
		ORDER BY MIN(pr.price) ASC
		LIMIT $%d
	`, productColumns, categoryFilter, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cheapest products: %w", err)
	}
	defer rows.Close()

	matches, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachOffers(ctx, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// attachOffers loads prices joined with stores for the given products, price
// ascending, and resolves each product's best offer.
func (r *CatalogRepository) attachOffers(ctx context.Context, matches []domain.ProductMatch) error {
	if len(matches) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(matches))
	index := make(map[uuid.UUID]*domain.ProductMatch, len(matches))
	for i := range matches {
		ids[i] = matches[i].ID
		index[matches[i].ID] = &matches[i]
	}

	query := `
		SELECT pr.product_id, pr.price, pr.currency, pr.availability, pr.url, pr.scraped_at,
		       s.name, s.domain
		FROM prices pr
		JOIN stores s ON s.id = pr.store_id
		WHERE pr.product_id = ANY($1) AND s.active = TRUE
		ORDER BY pr.price ASC
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID uuid.UUID
		var offer domain.Offer
		if err := rows.Scan(
			&productID,
			&offer.Price,
			&offer.Currency,
			&offer.Availability,
			&offer.URL,
			&offer.ScrapedAt,
			&offer.StoreName,
			&offer.StoreDomain,
		); err != nil {
			return fmt.Errorf("failed to scan price: %w", err)
		}
		if m, ok := index[productID]; ok {
			m.Offers = append(m.Offers, offer)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read prices: %w", err)
	}

	for i := range matches {
		matches[i].ResolveBest()
	}
	return nil
}

func scanProducts(rows pgx.Rows) ([]domain.ProductMatch, error) {
	var matches []domain.ProductMatch
	for rows.Next() {
		var m domain.ProductMatch
		if err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Brand,
			&m.Category,
			&m.Description,
			&m.ImageURL,
			&m.EAN,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return matches, nil
}
