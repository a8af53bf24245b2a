package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store represents an online shop whose prices we track
type Store struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Domain  string    `json:"domain"`
	LogoURL string    `json:"logo_url,omitempty"`
	Country string    `json:"country"`
	Active  bool      `json:"active"`
}

// Product represents a catalog product
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	EAN         string    `json:"ean,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Price represents one store's offer for a product at a point in time
type Price struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	StoreID      uuid.UUID `json:"store_id"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	Availability bool      `json:"availability"`
	URL          string    `json:"url"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// Offer is a price joined with its store, as shown to the user
type Offer struct {
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	Availability bool      `json:"availability"`
	URL          string    `json:"url"`
	StoreName    string    `json:"store_name"`
	StoreDomain  string    `json:"store_domain,omitempty"`
	ScrapedAt    time.Time `json:"scraped_at"`
}

// ProductMatch is a product enriched with its offers, ordered cheapest first.
// BestPrice is the minimum among available offers, falling back to the
// minimum overall when nothing is in stock.
type ProductMatch struct {
	Product
	Offers     []Offer `json:"offers"`
	BestPrice  *Offer  `json:"best_price,omitempty"`
	OfferCount int     `json:"offer_count"`
}

// ResolveBest fills BestPrice from Offers: the cheapest available offer,
// or the cheapest overall when nothing is in stock. Offers must already be
// sorted by price ascending.
func (m *ProductMatch) ResolveBest() {
	m.OfferCount = len(m.Offers)
	m.BestPrice = nil
	for i := range m.Offers {
		if m.Offers[i].Availability {
			m.BestPrice = &m.Offers[i]
			return
		}
	}
	if len(m.Offers) > 0 {
		m.BestPrice = &m.Offers[0]
	}
}

// CatalogRepository defines read access to stores, products and prices.
// The chat pipeline treats the catalog as read-only; writes happen through
// the seed tool.
type CatalogRepository interface {
	// SearchProducts matches any keyword against name, brand, category and
	// description, case-insensitively, and returns products with their
	// offers sorted by price ascending.
	SearchProducts(ctx context.Context, keywords []string, limit int) ([]ProductMatch, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductMatch, error)
	ListCheapest(ctx context.Context, category string, limit int) ([]ProductMatch, error)
}
