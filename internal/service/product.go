package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pricely/backend/internal/domain"
	"github.com/pricely/backend/internal/repository/redis"
	"github.com/rs/zerolog/log"
)

// ProductService exposes direct catalog browsing, outside the chat
// pipeline. Cheapest listings go through a short-lived cache; keyword
// search always hits the database.
type ProductService struct {
	catalogRepo  domain.CatalogRepository
	listingCache *redis.ListingCache
	defaultLimit int
}

// NewProductService creates a new product service
func NewProductService(catalogRepo domain.CatalogRepository, listingCache *redis.ListingCache, defaultLimit int) *ProductService {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	return &ProductService{
		catalogRepo:  catalogRepo,
		listingCache: listingCache,
		defaultLimit: defaultLimit,
	}
}

// Search matches products by keywords split from a free-text query
func (s *ProductService) Search(ctx context.Context, query string, limit int) ([]domain.ProductMatch, error) {
	keywords := strings.Fields(query)
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = s.defaultLimit
	}
	matches, err := s.catalogRepo.SearchProducts(ctx, keywords, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return matches, nil
}

// Get returns a single product with its offers
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*domain.ProductMatch, error) {
	return s.catalogRepo.GetProduct(ctx, id)
}

// Cheapest lists the lowest-priced products, optionally per category
func (s *ProductService) Cheapest(ctx context.Context, category string, limit int) ([]domain.ProductMatch, error) {
	if limit <= 0 || limit > 50 {
		limit = s.defaultLimit
	}

	if s.listingCache != nil {
		cached, err := s.listingCache.Get(ctx, category, limit)
		if err != nil {
			log.Warn().Err(err).Msg("listing cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	matches, err := s.catalogRepo.ListCheapest(ctx, category, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	if s.listingCache != nil {
		if err := s.listingCache.Set(ctx, category, limit, matches); err != nil {
			log.Warn().Err(err).Msg("listing cache write failed")
		}
	}
	return matches, nil
}
