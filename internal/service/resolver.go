package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/pricely/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// searchOverfetch widens the catalog query so the budget filter has
// enough candidates before the result cap applies.
const searchOverfetch = 4

// ResolverService turns an extracted intent into catalog matches.
type ResolverService struct {
	catalogRepo  domain.CatalogRepository
	productLimit int
}

// NewResolverService creates a new resolver service
func NewResolverService(catalogRepo domain.CatalogRepository, productLimit int) *ResolverService {
	if productLimit <= 0 {
		productLimit = 5
	}
	return &ResolverService{
		catalogRepo:  catalogRepo,
		productLimit: productLimit,
	}
}

// Resolve looks up products for an intent. Intents without keywords, and
// intents that don't want products at all, resolve to an empty slice
// without touching the catalog. When a budget is set, only products whose
// best price fits the budget survive. Results are ordered cheapest first
// and capped after the budget filter, so an in-budget product is never
// pushed out by an over-budget one.
func (s *ResolverService) Resolve(ctx context.Context, intent domain.Intent) ([]domain.ProductMatch, error) {
	if !intent.Type.WantsProducts() || len(intent.Keywords) == 0 {
		return nil, nil
	}

	matches, err := s.catalogRepo.SearchProducts(ctx, intent.Keywords, s.productLimit*searchOverfetch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	if intent.Budget != nil {
		matches = filterByBudget(matches, *intent.Budget)
	}

	sortByBestPrice(matches)
	if len(matches) > s.productLimit {
		matches = matches[:s.productLimit]
	}

	log.Debug().
		Strs("keywords", intent.Keywords).
		Int("matches", len(matches)).
		Msg("resolved products")
	return matches, nil
}

// filterByBudget keeps matches whose best price is within budget.
// Matches with no offers at all carry no price and are dropped too.
func filterByBudget(matches []domain.ProductMatch, budget float64) []domain.ProductMatch {
	filtered := matches[:0]
	for _, m := range matches {
		if m.BestPrice != nil && m.BestPrice.Price <= budget {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// sortByBestPrice orders matches cheapest first. Matches without any
// offer sort last, keeping their catalog order among themselves.
func sortByBestPrice(matches []domain.ProductMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		bi, bj := matches[i].BestPrice, matches[j].BestPrice
		if bi == nil {
			return false
		}
		if bj == nil {
			return true
		}
		return bi.Price < bj.Price
	})
}
