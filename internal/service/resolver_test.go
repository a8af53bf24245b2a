package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pricely/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func match(name string, best float64, available bool) domain.ProductMatch {
	m := domain.ProductMatch{
		Product: domain.Product{Name: name},
		Offers: []domain.Offer{
			{Price: best, Availability: available, StoreName: "TestStore"},
		},
	}
	m.ResolveBest()
	return m
}

func TestResolverService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("skips catalog for general intent", func(t *testing.T) {
		catalog := new(MockCatalogRepository)
		svc := NewResolverService(catalog, 5)

		products, err := svc.Resolve(ctx, domain.Intent{Type: domain.IntentGeneral, Keywords: []string{"hello"}})

		assert.NoError(t, err)
		assert.Empty(t, products)
		catalog.AssertNotCalled(t, "SearchProducts", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("skips catalog without keywords", func(t *testing.T) {
		catalog := new(MockCatalogRepository)
		svc := NewResolverService(catalog, 5)

		products, err := svc.Resolve(ctx, domain.Intent{Type: domain.IntentSearch})

		assert.NoError(t, err)
		assert.Empty(t, products)
		catalog.AssertNotCalled(t, "SearchProducts", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("passes keywords and the widened limit through", func(t *testing.T) {
		catalog := new(MockCatalogRepository)
		catalog.On("SearchProducts", ctx, []string{"laptop"}, 20).
			Return([]domain.ProductMatch{match("Laptop A", 499, true)}, nil)
		svc := NewResolverService(catalog, 5)

		products, err := svc.Resolve(ctx, domain.Intent{Type: domain.IntentSearch, Keywords: []string{"laptop"}})

		assert.NoError(t, err)
		assert.Len(t, products, 1)
		catalog.AssertExpectations(t)
	})

	t.Run("orders matches cheapest first", func(t *testing.T) {
		catalog := new(MockCatalogRepository)
		catalog.On("SearchProducts", ctx, []string{"monitor"}, 20).
			Return([]domain.ProductMatch{
				match("Alpha", 500, true),
				match("Beta", 100, true),
				match("Gamma", 250, true),
			}, nil)
		svc := NewResolverService(catalog, 5)

		products, err := svc.Resolve(ctx, domain.Intent{Type: domain.IntentSearch, Keywords: []string{"monitor"}})

		assert.NoError(t, err)
		if assert.Len(t, products, 3) {
			assert.Equal(t, "Beta", products[0].Name)
			assert.Equal(t, "Gamma", products[1].Name)
			assert.Equal(t, "Alpha", products[2].Name)
		}
	})

	t.Run("matches without offers sort last", func(t *testing.T) {
		catalog := new(MockCatalogRepository)
		noOffers := domain.ProductMatch{Product: domain.Product{Name: "Ghost"}}
		noOffers.ResolveBest()
		catalog.On("SearchProducts", ctx, []string{"speaker"}, 20).
			Return([]domain.ProductMatch{noOffers, match("Priced", 50, true)}, nil)
		svc := NewResolverService(catalog, 5)

		products, err := svc.Resolve(ctx, domain.Intent{Type: domain.IntentSearch, Keywords: []string{"speaker"}})

		assert.NoError(t, err)
		if assert.Len(t, products, 2) {
			assert.Equal(t, "Priced", products[0].Name)
			assert.Equal(t, "Ghost", products[1].Name)
		}
	})

	t.Run("cap applies after the budget filter", func(t *testing.T) {
		catalog := new(MockCatalogRepository)
		catalog.On("SearchProducts", ctx, []string{"keyboard"}, 8).
			Return([]domain.ProductMatch{
				match("Aardvark", 500, true),
				match("Budgie", 100, true),
				match("Civet", 250, true),
				match("Dingo", 90, true),
			}, nil)
		svc := NewResolverService(catalog, 2)

		budget := 300.0
		products, err := svc.Resolve(ctx, domain.Intent{
			Type:     domain.IntentSearch,
			Keywords: []string{"keyboard"},
			Budget:   &budget,
		})

		assert.NoError(t, err)
		// The over-budget Aardvark must not occupy a result slot.
		if assert.Len(t, products, 2) {
			assert.Equal(t, "Dingo", products[0].Name)
			assert.Equal(t, "Budgie", products[1].Name)
		}
	})

	t.Run("budget filters on best price", func(t *testing.T) {
		catalog := new(MockCatalogRepository)
		catalog.On("SearchProducts", ctx, []string{"headphones"}, 20).
			Return([]domain.ProductMatch{
				match("Cheap", 79.99, true),
				match("Exact", 100, true),
				match("Expensive", 149.99, true),
			}, nil)
		svc := NewResolverService(catalog, 5)

		budget := 100.0
		products, err := svc.Resolve(ctx, domain.Intent{
			Type:     domain.IntentSearch,
			Keywords: []string{"headphones"},
			Budget:   &budget,
		})

		assert.NoError(t, err)
		// Boundary is inclusive; over-budget products are dropped outright.
		if assert.Len(t, products, 2) {
			assert.Equal(t, "Cheap", products[0].Name)
			assert.Equal(t, "Exact", products[1].Name)
		}
	})

	t.Run("budget drops products without offers", func(t *testing.T) {
		catalog := new(MockCatalogRepository)
		noOffers := domain.ProductMatch{Product: domain.Product{Name: "Ghost"}}
		noOffers.ResolveBest()
		catalog.On("SearchProducts", ctx, []string{"tv"}, 20).
			Return([]domain.ProductMatch{noOffers, match("Priced", 50, true)}, nil)
		svc := NewResolverService(catalog, 5)

		budget := 60.0
		products, err := svc.Resolve(ctx, domain.Intent{
			Type:     domain.IntentSearch,
			Keywords: []string{"tv"},
			Budget:   &budget,
		})

		assert.NoError(t, err)
		if assert.Len(t, products, 1) {
			assert.Equal(t, "Priced", products[0].Name)
		}
	})

	t.Run("unavailable-only offers still carry a best price", func(t *testing.T) {
		catalog := new(MockCatalogRepository)
		catalog.On("SearchProducts", ctx, []string{"console"}, 20).
			Return([]domain.ProductMatch{match("OutOfStock", 399, false)}, nil)
		svc := NewResolverService(catalog, 5)

		products, err := svc.Resolve(ctx, domain.Intent{Type: domain.IntentSearch, Keywords: []string{"console"}})

		assert.NoError(t, err)
		if assert.Len(t, products, 1) && assert.NotNil(t, products[0].BestPrice) {
			assert.Equal(t, 399.0, products[0].BestPrice.Price)
			assert.False(t, products[0].BestPrice.Availability)
		}
	})

	t.Run("wraps catalog failures", func(t *testing.T) {
		catalog := new(MockCatalogRepository)
		catalog.On("SearchProducts", ctx, []string{"laptop"}, 20).
			Return(nil, errors.New("connection refused"))
		svc := NewResolverService(catalog, 5)

		_, err := svc.Resolve(ctx, domain.Intent{Type: domain.IntentSearch, Keywords: []string{"laptop"}})

		assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	})
}

func TestProductMatch_ResolveBest(t *testing.T) {
	t.Run("prefers cheapest available", func(t *testing.T) {
		m := domain.ProductMatch{
			Offers: []domain.Offer{
				{Price: 10, Availability: false},
				{Price: 12, Availability: true},
				{Price: 15, Availability: true},
			},
		}
		m.ResolveBest()

		if assert.NotNil(t, m.BestPrice) {
			assert.Equal(t, 12.0, m.BestPrice.Price)
		}
		assert.Equal(t, 3, m.OfferCount)
	})

	t.Run("falls back to cheapest overall", func(t *testing.T) {
		m := domain.ProductMatch{
			Offers: []domain.Offer{
				{Price: 10, Availability: false},
				{Price: 12, Availability: false},
			},
		}
		m.ResolveBest()

		if assert.NotNil(t, m.BestPrice) {
			assert.Equal(t, 10.0, m.BestPrice.Price)
		}
	})

	t.Run("nil without offers", func(t *testing.T) {
		m := domain.ProductMatch{}
		m.ResolveBest()

		assert.Nil(t, m.BestPrice)
		assert.Zero(t, m.OfferCount)
	})
}
