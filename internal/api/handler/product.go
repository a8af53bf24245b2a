package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pricely/backend/internal/api/response"
	"github.com/pricely/backend/internal/domain"
	"github.com/pricely/backend/internal/service"
)

// ProductHandler handles catalog browsing endpoints
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Search matches products by a free-text query
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.productService.Search(r.Context(), query, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, products)
}

// Get returns one product with all its offers
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		response.BadRequest(w, "invalid product ID")
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, product)
}

// Cheapest lists the lowest-priced products, optionally per category
func (h *ProductHandler) Cheapest(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.productService.Cheapest(r.Context(), category, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, products)
}

func (h *ProductHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		response.NotFound(w, "product not found")
	case errors.Is(err, domain.ErrCatalogUnavailable):
		response.ServiceUnavailable(w, "product catalog is unavailable")
	default:
		response.InternalError(w, "catalog lookup failed")
	}
}
