package service

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"nikotrade/backend/internal/domain"
	"nikotrade/backend/internal/storage"
)

// ErrProductNotFound is returned for slugs unknown to both the database and
// the compiled-in catalog.
var ErrProductNotFound = errors.New("product not found")

// ProductService serves the catalog. The database is authoritative; when the
// active backend carries no products or a query fails, the compiled-in table
// keeps the storefront browsable.
type ProductService struct {
	store storage.Store
	log   *zap.Logger
}

// NewProductService wires the catalog service.
func NewProductService(store storage.Store, log *zap.Logger) *ProductService {
	return &ProductService{store: store, log: log}
}

// ListProducts returns the full catalog.
func (s *ProductService) ListProducts() []domain.Product {
	products, err := s.store.ListProducts()
	if err != nil {
		if !errors.Is(err, storage.ErrProductsUnavailable) {
			s.log.Warn("product query failed, serving fallback catalog", zap.Error(err))
		}
		return domain.FallbackCatalog()
	}
	if len(products) == 0 {
		return domain.FallbackCatalog()
	}
	return products
}

// GetProductBySlug returns one product or ErrProductNotFound.
func (s *ProductService) GetProductBySlug(slug string) (*domain.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrProductNotFound
	}

	product, err := s.store.GetProductBySlug(slug)
	if err == nil {
		return product, nil
	}
	if errors.Is(err, storage.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	if !errors.Is(err, storage.ErrProductsUnavailable) {
		s.log.Warn("product query failed, serving fallback catalog", zap.Error(err))
	}

	for _, fallback := range domain.FallbackCatalog() {
		if fallback.Slug == slug {
			return &fallback, nil
		}
	}
	return nil, ErrProductNotFound
}

// ListFeaturedProducts returns the featured subset, used by the storefront
// landing page.
func (s *ProductService) ListFeaturedProducts() []domain.Product {
	featured := make([]domain.Product, 0)
	for _, product := range s.ListProducts() {
		if product.Featured {
			featured = append(featured, product)
		}
	}
	return featured
}
