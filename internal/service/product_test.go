package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nikotrade/backend/internal/storage"
	"nikotrade/backend/internal/storage/memory"
)

func TestListProductsFallsBackWithoutCatalogBackend(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	svc := NewProductService(store, zap.NewNop())

	products := svc.ListProducts()
	require.NotEmpty(t, products)

	slugs := make(map[string]bool)
	for _, product := range products {
		slugs[product.Slug] = true
		assert.NotEmpty(t, product.Name)
		assert.Greater(t, product.PriceEur, 0.0)
		assert.NotEmpty(t, product.Images)
	}
	assert.True(t, slugs["dinamo-plavi-automiris"])
}

func TestGetProductBySlugFromFallback(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	svc := NewProductService(store, zap.NewNop())

	product, err := svc.GetProductBySlug("sportski-ruksak-team")
	require.NoError(t, err)
	assert.Equal(t, "Sportski Ruksak Team", product.Name)
}

func TestGetProductBySlugUnknown(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	svc := NewProductService(store, zap.NewNop())

	_, err := svc.GetProductBySlug("ne-postoji")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.GetProductBySlug("")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListFeaturedProducts(t *testing.T) {
	store := memory.NewStore(storage.DefaultRetentionPolicy())
	svc := NewProductService(store, zap.NewNop())

	featured := svc.ListFeaturedProducts()
	require.NotEmpty(t, featured)
	for _, product := range featured {
		assert.True(t, product.Featured)
	}
}
