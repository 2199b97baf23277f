package pricing_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/pawmart-api/internal/models"
	"github.com/pawmart/pawmart-api/internal/pricing"
)

func freebieCatalog(n int) []models.Product {
	products := make([]models.Product, n)
	for i := range products {
		products[i] = models.Product{
			ID:    uuid.New(),
			Name:  "treat",
			Price: 120,
		}
	}

	return products
}

func openedGate(t *testing.T, rule models.BuyXGetY, catalog []models.Product) *pricing.SelectionGate {
	t.Helper()

	gate := pricing.NewSelectionGate()
	require.NoError(t, gate.Open(rule))
	require.Equal(t, pricing.StateProductsLoading, gate.State())
	require.NoError(t, gate.ProductsLoaded(catalog))
	require.Equal(t, pricing.StateSelecting, gate.State())

	return gate
}

func TestSelectionGateFlow(t *testing.T) {
	rule := models.BuyXGetY{Enabled: true, BuyQuantity: 2, GetQuantity: 2}

	t.Run("Full walk to commit", func(t *testing.T) {
		catalog := freebieCatalog(3)
		gate := openedGate(t, rule, catalog)

		assert.True(t, gate.Select(catalog[0].ID))
		assert.Equal(t, pricing.StateSelecting, gate.State(), "one of two picked keeps the gate selecting")

		assert.True(t, gate.Select(catalog[1].ID))
		assert.Equal(t, pricing.StateReady, gate.State(), "exact count reaches ready")

		// Third pick past the limit is a silent no-op.
		assert.False(t, gate.Select(catalog[2].ID))
		assert.Len(t, gate.Selected(), 2)

		lines, err := gate.Commit()
		require.NoError(t, err)
		require.Len(t, lines, 2)

		for _, l := range lines {
			assert.True(t, l.FreeItem)
			assert.Zero(t, l.UnitPrice)
			require.NotNil(t, l.OriginalPrice)
			assert.InEpsilon(t, 120.0, *l.OriginalPrice, 1e-9, "catalog price kept for the savings display")
		}

		assert.Equal(t, pricing.StateClosed, gate.State(), "commit closes the gate")
		assert.Empty(t, gate.Selected())
	})

	t.Run("Partial selection cannot commit", func(t *testing.T) {
		catalog := freebieCatalog(2)
		gate := openedGate(t, rule, catalog)

		gate.Select(catalog[0].ID)

		lines, err := gate.Commit()
		assert.ErrorIs(t, err, pricing.ErrSelectionPartial)
		assert.Nil(t, lines, "no partial commit")
	})

	t.Run("Deselect drops ready back to selecting", func(t *testing.T) {
		catalog := freebieCatalog(2)
		gate := openedGate(t, rule, catalog)

		gate.Select(catalog[0].ID)
		gate.Select(catalog[1].ID)
		require.Equal(t, pricing.StateReady, gate.State())

		gate.Deselect(catalog[1].ID)
		assert.Equal(t, pricing.StateSelecting, gate.State())
		assert.Len(t, gate.Selected(), 1)
	})

	t.Run("Duplicate pick is a no-op", func(t *testing.T) {
		catalog := freebieCatalog(2)
		gate := openedGate(t, rule, catalog)

		assert.True(t, gate.Select(catalog[0].ID))
		assert.False(t, gate.Select(catalog[0].ID))
		assert.Len(t, gate.Selected(), 1)
	})

	t.Run("Cancel from any state", func(t *testing.T) {
		catalog := freebieCatalog(2)
		gate := openedGate(t, rule, catalog)

		gate.Select(catalog[0].ID)
		gate.Cancel()

		assert.Equal(t, pricing.StateClosed, gate.State())

		_, err := gate.Commit()
		assert.ErrorIs(t, err, pricing.ErrGateNotOpen)
	})
}

func TestSelectionGateEligibility(t *testing.T) {
	t.Run("Allow-list filters the catalog", func(t *testing.T) {
		catalog := freebieCatalog(3)
		rule := models.BuyXGetY{
			Enabled:     true,
			BuyQuantity: 1,
			GetQuantity: 1,
			GetProducts: []uuid.UUID{catalog[0].ID},
		}

		gate := openedGate(t, rule, catalog)

		assert.False(t, gate.Select(catalog[1].ID), "product outside the allow-list")
		assert.True(t, gate.Select(catalog[0].ID))
		assert.Equal(t, pricing.StateReady, gate.State())
	})

	t.Run("Open rejects offers without a grant", func(t *testing.T) {
		gate := pricing.NewSelectionGate()

		err := gate.Open(models.BuyXGetY{Enabled: false})
		assert.Error(t, err)
		assert.Equal(t, pricing.StateClosed, gate.State())
	})

	t.Run("Reopen after commit", func(t *testing.T) {
		catalog := freebieCatalog(1)
		rule := models.BuyXGetY{Enabled: true, BuyQuantity: 1, GetQuantity: 1}
		gate := openedGate(t, rule, catalog)

		gate.Select(catalog[0].ID)
		_, err := gate.Commit()
		require.NoError(t, err)
		require.Equal(t, pricing.StateClosed, gate.State())

		assert.NoError(t, gate.Open(rule), "a committed round leaves the gate ready for a fresh one")
	})
}
