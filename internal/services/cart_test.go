package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/pawmart-api/internal/config"
	apperrors "github.com/pawmart/pawmart-api/internal/errors"
	"github.com/pawmart/pawmart-api/internal/models"
	"github.com/pawmart/pawmart-api/internal/pricing"
	"github.com/pawmart/pawmart-api/internal/repositories/mocks"
	service "github.com/pawmart/pawmart-api/internal/services"
)

type cartServiceFixture struct {
	svc       service.CartService
	cartRepo  *mocks.CartRepository
	prodRepo  *mocks.ProductRepository
	offerRepo *mocks.OfferRepository
	usageRepo *mocks.OfferUsageRepository
	cache     *mocks.Cache
}

func setupCartServiceTest(t *testing.T) *cartServiceFixture {
	t.Helper()

	f := &cartServiceFixture{
		cartRepo:  new(mocks.CartRepository),
		prodRepo:  new(mocks.ProductRepository),
		offerRepo: new(mocks.OfferRepository),
		usageRepo: new(mocks.OfferUsageRepository),
		cache:     new(mocks.Cache),
	}

	cacheCfg := &config.CacheConfig{DefaultTTL: 10 * time.Minute, OfferTTL: 2 * time.Minute}
	offers := service.NewOfferService(f.offerRepo, f.usageRepo, f.cache, cacheCfg)
	calculator := pricing.NewCalculator(499, 99)

	f.svc = service.NewCartService(f.cartRepo, f.prodRepo, offers, calculator)

	return f
}

func cartWith(userID uuid.UUID, items ...models.CartItem) *models.Cart {
	cart := &models.Cart{
		ID:     uuid.New(),
		UserID: userID,
		Items:  make(map[string]models.CartItem),
	}
	for _, item := range items {
		cart.Items[item.ProductID.String()] = item
	}

	return cart
}

func TestCartServiceAddItem(t *testing.T) {
	ctx := t.Context()
	userID := uuid.New()

	t.Run("Totals recomputed below free delivery threshold", func(t *testing.T) {
		f := setupCartServiceTest(t)

		product := &models.Product{
			ID:            uuid.New(),
			Name:          "Rope Toy",
			Price:         150,
			StockQuantity: 10,
			Status:        models.ProductStatusActive,
		}

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWith(userID), nil)
		f.prodRepo.On("GetProductByID", mock.Anything, product.ID).Return(product, nil)
		f.cartRepo.On("UpdateCart", mock.Anything, mock.AnythingOfType("*models.Cart")).Return(nil)

		cart, err := f.svc.AddItem(ctx, userID, &models.AddItemRequest{ProductID: product.ID, Quantity: 3})

		require.NoError(t, err)
		assert.InDelta(t, 450.0, cart.Subtotal, 0.001)
		assert.InDelta(t, 99.0, cart.DeliveryFee, 0.001, "450 is under the 499 threshold")
		assert.InDelta(t, 549.0, cart.Total, 0.001)
	})

	t.Run("Free delivery at the threshold", func(t *testing.T) {
		f := setupCartServiceTest(t)

		product := &models.Product{
			ID:            uuid.New(),
			Name:          "Salmon Feast 5kg",
			Price:         499,
			StockQuantity: 5,
			Status:        models.ProductStatusActive,
		}

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWith(userID), nil)
		f.prodRepo.On("GetProductByID", mock.Anything, product.ID).Return(product, nil)
		f.cartRepo.On("UpdateCart", mock.Anything, mock.AnythingOfType("*models.Cart")).Return(nil)

		cart, err := f.svc.AddItem(ctx, userID, &models.AddItemRequest{ProductID: product.ID, Quantity: 1})

		require.NoError(t, err)
		assert.Zero(t, cart.DeliveryFee, "exactly 499 qualifies for free delivery")
		assert.InDelta(t, 499.0, cart.Total, 0.001)
	})

	t.Run("Insufficient stock", func(t *testing.T) {
		f := setupCartServiceTest(t)

		product := &models.Product{
			ID:            uuid.New(),
			Name:          "Catnip Mouse",
			Price:         99,
			StockQuantity: 2,
			Status:        models.ProductStatusActive,
		}

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWith(userID), nil)
		f.prodRepo.On("GetProductByID", mock.Anything, product.ID).Return(product, nil)

		cart, err := f.svc.AddItem(ctx, userID, &models.AddItemRequest{ProductID: product.ID, Quantity: 5})

		require.Error(t, err)
		assert.Nil(t, cart)
	})

	t.Run("Inactive product", func(t *testing.T) {
		f := setupCartServiceTest(t)

		product := &models.Product{
			ID:     uuid.New(),
			Name:   "Retired Chew",
			Price:  120,
			Status: models.ProductStatusDiscontinued,
		}

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWith(userID), nil)
		f.prodRepo.On("GetProductByID", mock.Anything, product.ID).Return(product, nil)

		_, err := f.svc.AddItem(ctx, userID, &models.AddItemRequest{ProductID: product.ID, Quantity: 1})

		require.Error(t, err)
	})
}

func TestCartServiceApplyCoupon(t *testing.T) {
	ctx := t.Context()
	userID := uuid.New()

	line := models.CartItem{
		ProductID:  uuid.New(),
		Name:       "Chicken Kibble 5kg",
		Quantity:   1,
		UnitPrice:  1000,
		TotalPrice: 1000,
	}

	t.Run("Accepted coupon reprices the cart", func(t *testing.T) {
		f := setupCartServiceTest(t)
		offer := activeOffer()

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWith(userID, line), nil)
		f.cache.On("Get", mock.Anything, "offer:save20", mock.Anything).Return(false, nil)
		f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.offerRepo.On("GetOfferByCode", mock.Anything, "SAVE20").Return(offer, nil)
		f.usageRepo.On("GetUsage", mock.Anything, offer.ID, userID).Return(0, 0, nil)
		f.cartRepo.On("UpdateCart", mock.Anything, mock.AnythingOfType("*models.Cart")).Return(nil)

		eval, cart, err := f.svc.ApplyCoupon(ctx, userID, &models.ApplyCouponRequest{CouponCode: "SAVE20"})

		require.NoError(t, err)
		assert.True(t, eval.Accepted)
		assert.Equal(t, "SAVE20", cart.AppliedCoupon)
		assert.InDelta(t, 100.0, cart.Discount, 0.001)
		assert.InDelta(t, 900.0, cart.Total, 0.001, "1000 - 100, free delivery above threshold")
	})

	t.Run("Rejected coupon leaves the cart untouched", func(t *testing.T) {
		f := setupCartServiceTest(t)
		offer := activeOffer()
		offer.MinCartValue = 5000

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWith(userID, line), nil)
		f.cache.On("Get", mock.Anything, "offer:save20", mock.Anything).Return(false, nil)
		f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.offerRepo.On("GetOfferByCode", mock.Anything, "SAVE20").Return(offer, nil)
		f.usageRepo.On("GetUsage", mock.Anything, offer.ID, userID).Return(0, 0, nil)

		eval, cart, err := f.svc.ApplyCoupon(ctx, userID, &models.ApplyCouponRequest{CouponCode: "SAVE20"})

		require.NoError(t, err, "a rejection is data, not an error")
		assert.False(t, eval.Accepted)
		assert.Equal(t, string(pricing.ReasonBelowMinimum), eval.Reason)
		assert.Empty(t, cart.AppliedCoupon)
		f.cartRepo.AssertNotCalled(t, "UpdateCart", mock.Anything, mock.Anything)
	})

	t.Run("Empty cart refuses coupons", func(t *testing.T) {
		f := setupCartServiceTest(t)

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWith(userID), nil)

		_, _, err := f.svc.ApplyCoupon(ctx, userID, &models.ApplyCouponRequest{CouponCode: "SAVE20"})

		require.Error(t, err)
	})

	t.Run("Concurrent applications are refused, one wins", func(t *testing.T) {
		f := setupCartServiceTest(t)
		offer := activeOffer()

		release := make(chan struct{})

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).
			Run(func(mock.Arguments) { <-release }).
			Return(cartWith(userID, line), nil)
		f.cache.On("Get", mock.Anything, "offer:save20", mock.Anything).Return(false, nil)
		f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.offerRepo.On("GetOfferByCode", mock.Anything, "SAVE20").Return(offer, nil)
		f.usageRepo.On("GetUsage", mock.Anything, offer.ID, userID).Return(0, 0, nil)
		f.cartRepo.On("UpdateCart", mock.Anything, mock.AnythingOfType("*models.Cart")).Return(nil)

		var wg sync.WaitGroup

		first := make(chan error, 1)

		wg.Add(1)

		go func() {
			defer wg.Done()

			_, _, err := f.svc.ApplyCoupon(ctx, userID, &models.ApplyCouponRequest{CouponCode: "SAVE20"})
			first <- err
		}()

		// Wait until the first application holds the slot, then race a second.
		time.Sleep(50 * time.Millisecond)

		_, _, err := f.svc.ApplyCoupon(ctx, userID, &models.ApplyCouponRequest{CouponCode: "SAVE20"})
		require.Error(t, err)

		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeResourceExhausted, appErr.Code)

		close(release)
		wg.Wait()
		require.NoError(t, <-first, "the first application must complete normally")
	})
}

func TestCartServiceAddFreeItems(t *testing.T) {
	ctx := t.Context()
	userID := uuid.New()

	buyProduct := models.CartItem{
		ProductID:  uuid.New(),
		Name:       "Salmon Treats",
		Quantity:   2,
		UnitPrice:  300,
		TotalPrice: 600,
	}

	freeA := models.Product{ID: uuid.New(), Name: "Squeaky Bone", Price: 149, Status: models.ProductStatusActive}
	freeB := models.Product{ID: uuid.New(), Name: "Feather Wand", Price: 129, Status: models.ProductStatusActive}

	bxgyOffer := func(getQty int) *models.Offer {
		return &models.Offer{
			ID:           uuid.New(),
			CouponCode:   "TREATDAY",
			DiscountType: models.DiscountTypeFixed,
			Status:       models.OfferStatusActive,
			BuyXGetY: &models.BuyXGetY{
				Enabled:     true,
				BuyQuantity: 2,
				GetQuantity: getQty,
				GetProducts: []uuid.UUID{freeA.ID, freeB.ID},
			},
		}
	}

	expectEvaluate := func(f *cartServiceFixture, offer *models.Offer) {
		f.cache.On("Get", mock.Anything, "offer:treatday", mock.Anything).Return(false, nil)
		f.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.offerRepo.On("GetOfferByCode", mock.Anything, "TREATDAY").Return(offer, nil)
		f.usageRepo.On("GetUsage", mock.Anything, offer.ID, userID).Return(0, 0, nil)
	}

	t.Run("Exact selection commits zero-price lines", func(t *testing.T) {
		f := setupCartServiceTest(t)
		offer := bxgyOffer(2)

		cart := cartWith(userID, buyProduct)
		cart.AppliedCoupon = "TREATDAY"

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cart, nil)
		expectEvaluate(f, offer)
		f.prodRepo.On("GetProductsByIDs", mock.Anything, []uuid.UUID{freeA.ID, freeB.ID}).
			Return([]models.Product{freeA, freeB}, nil)
		f.cartRepo.On("UpdateCart", mock.Anything, mock.AnythingOfType("*models.Cart")).Return(nil)

		got, err := f.svc.AddFreeItems(ctx, userID, &models.AddFreeItemsRequest{
			CouponCode: "TREATDAY",
			ProductIDs: []uuid.UUID{freeA.ID, freeB.ID},
		})

		require.NoError(t, err)
		require.Len(t, got.Items, 3, "two free lines plus the paid line")

		freeCount := 0

		for _, item := range got.Items {
			if !item.FreeItem {
				continue
			}

			freeCount++

			assert.Zero(t, item.UnitPrice, "free lines cost nothing")
			require.NotNil(t, item.OriginalPrice)
			assert.Positive(t, *item.OriginalPrice, "catalog price retained for display")
		}

		assert.Equal(t, 2, freeCount)
		assert.InDelta(t, 600.0, got.Subtotal, 0.001, "free lines do not change the subtotal")
	})

	t.Run("Partial selection adds nothing", func(t *testing.T) {
		f := setupCartServiceTest(t)
		offer := bxgyOffer(2)

		cart := cartWith(userID, buyProduct)
		cart.AppliedCoupon = "TREATDAY"

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cart, nil)
		expectEvaluate(f, offer)

		got, err := f.svc.AddFreeItems(ctx, userID, &models.AddFreeItemsRequest{
			CouponCode: "TREATDAY",
			ProductIDs: []uuid.UUID{freeA.ID},
		})

		require.Error(t, err, "one of two is not a complete selection")
		assert.Nil(t, got)
		f.cartRepo.AssertNotCalled(t, "UpdateCart", mock.Anything, mock.Anything)
	})

	t.Run("Ineligible product fails the whole commit", func(t *testing.T) {
		f := setupCartServiceTest(t)
		offer := bxgyOffer(2)
		stranger := models.Product{ID: uuid.New(), Name: "Aquarium Pump", Price: 999}

		cart := cartWith(userID, buyProduct)
		cart.AppliedCoupon = "TREATDAY"

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cart, nil)
		expectEvaluate(f, offer)
		f.prodRepo.On("GetProductsByIDs", mock.Anything, []uuid.UUID{freeA.ID, stranger.ID}).
			Return([]models.Product{freeA, stranger}, nil)

		got, err := f.svc.AddFreeItems(ctx, userID, &models.AddFreeItemsRequest{
			CouponCode: "TREATDAY",
			ProductIDs: []uuid.UUID{freeA.ID, stranger.ID},
		})

		require.Error(t, err)
		assert.Nil(t, got)
		f.cartRepo.AssertNotCalled(t, "UpdateCart", mock.Anything, mock.Anything)
	})

	t.Run("No applied coupon", func(t *testing.T) {
		f := setupCartServiceTest(t)

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWith(userID, buyProduct), nil)

		_, err := f.svc.AddFreeItems(ctx, userID, &models.AddFreeItemsRequest{
			CouponCode: "TREATDAY",
			ProductIDs: []uuid.UUID{freeA.ID},
		})

		require.Error(t, err)
	})
}

func TestCartServiceRemoveCoupon(t *testing.T) {
	ctx := t.Context()
	userID := uuid.New()

	t.Run("Clears coupon and strips free lines", func(t *testing.T) {
		f := setupCartServiceTest(t)

		paid := models.CartItem{ProductID: uuid.New(), Name: "Kibble", Quantity: 1, UnitPrice: 600, TotalPrice: 600}
		catalogPrice := 149.0
		free := models.CartItem{ProductID: uuid.New(), Name: "Squeaky Bone", Quantity: 1, UnitPrice: 0, OriginalPrice: &catalogPrice, FreeItem: true}

		cart := cartWith(userID, paid)
		cart.Items["free:"+free.ProductID.String()] = free
		cart.AppliedCoupon = "TREATDAY"

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cart, nil)
		f.cartRepo.On("UpdateCart", mock.Anything, mock.AnythingOfType("*models.Cart")).Return(nil)

		got, err := f.svc.RemoveCoupon(ctx, userID)

		require.NoError(t, err)
		assert.Empty(t, got.AppliedCoupon)
		assert.Len(t, got.Items, 1, "free lines leave with the coupon")
		assert.Zero(t, got.Discount)
	})

	t.Run("Nothing applied", func(t *testing.T) {
		f := setupCartServiceTest(t)

		f.cartRepo.On("GetCartByUserID", mock.Anything, userID).Return(cartWith(userID), nil)

		_, err := f.svc.RemoveCoupon(ctx, userID)

		require.Error(t, err)
	})
}
