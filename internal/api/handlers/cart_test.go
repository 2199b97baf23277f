package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/pawmart-api/internal/api/handlers"
	"github.com/pawmart/pawmart-api/internal/errors"
	"github.com/pawmart/pawmart-api/internal/models"
	servicemocks "github.com/pawmart/pawmart-api/internal/services/mocks"
	"github.com/pawmart/pawmart-api/internal/testutils"
	"github.com/pawmart/pawmart-api/internal/utils/response"
)

func setupCartHandlerTest(t *testing.T) (*handlers.CartHandler, *servicemocks.CartService) {
	t.Helper()

	cartService := new(servicemocks.CartService)

	return handlers.NewCartHandler(cartService), cartService
}

func TestCartHandlerGetCart(t *testing.T) {
	userID := uuid.New()

	t.Run("Returns the user's cart", func(t *testing.T) {
		h, cartService := setupCartHandlerTest(t)

		cartService.On("GetCart", mock.Anything, userID).
			Return(&models.Cart{UserID: userID, Items: map[string]models.CartItem{}}, nil)

		req := testutils.AsUser(testutils.NewJSONRequest(t, http.MethodGet, "/cart", nil), userID, models.RoleCustomer)
		rec := httptest.NewRecorder()

		h.GetCart().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp response.APIResponse
		testutils.DecodeResponse(t, rec, &resp)
		assert.True(t, resp.Success)
	})

	t.Run("Unauthenticated request is refused", func(t *testing.T) {
		h, cartService := setupCartHandlerTest(t)

		req := testutils.NewJSONRequest(t, http.MethodGet, "/cart", nil)
		rec := httptest.NewRecorder()

		h.GetCart().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		cartService.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
	})
}

func TestCartHandlerAddItem(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	t.Run("Adds an item", func(t *testing.T) {
		h, cartService := setupCartHandlerTest(t)

		cartService.On("AddItem", mock.Anything, userID, mock.MatchedBy(func(req *models.AddItemRequest) bool {
			return req.ProductID == productID && req.Quantity == 2
		})).Return(&models.Cart{UserID: userID, Total: 598}, nil)

		body := models.AddItemRequest{ProductID: productID, Quantity: 2}
		req := testutils.AsUser(testutils.NewJSONRequest(t, http.MethodPost, "/cart/items", body), userID, models.RoleCustomer)
		rec := httptest.NewRecorder()

		h.AddItem().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		cartService.AssertExpectations(t)
	})

	t.Run("Zero quantity fails validation", func(t *testing.T) {
		h, cartService := setupCartHandlerTest(t)

		body := models.AddItemRequest{ProductID: productID, Quantity: 0}
		req := testutils.AsUser(testutils.NewJSONRequest(t, http.MethodPost, "/cart/items", body), userID, models.RoleCustomer)
		rec := httptest.NewRecorder()

		h.AddItem().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		cartService.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCartHandlerApplyCoupon(t *testing.T) {
	userID := uuid.New()

	t.Run("Rejection is a 200 with a reason", func(t *testing.T) {
		h, cartService := setupCartHandlerTest(t)

		eval := &models.CouponEvaluationResponse{Accepted: false, Reason: "BELOW_MINIMUM"}
		cart := &models.Cart{UserID: userID, Total: 299}

		cartService.On("ApplyCoupon", mock.Anything, userID, mock.AnythingOfType("*models.ApplyCouponRequest")).
			Return(eval, cart, nil)

		body := models.ApplyCouponRequest{CouponCode: "SAVE20"}
		req := testutils.AsUser(testutils.NewJSONRequest(t, http.MethodPost, "/cart/coupon", body), userID, models.RoleCustomer)
		rec := httptest.NewRecorder()

		h.ApplyCoupon().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				Evaluation models.CouponEvaluationResponse `json:"evaluation"`
			} `json:"data"`
		}
		testutils.DecodeResponse(t, rec, &resp)
		assert.True(t, resp.Success)
		assert.False(t, resp.Data.Evaluation.Accepted)
		assert.Equal(t, "BELOW_MINIMUM", resp.Data.Evaluation.Reason)
	})

	t.Run("Concurrent application maps to 429", func(t *testing.T) {
		h, cartService := setupCartHandlerTest(t)

		cartService.On("ApplyCoupon", mock.Anything, userID, mock.AnythingOfType("*models.ApplyCouponRequest")).
			Return(nil, nil, errors.ResourceExhaustedError("Another coupon application is already in progress"))

		body := models.ApplyCouponRequest{CouponCode: "SAVE20"}
		req := testutils.AsUser(testutils.NewJSONRequest(t, http.MethodPost, "/cart/coupon", body), userID, models.RoleCustomer)
		rec := httptest.NewRecorder()

		h.ApplyCoupon().ServeHTTP(rec, req)

		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		var resp response.APIResponse
		testutils.DecodeResponse(t, rec, &resp)
		require.NotNil(t, resp.Error)
		assert.Equal(t, errors.ErrCodeResourceExhausted, resp.Error.Code)
	})

	t.Run("Missing code fails validation", func(t *testing.T) {
		h, cartService := setupCartHandlerTest(t)

		req := testutils.AsUser(testutils.NewJSONRequest(t, http.MethodPost, "/cart/coupon", models.ApplyCouponRequest{}), userID, models.RoleCustomer)
		rec := httptest.NewRecorder()

		h.ApplyCoupon().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		cartService.AssertNotCalled(t, "ApplyCoupon", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCartHandlerRemoveItem(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	t.Run("Removes by path parameter", func(t *testing.T) {
		h, cartService := setupCartHandlerTest(t)

		cartService.On("RemoveItem", mock.Anything, userID, productID).
			Return(&models.Cart{UserID: userID}, nil)

		req := testutils.AsUser(testutils.NewJSONRequest(t, http.MethodDelete, "/cart/items/"+productID.String(), nil), userID, models.RoleCustomer)
		req.SetPathValue("productId", productID.String())
		rec := httptest.NewRecorder()

		h.RemoveItem().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		cartService.AssertExpectations(t)
	})

	t.Run("Malformed ID is a 400", func(t *testing.T) {
		h, cartService := setupCartHandlerTest(t)

		req := testutils.AsUser(testutils.NewJSONRequest(t, http.MethodDelete, "/cart/items/not-a-uuid", nil), userID, models.RoleCustomer)
		req.SetPathValue("productId", "not-a-uuid")
		rec := httptest.NewRecorder()

		h.RemoveItem().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		cartService.AssertNotCalled(t, "RemoveItem", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCartHandlerAddFreeItems(t *testing.T) {
	userID := uuid.New()

	t.Run("Commits the selection", func(t *testing.T) {
		h, cartService := setupCartHandlerTest(t)

		chosen := []uuid.UUID{uuid.New(), uuid.New()}
		cartService.On("AddFreeItems", mock.Anything, userID, mock.MatchedBy(func(req *models.AddFreeItemsRequest) bool {
			return req.CouponCode == "BUY2GET2" && len(req.ProductIDs) == 2
		})).Return(&models.Cart{UserID: userID}, nil)

		body := models.AddFreeItemsRequest{CouponCode: "BUY2GET2", ProductIDs: chosen}
		req := testutils.AsUser(testutils.NewJSONRequest(t, http.MethodPost, "/cart/free-items", body), userID, models.RoleCustomer)
		rec := httptest.NewRecorder()

		h.AddFreeItems().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		cartService.AssertExpectations(t)
	})

	t.Run("Ineligible selection surfaces the service error", func(t *testing.T) {
		h, cartService := setupCartHandlerTest(t)

		cartService.On("AddFreeItems", mock.Anything, userID, mock.Anything).
			Return(nil, errors.BadRequestError("Product is not eligible as a free item"))

		body := models.AddFreeItemsRequest{CouponCode: "BUY2GET2", ProductIDs: []uuid.UUID{uuid.New()}}
		req := testutils.AsUser(testutils.NewJSONRequest(t, http.MethodPost, "/cart/free-items", body), userID, models.RoleCustomer)
		rec := httptest.NewRecorder()

		h.AddFreeItems().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
