package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/errors"
	"github.com/pawmart/pawmart-api/internal/metrics"
	"github.com/pawmart/pawmart-api/internal/models"
	"github.com/pawmart/pawmart-api/internal/pricing"
	repository "github.com/pawmart/pawmart-api/internal/repositories"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error)
	ApplyCoupon(ctx context.Context, userID uuid.UUID, req *models.ApplyCouponRequest) (*models.CouponEvaluationResponse, *models.Cart, error)
	RemoveCoupon(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddFreeItems(ctx context.Context, userID uuid.UUID, req *models.AddFreeItemsRequest) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

// freeLineKey namespaces granted free items in the cart map so a free unit
// never collides with a paid line of the same product.
func freeLineKey(productID uuid.UUID) string {
	return "free:" + productID.String()
}

// inflightGuard holds one application slot per user. A second coupon request
// while the first is still running is refused instead of queued, which keeps
// usage counting and the cart state race free.
type inflightGuard struct {
	mu     sync.Mutex
	active map[uuid.UUID]struct{}
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{active: make(map[uuid.UUID]struct{})}
}

func (g *inflightGuard) tryAcquire(userID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[userID]; busy {
		return false
	}

	g.active[userID] = struct{}{}

	return true
}

func (g *inflightGuard) release(userID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.active, userID)
}

type cartService struct {
	repo        repository.CartRepository
	productRepo repository.ProductRepository
	offers      OfferService
	calculator  pricing.Calculator
	guard       *inflightGuard
}

func NewCartService(repo repository.CartRepository, productRepo repository.ProductRepository, offers OfferService, calculator pricing.Calculator) CartService {
	return &cartService{
		repo:        repo,
		productRepo: productRepo,
		offers:      offers,
		calculator:  calculator,
		guard:       newInflightGuard(),
	}
}

// GetCart returns the user's cart, creating an empty one on first touch.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		if !isNotFound(err) {
			return nil, errors.DatabaseError("Failed to fetch cart").WithError(err)
		}

		cart = &models.Cart{
			UserID: userID,
			Items:  make(map[string]models.CartItem),
		}

		if err := s.repo.CreateCart(ctx, cart); err != nil {
			return nil, errors.DatabaseError("Failed to create cart").WithError(err)
		}
	}

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, errors.NotFoundError("Product not found").WithError(err)
	}

	if product.Status != models.ProductStatusActive {
		return nil, errors.BadRequestError("Product is not available")
	}

	key := product.ID.String()
	item, exists := cart.Items[key]

	newQuantity := req.Quantity
	if exists {
		newQuantity += item.Quantity
	}

	if product.StockQuantity < newQuantity {
		return nil, errors.BadRequestError("Not enough stock for the requested quantity")
	}

	cart.Items[key] = models.CartItem{
		ProductID:     product.ID,
		Name:          product.Name,
		Quantity:      newQuantity,
		UnitPrice:     product.Price,
		OriginalPrice: product.OriginalPrice,
		Variant:       product.Variant,
		FoodType:      product.FoodType,
		TotalPrice:    product.Price * float64(newQuantity),
	}

	return s.persist(ctx, cart)
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := req.ProductID.String()

	item, exists := cart.Items[key]
	if !exists {
		return nil, errors.NotFoundError("Product is not in the cart")
	}

	if req.Quantity == 0 {
		delete(cart.Items, key)

		return s.persist(ctx, cart)
	}

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, errors.NotFoundError("Product not found").WithError(err)
	}

	if product.StockQuantity < req.Quantity {
		return nil, errors.BadRequestError("Not enough stock for the requested quantity")
	}

	item.Quantity = req.Quantity
	item.TotalPrice = item.UnitPrice * float64(req.Quantity)
	cart.Items[key] = item

	return s.persist(ctx, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := productID.String()
	if _, exists := cart.Items[key]; !exists {
		return nil, errors.NotFoundError("Product is not in the cart")
	}

	delete(cart.Items, key)

	return s.persist(ctx, cart)
}

// ApplyCoupon evaluates the code against the current cart and, when
// accepted, stores it and reprices. Only one application may be in flight
// per user; a concurrent attempt is refused with a resource-exhausted error.
// A rejected coupon leaves the cart untouched.
func (s *cartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, req *models.ApplyCouponRequest) (*models.CouponEvaluationResponse, *models.Cart, error) {
	if !s.guard.tryAcquire(userID) {
		return nil, nil, errors.ResourceExhaustedError("Another coupon application is already in progress")
	}
	defer s.guard.release(userID)

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	if len(cart.Items) == 0 {
		return nil, nil, errors.BadRequestError("Cannot apply a coupon to an empty cart")
	}

	eval, err := s.offers.Evaluate(ctx, userID, req.CouponCode, cart.Lines())
	if err != nil {
		return nil, nil, err
	}

	if !eval.Accepted {
		return eval, cart, nil
	}

	cart.AppliedCoupon = eval.Offer.CouponCode

	cart, err = s.persistWithDiscount(ctx, cart, eval.DiscountAmount)
	if err != nil {
		return nil, nil, err
	}

	return eval, cart, nil
}

// RemoveCoupon clears the applied code and strips any free lines it granted.
func (s *cartService) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cart.AppliedCoupon == "" {
		return nil, errors.BadRequestError("No coupon is applied to the cart")
	}

	cart.AppliedCoupon = ""
	stripFreeLines(cart)

	return s.persist(ctx, cart)
}

// AddFreeItems commits a Buy-X-Get-Y selection. The chosen products must
// number exactly the offer's GetQuantity and all must be eligible; anything
// less and nothing is added.
func (s *cartService) AddFreeItems(ctx context.Context, userID uuid.UUID, req *models.AddFreeItemsRequest) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cart.AppliedCoupon == "" {
		return nil, errors.BadRequestError("Apply the coupon before choosing free items")
	}

	eval, err := s.offers.Evaluate(ctx, userID, req.CouponCode, cart.Lines())
	if err != nil {
		return nil, err
	}

	if !eval.Accepted || eval.BuyXGetY == nil {
		return nil, errors.BadRequestError("This coupon does not grant free items")
	}

	rule := *eval.BuyXGetY
	if len(req.ProductIDs) != rule.GetQuantity {
		return nil, errors.BadRequestError("Select exactly the number of free items the offer grants")
	}

	products, err := s.productRepo.GetProductsByIDs(ctx, req.ProductIDs)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch free item products").WithError(err)
	}

	gate := pricing.NewSelectionGate()
	if err := gate.Open(rule); err != nil {
		return nil, errors.BadRequestError("This coupon does not grant free items").WithError(err)
	}

	if err := gate.ProductsLoaded(products); err != nil {
		return nil, errors.InternalError("Free item selection failed").WithError(err)
	}

	for _, id := range req.ProductIDs {
		if !gate.Select(id) {
			gate.Cancel()

			return nil, errors.BadRequestError("One or more chosen products are not eligible as free items")
		}
	}

	lines, err := gate.Commit()
	if err != nil {
		return nil, errors.BadRequestError("Free item selection is incomplete").WithError(err)
	}

	// Replace any previously granted free lines so a re-selection does not
	// stack grants.
	stripFreeLines(cart)

	for _, line := range lines {
		cart.Items[freeLineKey(line.ProductID)] = line
	}

	metrics.ObserveFreeItemsGranted(len(lines))

	return s.persistWithDiscount(ctx, cart, eval.DiscountAmount)
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Items = make(map[string]models.CartItem)
	cart.AppliedCoupon = ""

	return s.persist(ctx, cart)
}

// persist reprices the cart and saves it. When a coupon is applied it is
// re-evaluated against the mutated lines; a coupon the cart no longer
// qualifies for is dropped along with its free lines.
func (s *cartService) persist(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	discount := 0.0

	if cart.AppliedCoupon != "" {
		eval, err := s.offers.Evaluate(ctx, cart.UserID, cart.AppliedCoupon, cart.Lines())
		if err != nil {
			return nil, err
		}

		if eval.Accepted {
			discount = eval.DiscountAmount
		} else {
			cart.AppliedCoupon = ""
			stripFreeLines(cart)
		}
	}

	return s.persistWithDiscount(ctx, cart, discount)
}

func (s *cartService) persistWithDiscount(ctx context.Context, cart *models.Cart, discount float64) (*models.Cart, error) {
	totals := s.calculator.Compute(cart.Lines(), discount)

	cart.Subtotal = totals.Subtotal
	cart.Savings = totals.Savings
	cart.DeliveryFee = totals.DeliveryFee
	cart.Discount = totals.Discount
	cart.Total = totals.Total

	if err := s.repo.UpdateCart(ctx, cart); err != nil {
		return nil, errors.DatabaseError("Failed to update cart").WithError(err)
	}

	return cart, nil
}

func stripFreeLines(cart *models.Cart) {
	for key, item := range cart.Items {
		if item.FreeItem {
			delete(cart.Items, key)
		}
	}
}
