package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/cache"
	"github.com/pawmart/pawmart-api/internal/config"
	"github.com/pawmart/pawmart-api/internal/errors"
	"github.com/pawmart/pawmart-api/internal/metrics"
	"github.com/pawmart/pawmart-api/internal/models"
	"github.com/pawmart/pawmart-api/internal/pricing"
	repository "github.com/pawmart/pawmart-api/internal/repositories"
)

type OfferService interface {
	CreateOffer(ctx context.Context, req *models.CreateOfferRequest) (*models.Offer, error)
	GetOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	UpdateOffer(ctx context.Context, id uuid.UUID, req *models.UpdateOfferRequest) (*models.Offer, error)
	DeleteOffer(ctx context.Context, id uuid.UUID) error
	ListOffers(ctx context.Context, page, pageSize int) ([]models.Offer, int, error)
	Evaluate(ctx context.Context, userID uuid.UUID, code string, lines []models.CartItem) (*models.CouponEvaluationResponse, error)
}

type offerService struct {
	repo      repository.OfferRepository
	usageRepo repository.OfferUsageRepository
	cache     cache.Cache
	cacheCfg  *config.CacheConfig
}

func NewOfferService(repo repository.OfferRepository, usageRepo repository.OfferUsageRepository, cache cache.Cache, cacheCfg *config.CacheConfig) OfferService {
	return &offerService{
		repo:      repo,
		usageRepo: usageRepo,
		cache:     cache,
		cacheCfg:  cacheCfg,
	}
}

func (s *offerService) CreateOffer(ctx context.Context, req *models.CreateOfferRequest) (*models.Offer, error) {
	if err := validateOfferRule(req.DiscountType, req.Value, req.StartDate, req.ExpiryDate, req.BuyXGetY); err != nil {
		return nil, err
	}

	existing, _ := s.repo.GetOfferByCode(ctx, req.CouponCode)
	if existing != nil {
		return nil, errors.DuplicateEntryError("Coupon code already exists")
	}

	offer := &models.Offer{
		CouponCode:         req.CouponCode,
		Description:        req.Description,
		DiscountType:       req.DiscountType,
		Value:              req.Value,
		Status:             req.Status,
		MinCartValue:       req.MinCartValue,
		MaxDiscount:        req.MaxDiscount,
		StartDate:          req.StartDate,
		ExpiryDate:         req.ExpiryDate,
		ApplicableProducts: req.ApplicableProducts,
		ExcludedProducts:   req.ExcludedProducts,
		UsageLimit:         req.UsageLimit,
		PerUserLimit:       req.PerUserLimit,
		BuyXGetY:           req.BuyXGetY,
	}

	if err := s.repo.CreateOffer(ctx, offer); err != nil {
		return nil, errors.DatabaseError("Failed to create offer").WithError(err)
	}

	return offer, nil
}

func (s *offerService) GetOfferByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	offer, err := s.repo.GetOfferByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("Offer not found").WithError(err)
	}

	return offer, nil
}

func (s *offerService) UpdateOffer(ctx context.Context, id uuid.UUID, req *models.UpdateOfferRequest) (*models.Offer, error) {
	offer, err := s.repo.GetOfferByID(ctx, id)
	if err != nil {
		return nil, errors.NotFoundError("Offer not found").WithError(err)
	}

	if req.Description != nil {
		offer.Description = *req.Description
	}

	if req.DiscountType != nil {
		offer.DiscountType = *req.DiscountType
	}

	if req.Value != nil {
		offer.Value = *req.Value
	}

	if req.Status != nil {
		offer.Status = *req.Status
	}

	if req.MinCartValue != nil {
		offer.MinCartValue = *req.MinCartValue
	}

	if req.MaxDiscount != nil {
		offer.MaxDiscount = *req.MaxDiscount
	}

	if req.StartDate != nil {
		offer.StartDate = req.StartDate
	}

	if req.ExpiryDate != nil {
		offer.ExpiryDate = req.ExpiryDate
	}

	if req.ApplicableProducts != nil {
		offer.ApplicableProducts = req.ApplicableProducts
	}

	if req.ExcludedProducts != nil {
		offer.ExcludedProducts = req.ExcludedProducts
	}

	if req.UsageLimit != nil {
		offer.UsageLimit = *req.UsageLimit
	}

	if req.PerUserLimit != nil {
		offer.PerUserLimit = *req.PerUserLimit
	}

	if req.BuyXGetY != nil {
		offer.BuyXGetY = req.BuyXGetY
	}

	if err := validateOfferRule(offer.DiscountType, offer.Value, offer.StartDate, offer.ExpiryDate, offer.BuyXGetY); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateOffer(ctx, offer); err != nil {
		return nil, errors.DatabaseError("Failed to update offer").WithError(err)
	}

	s.invalidate(ctx, offer.CouponCode)

	return offer, nil
}

func (s *offerService) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	offer, err := s.repo.GetOfferByID(ctx, id)
	if err != nil {
		return errors.NotFoundError("Offer not found").WithError(err)
	}

	if err := s.repo.DeleteOffer(ctx, id); err != nil {
		return errors.DatabaseError("Failed to delete offer").WithError(err)
	}

	s.invalidate(ctx, offer.CouponCode)

	return nil
}

func (s *offerService) ListOffers(ctx context.Context, page, pageSize int) ([]models.Offer, int, error) {
	offers, total, err := s.repo.ListOffers(ctx, page, pageSize)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to fetch offers").WithError(err)
	}

	return offers, total, nil
}

// Evaluate resolves a coupon code against the user's cart lines. Every
// rejection is a normal response carrying the reason, never an error; errors
// are reserved for infrastructure failures.
func (s *offerService) Evaluate(ctx context.Context, userID uuid.UUID, code string, lines []models.CartItem) (*models.CouponEvaluationResponse, error) {
	offer, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	if offer == nil {
		metrics.ObserveCouponEvaluation(string(pricing.ReasonNotFound))

		return &models.CouponEvaluationResponse{
			Accepted: false,
			Reason:   string(pricing.ReasonNotFound),
		}, nil
	}

	// Status, date range, minimum and applicability are checked before the
	// usage counters so the structurally earlier rejection wins: an expired
	// coupon that has also hit its limit reports the expiry, not the limit.
	eval := pricing.Evaluate(offer, time.Now(), lines)
	if !eval.Accepted {
		metrics.ObserveCouponEvaluation(string(eval.Reason))

		return &models.CouponEvaluationResponse{
			Accepted: false,
			Reason:   string(eval.Reason),
			Offer:    offer,
		}, nil
	}

	total, byUser, err := s.usageRepo.GetUsage(ctx, offer.ID, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to check coupon usage").WithError(err)
	}

	limited := (offer.UsageLimit > 0 && total >= offer.UsageLimit) ||
		(offer.PerUserLimit > 0 && byUser >= offer.PerUserLimit)
	if limited {
		metrics.ObserveCouponEvaluation(string(pricing.ReasonLimitExceeded))

		return &models.CouponEvaluationResponse{
			Accepted: false,
			Reason:   string(pricing.ReasonLimitExceeded),
			Offer:    offer,
		}, nil
	}

	metrics.ObserveCouponEvaluation("accepted")

	resp := &models.CouponEvaluationResponse{
		Accepted:       true,
		DiscountAmount: eval.DiscountAmount,
		Offer:          offer,
	}

	if offer.BuyXGetY != nil && offer.BuyXGetY.Enabled {
		resp.BuyXGetY = offer.BuyXGetY
	}

	return resp, nil
}

// lookup reads through the offer cache, keyed by lowercased code. A nil
// offer with nil error means the code does not exist.
func (s *offerService) lookup(ctx context.Context, code string) (*models.Offer, error) {
	key := cache.Key(cache.OfferKeyPrefix, strings.ToLower(code))

	var cached models.Offer

	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		slog.WarnContext(ctx, "offer cache read failed", slog.String("error", err.Error()))
	}

	if found {
		return &cached, nil
	}

	offer, err := s.repo.GetOfferByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, errors.DatabaseError("Failed to look up coupon").WithError(err)
	}

	if err := s.cache.Set(ctx, key, offer, s.cacheCfg.OfferTTL); err != nil {
		slog.WarnContext(ctx, "offer cache write failed", slog.String("error", err.Error()))
	}

	return offer, nil
}

func (s *offerService) invalidate(ctx context.Context, code string) {
	if err := s.cache.Delete(ctx, cache.Key(cache.OfferKeyPrefix, strings.ToLower(code))); err != nil {
		slog.WarnContext(ctx, "offer cache invalidation failed", slog.String("error", err.Error()))
	}
}

// validateOfferRule enforces the offer invariants the struct tags cannot:
// percentage values live in [0, 100], the date window must be ordered, and a
// Buy-X-Get-Y rule needs both quantities.
func validateOfferRule(discountType string, value float64, start, expiry *time.Time, rule *models.BuyXGetY) error {
	if discountType == models.DiscountTypePercentage && (value < 0 || value > 100) {
		return errors.ValidationError("Percentage discount must be between 0 and 100")
	}

	if start != nil && expiry != nil && expiry.Before(*start) {
		return errors.ValidationError("Offer expiry date must not precede its start date")
	}

	if rule != nil && rule.Enabled && (rule.BuyQuantity < 1 || rule.GetQuantity < 1) {
		return errors.ValidationError("Buy-X-Get-Y offers need both a buy and a get quantity")
	}

	return nil
}
