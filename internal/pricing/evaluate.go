package pricing

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/models"
)

// Reason identifies why a coupon was rejected. Callers need the distinction
// for user messaging: a minimum-not-met rejection invites adding more items,
// an expired one invites checking other offers.
type Reason string

const (
	ReasonNotFound       Reason = "NOT_FOUND"
	ReasonInactive       Reason = "INACTIVE"
	ReasonOutOfDateRange Reason = "OUT_OF_DATE_RANGE"
	ReasonBelowMinimum   Reason = "BELOW_MINIMUM"
	ReasonNotApplicable  Reason = "NOT_APPLICABLE"
	ReasonLimitExceeded  Reason = "LIMIT_EXCEEDED"
)

// Message returns the storefront copy for a rejection.
func (r Reason) Message() string {
	switch r {
	case ReasonNotFound:
		return "This coupon code does not exist"
	case ReasonInactive:
		return "This coupon is not active right now"
	case ReasonOutOfDateRange:
		return "This coupon is outside its validity period"
	case ReasonBelowMinimum:
		return "Add more items to your cart to use this coupon"
	case ReasonNotApplicable:
		return "This coupon does not apply to the items in your cart"
	case ReasonLimitExceeded:
		return "This coupon has reached its usage limit"
	default:
		return "This coupon cannot be applied"
	}
}

// Evaluation is the outcome of matching one offer against one cart.
type Evaluation struct {
	Accepted       bool
	DiscountAmount float64
	Offer          *models.Offer
	Reason         Reason
}

func reject(offer *models.Offer, reason Reason) Evaluation {
	return Evaluation{Offer: offer, Reason: reason}
}

// Evaluate checks offer eligibility against the cart lines and computes the
// discount amount. Lookup (NotFound) and usage limits (LimitExceeded) are
// owned by the offer service, which has the repositories; this function is
// pure.
//
// Exclusion semantics: an excluded product never blocks the whole coupon,
// its line value is just removed from the discount base. When the allow-list
// is set, the base is the value of intersecting non-excluded paid lines and
// the coupon is rejected NotApplicable only if that base set is empty.
func Evaluate(offer *models.Offer, now time.Time, lines []models.CartItem) Evaluation {
	if offer.Status != models.OfferStatusActive {
		return reject(offer, ReasonInactive)
	}

	if offer.StartDate != nil && now.Before(*offer.StartDate) {
		return reject(offer, ReasonOutOfDateRange)
	}

	if offer.ExpiryDate != nil && now.After(*offer.ExpiryDate) {
		return reject(offer, ReasonOutOfDateRange)
	}

	var subtotal float64
	for _, line := range lines {
		subtotal += line.UnitPrice * float64(line.Quantity)
	}

	if offer.MinCartValue > 0 && subtotal < offer.MinCartValue {
		return reject(offer, ReasonBelowMinimum)
	}

	base, intersects := discountBase(offer, lines)

	if len(offer.ApplicableProducts) > 0 && !intersects {
		return reject(offer, ReasonNotApplicable)
	}

	var discount float64

	switch offer.DiscountType {
	case models.DiscountTypePercentage:
		discount = base * offer.Value / 100

		if offer.MaxDiscount > 0 && discount > offer.MaxDiscount {
			discount = offer.MaxDiscount
		}
	case models.DiscountTypeFixed:
		discount = offer.Value
		if discount > base {
			discount = base
		}
	}

	// A pure free-item offer carries a zero discount but is still accepted
	// so the caller can open the free-product selection flow.
	return Evaluation{
		Accepted:       true,
		DiscountAmount: discount,
		Offer:          offer,
	}
}

// discountBase sums the line value the discount may apply to. Free lines
// never count; excluded products are dropped; a non-empty allow-list keeps
// only listed products. The second return reports whether any cart line
// intersected the allow-list.
func discountBase(offer *models.Offer, lines []models.CartItem) (float64, bool) {
	excluded := idSet(offer.ExcludedProducts)
	applicable := idSet(offer.ApplicableProducts)

	var base float64

	intersects := false

	for _, line := range lines {
		if line.FreeItem {
			continue
		}

		if _, skip := excluded[line.ProductID]; skip {
			continue
		}

		if len(applicable) > 0 {
			if _, ok := applicable[line.ProductID]; !ok {
				continue
			}

			intersects = true
		}

		base += line.UnitPrice * float64(line.Quantity)
	}

	return base, intersects
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set
}
