package pricing

import (
	"errors"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/models"
)

// SelectionState is the free-product picker's lifecycle:
// Closed → ProductsLoading → Selecting → Ready, then back to Closed on
// commit or cancel.
type SelectionState int

const (
	StateClosed SelectionState = iota
	StateProductsLoading
	StateSelecting
	StateReady
)

func (s SelectionState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateProductsLoading:
		return "products_loading"
	case StateSelecting:
		return "selecting"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

var (
	ErrGateNotOpen      = errors.New("selection gate is not open")
	ErrSelectionPartial = errors.New("free item selection is incomplete")
)

// SelectionGate enforces the Buy-X-Get-Y free-item selection: commit is only
// reachable when exactly GetQuantity products are chosen, and the commit is
// all-or-nothing.
type SelectionGate struct {
	state    SelectionState
	rule     models.BuyXGetY
	eligible map[uuid.UUID]models.Product
	selected map[uuid.UUID]struct{}
}

func NewSelectionGate() *SelectionGate {
	return &SelectionGate{state: StateClosed}
}

func (g *SelectionGate) State() SelectionState {
	return g.state
}

// Open starts the selection flow for an accepted Buy-X-Get-Y offer. Only a
// closed gate can open; a commit closes it again, so each round starts here.
func (g *SelectionGate) Open(rule models.BuyXGetY) error {
	if g.state != StateClosed {
		return errors.New("selection already in progress")
	}

	if !rule.Enabled || rule.GetQuantity < 1 {
		return errors.New("offer has no free item grant")
	}

	g.rule = rule
	g.eligible = nil
	g.selected = make(map[uuid.UUID]struct{})
	g.state = StateProductsLoading

	return nil
}

// ProductsLoaded feeds the fetched catalog into the gate. Products outside
// the offer's GetProducts allow-list are filtered out; an empty allow-list
// admits the whole catalog.
func (g *SelectionGate) ProductsLoaded(catalog []models.Product) error {
	if g.state != StateProductsLoading {
		return ErrGateNotOpen
	}

	allowed := idSet(g.rule.GetProducts)
	g.eligible = make(map[uuid.UUID]models.Product, len(catalog))

	for _, p := range catalog {
		if len(allowed) > 0 {
			if _, ok := allowed[p.ID]; !ok {
				continue
			}
		}

		g.eligible[p.ID] = p
	}

	g.state = StateSelecting

	return nil
}

// Select adds a product to the chosen set. Selecting past GetQuantity, an
// ineligible product, or a duplicate is a no-op, not an error. The gate
// moves to Ready exactly when the selection count reaches GetQuantity.
func (g *SelectionGate) Select(productID uuid.UUID) bool {
	if g.state != StateSelecting {
		return false
	}

	if _, ok := g.eligible[productID]; !ok {
		return false
	}

	if _, dup := g.selected[productID]; dup {
		return false
	}

	if len(g.selected) >= g.rule.GetQuantity {
		return false
	}

	g.selected[productID] = struct{}{}

	if len(g.selected) == g.rule.GetQuantity {
		g.state = StateReady
	}

	return true
}

// Deselect removes a chosen product, dropping the gate back to Selecting
// when it was Ready.
func (g *SelectionGate) Deselect(productID uuid.UUID) {
	if g.state != StateSelecting && g.state != StateReady {
		return
	}

	if _, ok := g.selected[productID]; !ok {
		return
	}

	delete(g.selected, productID)
	g.state = StateSelecting
}

// Selected returns the chosen product IDs.
func (g *SelectionGate) Selected() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.selected))
	for id := range g.selected {
		ids = append(ids, id)
	}

	return ids
}

// Commit produces one zero-price cart line per chosen product, with the
// catalog price kept as OriginalPrice for the savings display. It fails
// unless the gate is Ready, so a partial selection can never commit. A
// successful commit closes the gate.
func (g *SelectionGate) Commit() ([]models.CartItem, error) {
	if g.state != StateReady {
		if g.state == StateSelecting {
			return nil, ErrSelectionPartial
		}

		return nil, ErrGateNotOpen
	}

	lines := make([]models.CartItem, 0, len(g.selected))

	for id := range g.selected {
		product := g.eligible[id]
		catalogPrice := product.Price

		lines = append(lines, models.CartItem{
			ProductID:     product.ID,
			Name:          product.Name,
			Quantity:      1,
			UnitPrice:     0,
			OriginalPrice: &catalogPrice,
			Variant:       product.Variant,
			FoodType:      product.FoodType,
			FreeItem:      true,
			TotalPrice:    0,
		})
	}

	g.state = StateClosed
	g.selected = nil
	g.eligible = nil

	return lines, nil
}

// Cancel closes the gate from any state without side effects.
func (g *SelectionGate) Cancel() {
	g.state = StateClosed
	g.selected = nil
	g.eligible = nil
}
