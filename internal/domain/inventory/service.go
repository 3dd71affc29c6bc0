package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Result is the outcome of a mutation.
type Result int

const (
	Applied Result = iota
	NotFound
	Rejected
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case NotFound:
		return "not_found"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

type mutationOptions struct {
	skipHistory bool
}

type MutationOption func(*mutationOptions)

// SkipHistory applies a mutation without writing a ledger entry. Undo uses
// it to replay inverses.
func SkipHistory() MutationOption {
	return func(o *mutationOptions) { o.skipHistory = true }
}

func buildOptions(opts []MutationOption) mutationOptions {
	var o mutationOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Service is the mutation engine. It owns the items and sales collections
// and the history ledger. It is not safe for concurrent use.
type Service struct {
	items  []InventoryItem
	sales  []Sale
	ledger *Ledger
	now    func() time.Time
	newID  func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(opts ...Option) *Service {
	s := &Service{
		ledger: NewLedger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore replaces all state, typically with collections loaded from storage.
func (s *Service) Restore(items []InventoryItem, sales []Sale, history []HistoryAction) {
	s.items = make([]InventoryItem, len(items))
	for n, item := range items {
		s.items[n] = item.Clone()
	}
	s.sales = cloneSales(sales)
	if s.sales == nil {
		s.sales = []Sale{}
	}
	s.ledger = NewLedger(history...)
}

func (s *Service) Items() []InventoryItem {
	out := make([]InventoryItem, len(s.items))
	for n, item := range s.items {
		out[n] = item.Clone()
	}
	return out
}

func (s *Service) Sales() []Sale {
	out := cloneSales(s.sales)
	if out == nil {
		out = []Sale{}
	}
	return out
}

// History returns the ledger, newest entry first.
func (s *Service) History() []HistoryAction {
	return s.ledger.Actions()
}

// LastAction returns the newest history entry without copying the ledger.
func (s *Service) LastAction() (HistoryAction, bool) {
	return s.ledger.Latest()
}

// Counts returns the sizes of the items, sales and history collections.
func (s *Service) Counts() (items, sales, history int) {
	return len(s.items), len(s.sales), s.ledger.Len()
}

func (s *Service) Item(id string) (InventoryItem, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return InventoryItem{}, false
	}
	return s.items[idx].Clone(), true
}

func (s *Service) Sale(id string) (Sale, bool) {
	for _, sale := range s.sales {
		if sale.ID == id {
			return sale.Clone(), true
		}
	}
	return Sale{}, false
}

func (s *Service) indexOf(id string) int {
	for n, item := range s.items {
		if item.ID == id {
			return n
		}
	}
	return -1
}

func (s *Service) record(p Payload, description string) {
	s.ledger.Record(HistoryAction{
		ID:          s.newID(),
		Timestamp:   s.now(),
		Description: description,
		Payload:     p,
	})
}

func displayName(name string) string {
	if name == "" {
		return "Unknown Item"
	}
	return name
}

// AddItem creates an item from the candidate and puts it at the front of the
// collection. Candidates that already carry an id keep it; an id already in
// the collection is rejected.
func (s *Service) AddItem(c NewItem, opts ...MutationOption) (InventoryItem, Result, error) {
	if err := c.Validate(); err != nil {
		return InventoryItem{}, Rejected, err
	}
	if c.ID != "" && s.indexOf(c.ID) >= 0 {
		return InventoryItem{}, Rejected, fmt.Errorf("%w: %q", ErrDuplicateID, c.ID)
	}
	o := buildOptions(opts)

	item := InventoryItem{
		ID:            c.ID,
		Name:          c.Name,
		Brand:         c.Brand,
		SKU:           c.SKU,
		Size:          c.Size,
		PurchasePrice: c.PurchasePrice,
		MarketPrice:   c.MarketPrice,
		SoldQuantity:  c.SoldQuantity,
		Status:        c.Status,
		DateAdded:     c.DateAdded,
		Notes:         c.Notes,
		ImageURL:      c.ImageURL,
		BinLocation:   c.BinLocation,
		Variants:      cloneVariants(c.Variants),
	}
	if len(item.Variants) == 0 {
		item.Variants = nil
	}
	if item.ID == "" {
		item.ID = s.newID()
	}
	if item.DateAdded.IsZero() {
		item.DateAdded = s.now()
	}
	if item.Status == "" {
		item.Status = StatusAvailable
	}
	switch {
	case c.Quantity != nil:
		item.Quantity = *c.Quantity
	case item.Variants != nil:
		item.Quantity = VariantQuantity(item.Variants)
	default:
		item.Quantity = 1
	}
	if item.Variants != nil && item.Size == "" {
		item.Size = AggregateSize(item.Variants)
	}

	s.items = append([]InventoryItem{item}, s.items...)

	if !o.skipHistory {
		s.record(ItemAdded{ItemID: item.ID}, "Added item: "+displayName(item.Name))
	}
	return item.Clone(), Applied, nil
}

// UpdateItem shallow-merges patch over the item with the given id.
func (s *Service) UpdateItem(itemID string, patch Patch, opts ...MutationOption) (InventoryItem, Result, error) {
	if err := patch.Validate(); err != nil {
		return InventoryItem{}, Rejected, err
	}
	o := buildOptions(opts)

	idx := s.indexOf(itemID)
	if idx < 0 {
		return InventoryItem{}, NotFound, nil
	}

	previous := s.items[idx].Clone()
	s.items[idx] = patch.applyTo(s.items[idx])

	if !o.skipHistory {
		s.record(ItemUpdated{ItemID: itemID, Previous: previous}, "Updated item: "+displayName(previous.Name))
	}
	return s.items[idx].Clone(), Applied, nil
}

// SellItem records a sale against the item. Without overrides one unit is
// taken off the item; overrides, when given, replace that default.
// Stock is not checked: selling from an empty item is the caller's call.
func (s *Service) SellItem(itemID string, details SaleDetails, overrides *Overrides, opts ...MutationOption) (Sale, Result, error) {
	if err := details.Validate(); err != nil {
		return Sale{}, Rejected, err
	}
	if overrides != nil {
		if err := overrides.Validate(); err != nil {
			return Sale{}, Rejected, err
		}
	}
	o := buildOptions(opts)

	idx := s.indexOf(itemID)
	if idx < 0 {
		return Sale{}, NotFound, nil
	}
	item := s.items[idx]

	newSold := item.SoldQuantity + 1
	newQty := item.Quantity
	newStatus := item.Status
	units := 1
	if item.Quantity > 1 {
		newQty = item.Quantity - 1
	} else {
		newQty = 0
		newStatus = StatusSold
	}

	updated := item.Clone()
	var previousVariants *[]Variant
	if overrides != nil {
		if overrides.Quantity != nil {
			newQty = *overrides.Quantity
		}
		if overrides.SoldQuantity != nil {
			units = max(1, *overrides.SoldQuantity-item.SoldQuantity)
			newSold = *overrides.SoldQuantity
		}
		if overrides.Status != nil {
			newStatus = *overrides.Status
		}
		if overrides.Variants != nil {
			prev := cloneVariants(item.Variants)
			if prev == nil {
				prev = []Variant{}
			}
			previousVariants = &prev
			updated.Variants = cloneVariants(*overrides.Variants)
			if len(updated.Variants) == 0 {
				updated.Variants = nil
			}
		}
	}
	updated.Quantity = newQty
	updated.SoldQuantity = newSold
	updated.Status = newStatus

	snapshot := item.Clone()
	snapshot.Quantity = 1

	sale := Sale{
		ID:           s.newID(),
		ItemID:       itemID,
		Item:         snapshot,
		SalePrice:    details.SalePrice,
		PlatformFees: details.PlatformFees,
		ShippingCost: details.ShippingCost,
		QuantitySold: units,
		VariantSold:  details.VariantSold,
		DateSold:     s.now(),
		NetProfit:    details.UnitProfit(item.PurchasePrice).Mul(decimal.NewFromInt(int64(units))),
	}

	s.items[idx] = updated
	s.sales = append([]Sale{sale}, s.sales...)

	if !o.skipHistory {
		s.record(ItemSold{
			ItemID:           itemID,
			SaleID:           sale.ID,
			SoldQuantity:     units,
			PreviousVariants: previousVariants,
		}, "Sold item: "+displayName(item.Name))
	}
	return sale.Clone(), Applied, nil
}

// DeleteItem removes the item and every sale recorded against it. With
// SkipHistory the sales are cleared even if the item itself is already gone.
func (s *Service) DeleteItem(itemID string, opts ...MutationOption) Result {
	o := buildOptions(opts)

	idx := s.indexOf(itemID)
	if idx < 0 && !o.skipHistory {
		return NotFound
	}

	var related []Sale
	kept := make([]Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if sale.ItemID == itemID {
			related = append(related, sale.Clone())
			continue
		}
		kept = append(kept, sale)
	}
	s.sales = kept

	if idx < 0 {
		return NotFound
	}

	previous := s.items[idx]
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)

	if !o.skipHistory {
		s.record(ItemDeleted{Previous: previous.Clone(), RelatedSales: related}, "Deleted item: "+displayName(previous.Name))
	}
	return Applied
}
