package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MultipleSizes is the display size of an item whose variants span more than one size.
const MultipleSizes = "Multiple"

var (
	ErrNegativePrice    = errors.New("price must not be negative")
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrInvalidStatus    = errors.New("unknown item status")
	ErrDuplicateID      = errors.New("item id already exists")
)

type Status string

const (
	StatusAvailable Status = "Available"
	StatusSold      Status = "Sold"
	// StatusPending is reserved; the engine never sets it.
	StatusPending Status = "Pending"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusSold, StatusPending:
		return true
	}
	return false
}

func validateStatus(field string, s Status) error {
	if !s.Valid() {
		return fmt.Errorf("%s %q: %w", field, s, ErrInvalidStatus)
	}
	return nil
}

// Variant is a size-specific slice of an item's stock. Nil prices fall back
// to the owning item's prices.
type Variant struct {
	Size          string           `json:"size"`
	Quantity      int              `json:"quantity"`
	MarketPrice   *decimal.Decimal `json:"marketPrice,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice,omitempty"`
}

// EffectiveMarketPrice returns the variant override or the item price.
func (v Variant) EffectiveMarketPrice(item InventoryItem) decimal.Decimal {
	if v.MarketPrice != nil {
		return *v.MarketPrice
	}
	return item.MarketPrice
}

// EffectivePurchasePrice returns the variant override or the item price.
func (v Variant) EffectivePurchasePrice(item InventoryItem) decimal.Decimal {
	if v.PurchasePrice != nil {
		return *v.PurchasePrice
	}
	return item.PurchasePrice
}

type InventoryItem struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	SKU           string          `json:"sku"`
	Size          string          `json:"size"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	MarketPrice   decimal.Decimal `json:"marketPrice"`
	Quantity      int             `json:"quantity"`
	SoldQuantity  int             `json:"soldQuantity"`
	Status        Status          `json:"status"`
	DateAdded     time.Time       `json:"dateAdded"`
	Notes         string          `json:"notes,omitempty"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	BinLocation   string          `json:"binLocation,omitempty"`
	Variants      []Variant       `json:"variants,omitempty"`
}

// Clone returns a deep copy; variant slices and price pointers are not shared.
func (i InventoryItem) Clone() InventoryItem {
	i.Variants = cloneVariants(i.Variants)
	return i
}

// TotalUnits is the lifetime stock of the item: what is left plus what was sold.
func (i InventoryItem) TotalUnits() int {
	return i.Quantity + i.SoldQuantity
}

// Variant looks up a variant by size.
func (i InventoryItem) Variant(size string) (Variant, bool) {
	for _, v := range i.Variants {
		if v.Size == size {
			return v, true
		}
	}
	return Variant{}, false
}

func cloneVariants(vs []Variant) []Variant {
	if vs == nil {
		return nil
	}
	out := make([]Variant, len(vs))
	for n, v := range vs {
		if v.MarketPrice != nil {
			p := *v.MarketPrice
			v.MarketPrice = &p
		}
		if v.PurchasePrice != nil {
			p := *v.PurchasePrice
			v.PurchasePrice = &p
		}
		out[n] = v
	}
	return out
}

// VariantQuantity sums the stock across variants.
func VariantQuantity(vs []Variant) int {
	total := 0
	for _, v := range vs {
		total += v.Quantity
	}
	return total
}

// AggregateSize is the display size for a variant list: the sole distinct
// size, MultipleSizes when there are several, or "" when there are none.
func AggregateSize(vs []Variant) string {
	if len(vs) == 0 {
		return ""
	}
	first := vs[0].Size
	for _, v := range vs[1:] {
		if v.Size != first {
			return MultipleSizes
		}
	}
	return first
}

func validatePrice(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%s: %w", field, ErrNegativePrice)
	}
	return nil
}

func validateQuantity(field string, q int) error {
	if q < 0 {
		return fmt.Errorf("%s: %w", field, ErrNegativeQuantity)
	}
	return nil
}

func validateVariants(vs []Variant) error {
	for n, v := range vs {
		if err := validateQuantity(fmt.Sprintf("variants[%d].quantity", n), v.Quantity); err != nil {
			return err
		}
		if v.MarketPrice != nil {
			if err := validatePrice(fmt.Sprintf("variants[%d].marketPrice", n), *v.MarketPrice); err != nil {
				return err
			}
		}
		if v.PurchasePrice != nil {
			if err := validatePrice(fmt.Sprintf("variants[%d].purchasePrice", n), *v.PurchasePrice); err != nil {
				return err
			}
		}
	}
	return nil
}

// NewItem is the candidate accepted by Service.AddItem. ID and DateAdded are
// normally left empty; they are only carried when an item is being restored.
type NewItem struct {
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand"`
	SKU           string          `json:"sku"`
	Size          string          `json:"size"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	MarketPrice   decimal.Decimal `json:"marketPrice"`
	Quantity      *int            `json:"quantity,omitempty"`
	SoldQuantity  int             `json:"soldQuantity"`
	Status        Status          `json:"status,omitempty"`
	DateAdded     time.Time       `json:"dateAdded,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	BinLocation   string          `json:"binLocation,omitempty"`
	Variants      []Variant       `json:"variants,omitempty"`
}

func (c NewItem) Validate() error {
	if err := validatePrice("purchasePrice", c.PurchasePrice); err != nil {
		return err
	}
	if err := validatePrice("marketPrice", c.MarketPrice); err != nil {
		return err
	}
	if c.Quantity != nil {
		if err := validateQuantity("quantity", *c.Quantity); err != nil {
			return err
		}
	}
	if err := validateQuantity("soldQuantity", c.SoldQuantity); err != nil {
		return err
	}
	if c.Status != "" {
		if err := validateStatus("status", c.Status); err != nil {
			return err
		}
	}
	return validateVariants(c.Variants)
}

// CandidateFrom turns a full item back into a candidate that AddItem will
// reproduce exactly, id and timestamps included.
func CandidateFrom(item InventoryItem) NewItem {
	qty := item.Quantity
	status := item.Status
	if !status.Valid() {
		status = ""
	}
	return NewItem{
		ID:            item.ID,
		Name:          item.Name,
		Brand:         item.Brand,
		SKU:           item.SKU,
		Size:          item.Size,
		PurchasePrice: item.PurchasePrice,
		MarketPrice:   item.MarketPrice,
		Quantity:      &qty,
		SoldQuantity:  item.SoldQuantity,
		Status:        status,
		DateAdded:     item.DateAdded,
		Notes:         item.Notes,
		ImageURL:      item.ImageURL,
		BinLocation:   item.BinLocation,
		Variants:      cloneVariants(item.Variants),
	}
}

// Patch is a shallow update. Nil fields are left untouched.
type Patch struct {
	Name          *string          `json:"name,omitempty"`
	Brand         *string          `json:"brand,omitempty"`
	SKU           *string          `json:"sku,omitempty"`
	Size          *string          `json:"size,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice,omitempty"`
	MarketPrice   *decimal.Decimal `json:"marketPrice,omitempty"`
	Quantity      *int             `json:"quantity,omitempty"`
	SoldQuantity  *int             `json:"soldQuantity,omitempty"`
	Status        *Status          `json:"status,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	ImageURL      *string          `json:"imageUrl,omitempty"`
	BinLocation   *string          `json:"binLocation,omitempty"`
	Variants      *[]Variant       `json:"variants,omitempty"`
}

func (p Patch) Validate() error {
	if p.PurchasePrice != nil {
		if err := validatePrice("purchasePrice", *p.PurchasePrice); err != nil {
			return err
		}
	}
	if p.MarketPrice != nil {
		if err := validatePrice("marketPrice", *p.MarketPrice); err != nil {
			return err
		}
	}
	if p.Quantity != nil {
		if err := validateQuantity("quantity", *p.Quantity); err != nil {
			return err
		}
	}
	if p.SoldQuantity != nil {
		if err := validateQuantity("soldQuantity", *p.SoldQuantity); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if err := validateStatus("status", *p.Status); err != nil {
			return err
		}
	}
	if p.Variants != nil {
		return validateVariants(*p.Variants)
	}
	return nil
}

// IsEmpty reports whether the patch sets no field at all.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// applyTo merges the patch over item. A patch that replaces the variants
// without naming a quantity re-derives quantity (and size, if not named)
// from the new variant list.
func (p Patch) applyTo(item InventoryItem) InventoryItem {
	out := item.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Brand != nil {
		out.Brand = *p.Brand
	}
	if p.SKU != nil {
		out.SKU = *p.SKU
	}
	if p.Size != nil {
		out.Size = *p.Size
	}
	if p.PurchasePrice != nil {
		out.PurchasePrice = *p.PurchasePrice
	}
	if p.MarketPrice != nil {
		out.MarketPrice = *p.MarketPrice
	}
	if p.Quantity != nil {
		out.Quantity = *p.Quantity
	}
	if p.SoldQuantity != nil {
		out.SoldQuantity = *p.SoldQuantity
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if p.ImageURL != nil {
		out.ImageURL = *p.ImageURL
	}
	if p.BinLocation != nil {
		out.BinLocation = *p.BinLocation
	}
	if p.Variants != nil {
		out.Variants = cloneVariants(*p.Variants)
		if len(out.Variants) == 0 {
			out.Variants = nil
		}
		if p.Quantity == nil && len(out.Variants) > 0 {
			out.Quantity = VariantQuantity(out.Variants)
		}
		if p.Size == nil && len(out.Variants) > 0 {
			out.Size = AggregateSize(out.Variants)
		}
	}
	return out
}

// FullPatch builds a patch that overwrites every mutable field of the
// target with the values of item.
func FullPatch(item InventoryItem) Patch {
	item = item.Clone()
	variants := item.Variants
	if variants == nil {
		variants = []Variant{}
	}
	p := Patch{
		Name:          &item.Name,
		Brand:         &item.Brand,
		SKU:           &item.SKU,
		Size:          &item.Size,
		PurchasePrice: &item.PurchasePrice,
		MarketPrice:   &item.MarketPrice,
		Quantity:      &item.Quantity,
		SoldQuantity:  &item.SoldQuantity,
		Status:        &item.Status,
		Notes:         &item.Notes,
		ImageURL:      &item.ImageURL,
		BinLocation:   &item.BinLocation,
		Variants:      &variants,
	}
	// Unknown statuses can only come from hand-edited storage.
	if !item.Status.Valid() {
		p.Status = nil
	}
	return p
}
