package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUnknownVariant = errors.New("variant not found")

// SaleDetails are the money inputs of one transaction.
type SaleDetails struct {
	SalePrice    decimal.Decimal `json:"salePrice"`
	PlatformFees decimal.Decimal `json:"platformFees"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	VariantSold  string          `json:"variantSold,omitempty"`
}

func (d SaleDetails) Validate() error {
	if err := validatePrice("salePrice", d.SalePrice); err != nil {
		return err
	}
	if err := validatePrice("platformFees", d.PlatformFees); err != nil {
		return err
	}
	return validatePrice("shippingCost", d.ShippingCost)
}

// UnitProfit is the profit of a single unit bought at purchasePrice.
func (d SaleDetails) UnitProfit(purchasePrice decimal.Decimal) decimal.Decimal {
	return d.SalePrice.Sub(d.PlatformFees).Sub(d.ShippingCost).Sub(purchasePrice)
}

// Overrides replace the default one-unit decrement of SellItem. Nil fields
// keep the default.
type Overrides struct {
	Quantity     *int       `json:"quantity,omitempty"`
	SoldQuantity *int       `json:"soldQuantity,omitempty"`
	Status       *Status    `json:"status,omitempty"`
	Variants     *[]Variant `json:"variants,omitempty"`
}

func (o Overrides) Validate() error {
	if o.Quantity != nil {
		if err := validateQuantity("overrides.quantity", *o.Quantity); err != nil {
			return err
		}
	}
	if o.SoldQuantity != nil {
		if err := validateQuantity("overrides.soldQuantity", *o.SoldQuantity); err != nil {
			return err
		}
	}
	if o.Status != nil {
		if err := validateStatus("overrides.status", *o.Status); err != nil {
			return err
		}
	}
	if o.Variants != nil {
		return validateVariants(*o.Variants)
	}
	return nil
}

// VariantSaleOverrides computes the overrides for selling units of one
// variant: that variant's stock drops by units (floored at zero), the item
// quantity becomes the new variant total and soldQuantity grows by units.
func VariantSaleOverrides(item InventoryItem, size string, units int) (Overrides, error) {
	if units < 1 {
		return Overrides{}, fmt.Errorf("units: %w", ErrNegativeQuantity)
	}
	if _, ok := item.Variant(size); !ok {
		return Overrides{}, fmt.Errorf("%w: %q", ErrUnknownVariant, size)
	}

	variants := cloneVariants(item.Variants)
	for n := range variants {
		if variants[n].Size != size {
			continue
		}
		variants[n].Quantity -= units
		if variants[n].Quantity < 0 {
			variants[n].Quantity = 0
		}
		break
	}

	qty := VariantQuantity(variants)
	sold := item.SoldQuantity + units
	status := StatusAvailable
	if qty == 0 {
		status = StatusSold
	}
	return Overrides{
		Quantity:     &qty,
		SoldQuantity: &sold,
		Status:       &status,
		Variants:     &variants,
	}, nil
}

// Sale is an immutable record of one transaction. Item is a snapshot of the
// source item taken before the sale, with its quantity normalised to 1.
type Sale struct {
	ID           string          `json:"id"`
	ItemID       string          `json:"itemId"`
	Item         InventoryItem   `json:"item"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	PlatformFees decimal.Decimal `json:"platformFees"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	QuantitySold int             `json:"quantitySold"`
	VariantSold  string          `json:"variantSold,omitempty"`
	DateSold     time.Time       `json:"dateSold"`
	NetProfit    decimal.Decimal `json:"netProfit"`
}

func (s Sale) Clone() Sale {
	s.Item = s.Item.Clone()
	return s
}

// Units is QuantitySold, counting legacy records without it as one unit.
func (s Sale) Units() int {
	if s.QuantitySold < 1 {
		return 1
	}
	return s.QuantitySold
}

// Revenue is the gross amount of the transaction.
func (s Sale) Revenue() decimal.Decimal {
	return s.SalePrice.Mul(decimal.NewFromInt(int64(s.Units())))
}

func cloneSales(sales []Sale) []Sale {
	if sales == nil {
		return nil
	}
	out := make([]Sale, len(sales))
	for n, s := range sales {
		out[n] = s.Clone()
	}
	return out
}
