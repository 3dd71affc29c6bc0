package command

import (
	"github.com/TeggTTV/resellz/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// Item Commands

// AddItem carries the client-settable fields of a new item. Id, date added
// and sold quantity are always assigned by the engine.
type AddItem struct {
	Name          string              `json:"name"`
	Brand         string              `json:"brand"`
	SKU           string              `json:"sku"`
	Size          string              `json:"size"`
	PurchasePrice decimal.Decimal     `json:"purchasePrice"`
	MarketPrice   decimal.Decimal     `json:"marketPrice"`
	Quantity      *int                `json:"quantity,omitempty"`
	Status        inventory.Status    `json:"status,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	ImageURL      string              `json:"imageUrl,omitempty"`
	BinLocation   string              `json:"binLocation,omitempty"`
	Variants      []inventory.Variant `json:"variants,omitempty"`
}

func (c AddItem) newItem() inventory.NewItem {
	return inventory.NewItem{
		Name:          c.Name,
		Brand:         c.Brand,
		SKU:           c.SKU,
		Size:          c.Size,
		PurchasePrice: c.PurchasePrice,
		MarketPrice:   c.MarketPrice,
		Quantity:      c.Quantity,
		Status:        c.Status,
		Notes:         c.Notes,
		ImageURL:      c.ImageURL,
		BinLocation:   c.BinLocation,
		Variants:      c.Variants,
	}
}

type UpdateItem struct {
	ItemID string          `json:"-"`
	Patch  inventory.Patch `json:"patch"`
}

// SellItem sells one unit by default. Variant sells Units of that size
// instead; Overrides replace the default decrement of a plain sale.
type SellItem struct {
	ItemID string `json:"-"`
	inventory.SaleDetails
	Variant   string               `json:"variant,omitempty"`
	Units     int                  `json:"units,omitempty"`
	Overrides *inventory.Overrides `json:"overrides,omitempty"`
}

type DeleteItem struct {
	ItemID string `json:"item_id"`
}

// History Commands
type UndoAction struct {
	ActionID string `json:"action_id"`
}
