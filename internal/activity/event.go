package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TeggTTV/resellz/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// Publisher delivers events to the feed. *kafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Kind string

const (
	KindApplied Kind = "applied"
	KindUndone  Kind = "undone"
)

// SaleSummary is attached to events of applied sales.
type SaleSummary struct {
	SaleID       string          `json:"saleId"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	NetProfit    decimal.Decimal `json:"netProfit"`
	QuantitySold int             `json:"quantitySold"`
	VariantSold  string          `json:"variantSold,omitempty"`
}

// Event is one entry of the activity feed: a mutation or undo that changed
// tracker state. Item fields describe the item after the change; they are
// empty when the item no longer exists.
type Event struct {
	ID          string               `json:"id"`
	Kind        Kind                 `json:"kind"`
	ActionType  inventory.ActionType `json:"actionType"`
	ActionID    string               `json:"actionId,omitempty"`
	ItemID      string               `json:"itemId"`
	ItemName    string               `json:"itemName,omitempty"`
	ItemStatus  inventory.Status     `json:"itemStatus,omitempty"`
	Quantity    int                  `json:"quantity"`
	Sale        *SaleSummary         `json:"sale,omitempty"`
	Description string               `json:"description"`
	OccurredAt  time.Time            `json:"occurredAt"`
}

// WithItem copies the item's current name, status and stock into the event.
func (e Event) WithItem(item inventory.InventoryItem) Event {
	e.ItemName = item.Name
	e.ItemStatus = item.Status
	e.Quantity = item.Quantity
	return e
}

func (e Event) WithSale(sale inventory.Sale) Event {
	e.Sale = &SaleSummary{
		SaleID:       sale.ID,
		SalePrice:    sale.SalePrice,
		NetProfit:    sale.NetProfit,
		QuantitySold: sale.Units(),
		VariantSold:  sale.VariantSold,
	}
	if e.ItemName == "" {
		e.ItemName = sale.Item.Name
	}
	return e
}

// Key is the partition key: events for one item stay ordered.
func (e Event) Key() string {
	return e.ItemID
}

// SoldOut reports whether an applied sale left the item without stock.
func (e Event) SoldOut() bool {
	return e.Kind == KindApplied && e.ActionType == inventory.ActionSellItem && e.ItemStatus == inventory.StatusSold && e.Quantity == 0
}

func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode activity event: %w", err)
	}
	if e.Kind != KindApplied && e.Kind != KindUndone {
		return Event{}, fmt.Errorf("decode activity event: unknown kind %q", e.Kind)
	}
	return e, nil
}

// SaleEvents builds applied-sale events for the sales present in after but
// not in before. Each event is keyed by its sale id so redelivered changes
// produce the same events. Stock fields come from items when the sold item
// still exists.
func SaleEvents(before, after []inventory.Sale, items []inventory.InventoryItem) []Event {
	seen := make(map[string]struct{}, len(before))
	for _, s := range before {
		seen[s.ID] = struct{}{}
	}
	byID := make(map[string]inventory.InventoryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	var out []Event
	for _, s := range after {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		e := Event{
			ID:         s.ID,
			Kind:       KindApplied,
			ActionType: inventory.ActionSellItem,
			ItemID:     s.ItemID,
			OccurredAt: s.DateSold,
		}
		if item, ok := byID[s.ItemID]; ok {
			e = e.WithItem(item)
		}
		out = append(out, e.WithSale(s))
	}
	return out
}
