package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type ActionType string

const (
	ActionAddItem    ActionType = "ADD_ITEM"
	ActionSellItem   ActionType = "SELL_ITEM"
	ActionUpdateItem ActionType = "UPDATE_ITEM"
	ActionDeleteItem ActionType = "DELETE_ITEM"
)

var (
	ErrUnknownAction   = errors.New("unknown history action type")
	ErrMalformedAction = errors.New("malformed history action")
)

// Payload is the kind-specific part of a HistoryAction. The set of
// implementations is closed: ItemAdded, ItemUpdated, ItemSold, ItemDeleted.
type Payload interface {
	Type() ActionType
	// Subject is the id of the item the action is about.
	Subject() string
	clonePayload() Payload
}

// ItemAdded is recorded by AddItem.
type ItemAdded struct {
	ItemID string
}

// ItemUpdated is recorded by UpdateItem and carries the pre-merge item.
type ItemUpdated struct {
	ItemID   string
	Previous InventoryItem
}

// ItemSold is recorded by SellItem. PreviousVariants is set only when the
// sale replaced the item's variant list.
type ItemSold struct {
	ItemID           string
	SaleID           string
	SoldQuantity     int
	PreviousVariants *[]Variant
}

// ItemDeleted is recorded by DeleteItem with everything needed to restore
// the item and the sales the delete cascaded over.
type ItemDeleted struct {
	Previous     InventoryItem
	RelatedSales []Sale
}

func (ItemAdded) Type() ActionType   { return ActionAddItem }
func (ItemUpdated) Type() ActionType { return ActionUpdateItem }
func (ItemSold) Type() ActionType    { return ActionSellItem }
func (ItemDeleted) Type() ActionType { return ActionDeleteItem }

func (p ItemAdded) Subject() string   { return p.ItemID }
func (p ItemUpdated) Subject() string { return p.ItemID }
func (p ItemSold) Subject() string    { return p.ItemID }
func (p ItemDeleted) Subject() string { return p.Previous.ID }

func (p ItemAdded) clonePayload() Payload { return p }

func (p ItemUpdated) clonePayload() Payload {
	p.Previous = p.Previous.Clone()
	return p
}

func (p ItemSold) clonePayload() Payload {
	if p.PreviousVariants != nil {
		vs := cloneVariants(*p.PreviousVariants)
		p.PreviousVariants = &vs
	}
	return p
}

func (p ItemDeleted) clonePayload() Payload {
	p.Previous = p.Previous.Clone()
	p.RelatedSales = cloneSales(p.RelatedSales)
	return p
}

// HistoryAction is one reversible ledger entry.
type HistoryAction struct {
	ID          string
	Timestamp   time.Time
	Description string
	Payload     Payload
}

func (a HistoryAction) Type() ActionType {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.Type()
}

func (a HistoryAction) ItemID() string {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.Subject()
}

func (a HistoryAction) Clone() HistoryAction {
	if a.Payload != nil {
		a.Payload = a.Payload.clonePayload()
	}
	return a
}

// actionJSON is the persisted shape: header and payload fields side by side.
type actionJSON struct {
	ID                string         `json:"id"`
	Timestamp         time.Time      `json:"timestamp"`
	Type              ActionType     `json:"type"`
	Description       string         `json:"description"`
	ItemID            string         `json:"itemId,omitempty"`
	PreviousItemState *InventoryItem `json:"previousItemState,omitempty"`
	SaleID            string         `json:"saleId,omitempty"`
	SoldQuantity      int            `json:"soldQuantity,omitempty"`
	PreviousVariants  *[]Variant     `json:"previousVariants,omitempty"`
	RelatedSales      []Sale         `json:"relatedSales,omitempty"`
}

func (a HistoryAction) MarshalJSON() ([]byte, error) {
	out := actionJSON{
		ID:          a.ID,
		Timestamp:   a.Timestamp,
		Description: a.Description,
	}
	switch p := a.Payload.(type) {
	case ItemAdded:
		out.Type = ActionAddItem
		out.ItemID = p.ItemID
	case ItemUpdated:
		out.Type = ActionUpdateItem
		out.ItemID = p.ItemID
		prev := p.Previous
		out.PreviousItemState = &prev
	case ItemSold:
		out.Type = ActionSellItem
		out.ItemID = p.ItemID
		out.SaleID = p.SaleID
		out.SoldQuantity = p.SoldQuantity
		out.PreviousVariants = p.PreviousVariants
	case ItemDeleted:
		out.Type = ActionDeleteItem
		out.ItemID = p.Previous.ID
		prev := p.Previous
		out.PreviousItemState = &prev
		out.RelatedSales = p.RelatedSales
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, a.Payload)
	}
	return json.Marshal(out)
}

func (a *HistoryAction) UnmarshalJSON(data []byte) error {
	var in actionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	a.ID = in.ID
	a.Timestamp = in.Timestamp
	a.Description = in.Description

	switch in.Type {
	case ActionAddItem:
		if in.ItemID == "" {
			return fmt.Errorf("%w: %s %s without itemId", ErrMalformedAction, in.Type, in.ID)
		}
		a.Payload = ItemAdded{ItemID: in.ItemID}
	case ActionUpdateItem:
		if in.ItemID == "" || in.PreviousItemState == nil {
			return fmt.Errorf("%w: %s %s without previous state", ErrMalformedAction, in.Type, in.ID)
		}
		a.Payload = ItemUpdated{ItemID: in.ItemID, Previous: *in.PreviousItemState}
	case ActionSellItem:
		if in.ItemID == "" || in.SaleID == "" {
			return fmt.Errorf("%w: %s %s without sale reference", ErrMalformedAction, in.Type, in.ID)
		}
		sold := in.SoldQuantity
		if sold < 1 {
			sold = 1
		}
		a.Payload = ItemSold{
			ItemID:           in.ItemID,
			SaleID:           in.SaleID,
			SoldQuantity:     sold,
			PreviousVariants: in.PreviousVariants,
		}
	case ActionDeleteItem:
		if in.PreviousItemState == nil {
			return fmt.Errorf("%w: %s %s without previous state", ErrMalformedAction, in.Type, in.ID)
		}
		a.Payload = ItemDeleted{Previous: *in.PreviousItemState, RelatedSales: in.RelatedSales}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, in.Type)
	}
	return nil
}
