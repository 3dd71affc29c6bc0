package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/TeggTTV/resellz/internal/domain/inventory"
	"github.com/TeggTTV/resellz/internal/tracker"
)

var (
	ErrItemNotFound   = errors.New("item not found")
	ErrActionNotFound = errors.New("history entry not found")
	ErrInvalidCommand = errors.New("invalid command")
)

// Tracker is the mutation surface of *tracker.Tracker.
type Tracker interface {
	AddItem(ctx context.Context, c inventory.NewItem, opts ...inventory.MutationOption) (inventory.InventoryItem, inventory.Result, error)
	UpdateItem(ctx context.Context, id string, patch inventory.Patch, opts ...inventory.MutationOption) (inventory.InventoryItem, inventory.Result, error)
	SellItem(ctx context.Context, id string, details inventory.SaleDetails, overrides *inventory.Overrides, opts ...inventory.MutationOption) (inventory.Sale, inventory.Result, error)
	SellVariant(ctx context.Context, id, size string, units int, details inventory.SaleDetails, opts ...inventory.MutationOption) (inventory.Sale, inventory.Result, error)
	DeleteItem(ctx context.Context, id string, opts ...inventory.MutationOption) (inventory.Result, error)
	Undo(ctx context.Context, actionID string) (inventory.HistoryAction, inventory.Result, error)
}

type Handler struct {
	tracker Tracker
}

func NewHandler(t Tracker) *Handler {
	return &Handler{tracker: t}
}

// AddItem creates a new inventory item
func (h *Handler) AddItem(ctx context.Context, cmd AddItem) (inventory.InventoryItem, error) {
	item, res, err := h.tracker.AddItem(ctx, cmd.newItem())
	if err := outcome(res, err, ErrItemNotFound); err != nil {
		return inventory.InventoryItem{}, err
	}
	return item, nil
}

// UpdateItem merges the patch into an existing item
func (h *Handler) UpdateItem(ctx context.Context, cmd UpdateItem) (inventory.InventoryItem, error) {
	item, res, err := h.tracker.UpdateItem(ctx, cmd.ItemID, cmd.Patch)
	if err := outcome(res, err, ErrItemNotFound); err != nil {
		return inventory.InventoryItem{}, err
	}
	return item, nil
}

// SellItem records a sale, either of the item as a whole or of one variant
func (h *Handler) SellItem(ctx context.Context, cmd SellItem) (inventory.Sale, error) {
	var (
		sale inventory.Sale
		res  inventory.Result
		err  error
	)
	if cmd.Variant != "" {
		if cmd.Overrides != nil {
			return inventory.Sale{}, fmt.Errorf("%w: variant and overrides are exclusive", ErrInvalidCommand)
		}
		units := cmd.Units
		if units == 0 {
			units = 1
		}
		sale, res, err = h.tracker.SellVariant(ctx, cmd.ItemID, cmd.Variant, units, cmd.SaleDetails)
	} else {
		sale, res, err = h.tracker.SellItem(ctx, cmd.ItemID, cmd.SaleDetails, cmd.Overrides)
	}
	if err := outcome(res, err, ErrItemNotFound); err != nil {
		return inventory.Sale{}, err
	}
	return sale, nil
}

// DeleteItem removes an item together with its sales
func (h *Handler) DeleteItem(ctx context.Context, cmd DeleteItem) error {
	res, err := h.tracker.DeleteItem(ctx, cmd.ItemID)
	return outcome(res, err, ErrItemNotFound)
}

// Undo reverses a history entry
func (h *Handler) Undo(ctx context.Context, cmd UndoAction) (inventory.HistoryAction, error) {
	action, res, err := h.tracker.Undo(ctx, cmd.ActionID)
	if err := outcome(res, err, ErrActionNotFound); err != nil {
		return inventory.HistoryAction{}, err
	}
	return action, nil
}

// outcome turns a mutation result into an error. Tracker state errors pass
// through unchanged; everything else rejected is an invalid command.
func outcome(res inventory.Result, err error, notFound error) error {
	switch res {
	case inventory.Applied:
		return nil
	case inventory.NotFound:
		return notFound
	}
	if errors.Is(err, tracker.ErrLoading) || errors.Is(err, tracker.ErrClosed) {
		return err
	}
	if err == nil {
		return ErrInvalidCommand
	}
	return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
}
