package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
)

// UnmarshalJSON decodes an item and folds older field names into the
// canonical schema: "title" becomes name, "image" becomes imageUrl, and a
// missing status is derived from the quantity.
func (i *InventoryItem) UnmarshalJSON(data []byte) error {
	type plain InventoryItem
	var in struct {
		plain
		Title string `json:"title"`
		Image string `json:"image"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*i = InventoryItem(in.plain)
	if i.Name == "" {
		i.Name = in.Title
	}
	if i.ImageURL == "" {
		i.ImageURL = in.Image
	}
	if i.Status == "" {
		i.Status = StatusAvailable
		if i.Quantity <= 0 {
			i.Status = StatusSold
		}
	}
	if i.SoldQuantity < 0 {
		i.SoldQuantity = 0
	}
	if len(i.Variants) == 0 {
		i.Variants = nil
	}
	return nil
}

// DecodeItems decodes a persisted items collection.
func DecodeItems(data []byte) ([]InventoryItem, error) {
	var items []InventoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}

// DecodeSales decodes a persisted sales collection.
func DecodeSales(data []byte) ([]Sale, error) {
	var sales []Sale
	if err := json.Unmarshal(data, &sales); err != nil {
		return nil, fmt.Errorf("decode sales: %w", err)
	}
	return sales, nil
}

// DecodeHistory decodes a persisted ledger. Entries that cannot be turned
// into a known action are skipped and reported in dropped; any other
// decoding problem fails the whole collection.
func DecodeHistory(data []byte) (actions []HistoryAction, dropped []error, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode history: %w", err)
	}

	actions = make([]HistoryAction, 0, len(raw))
	for n, r := range raw {
		var a HistoryAction
		if err := json.Unmarshal(r, &a); err != nil {
			if errors.Is(err, ErrUnknownAction) || errors.Is(err, ErrMalformedAction) {
				dropped = append(dropped, fmt.Errorf("history[%d]: %w", n, err))
				continue
			}
			return nil, nil, fmt.Errorf("decode history[%d]: %w", n, err)
		}
		actions = append(actions, a)
	}
	return actions, dropped, nil
}
