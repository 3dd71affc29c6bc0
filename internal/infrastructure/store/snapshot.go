package store

import (
	"context"
	"fmt"
	"sort"
)

// Keys the tracker state is persisted under, one JSON array each.
const (
	KeyItems   = "resellz_items"
	KeySales   = "resellz_sales"
	KeyHistory = "resellz_history"
)

// Snapshot is the raw persisted state. A nil blob means the key was absent.
type Snapshot struct {
	Items   []byte
	Sales   []byte
	History []byte
}

func (s Snapshot) values() map[string][]byte {
	return map[string][]byte{
		KeyItems:   s.Items,
		KeySales:   s.Sales,
		KeyHistory: s.History,
	}
}

// LoadSnapshot reads all three state keys.
func LoadSnapshot(ctx context.Context, kv KVStore) (Snapshot, error) {
	var snap Snapshot
	for _, slot := range []struct {
		key string
		dst *[]byte
	}{
		{KeyItems, &snap.Items},
		{KeySales, &snap.Sales},
		{KeyHistory, &snap.History},
	} {
		data, ok, err := kv.Get(ctx, slot.key)
		if err != nil {
			return Snapshot{}, fmt.Errorf("get %s: %w", slot.key, err)
		}
		if ok {
			*slot.dst = data
		}
	}
	return snap, nil
}

// SaveSnapshot writes all three state keys, atomically when the backend
// supports it. Otherwise keys are written one by one and the first failure
// stops the rest.
func SaveSnapshot(ctx context.Context, kv KVStore, snap Snapshot) error {
	values := snap.values()
	if batch, ok := kv.(BatchSetter); ok {
		if err := batch.SetMany(ctx, values); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		return nil
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := kv.Set(ctx, key, values[key]); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}
