package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TeggTTV/resellz/internal/activity"
	"github.com/TeggTTV/resellz/internal/domain/inventory"
	"github.com/TeggTTV/resellz/internal/infrastructure/kinesis"
	"github.com/TeggTTV/resellz/internal/infrastructure/store"
	"go.uber.org/zap"
)

// StreamHandler notifies about sales found in DynamoDB stream changes of
// the sales key. Item stock is read from the store at handling time.
type StreamHandler struct {
	handler *Handler
	kv      store.KVStore
	logger  *zap.Logger
}

func NewStreamHandler(handler *Handler, kv store.KVStore, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		handler: handler,
		kv:      kv,
		logger:  logger,
	}
}

// HandleChange ignores changes of other keys.
func (s *StreamHandler) HandleChange(ctx context.Context, change *kinesis.StateChange) error {
	if change == nil || change.Key != store.KeySales {
		return nil
	}

	before, err := decodeSales(change.OldValue)
	if err != nil {
		return fmt.Errorf("old sales: %w", err)
	}
	after, err := decodeSales(change.NewValue)
	if err != nil {
		return fmt.Errorf("new sales: %w", err)
	}

	if len(activity.SaleEvents(before, after, nil)) == 0 {
		return nil
	}

	items, err := s.loadItems(ctx)
	if err != nil {
		return err
	}

	events := activity.SaleEvents(before, after, items)
	s.logger.Debug("Sales change received", zap.Int("new_sales", len(events)))
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", event.ID, err)
		}
		if err := s.handler.HandleEvent(ctx, []byte(event.Key()), data); err != nil {
			return err
		}
	}
	return nil
}

func (s *StreamHandler) loadItems(ctx context.Context) ([]inventory.InventoryItem, error) {
	data, ok, err := s.kv.Get(ctx, store.KeyItems)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return inventory.DecodeItems(data)
}

func decodeSales(data []byte) ([]inventory.Sale, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return inventory.DecodeSales(data)
}
