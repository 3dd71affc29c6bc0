package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/TeggTTV/resellz/internal/activity"
	"github.com/TeggTTV/resellz/internal/domain/inventory"
	"github.com/TeggTTV/resellz/internal/infrastructure/store"
	"github.com/TeggTTV/resellz/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrLoading = errors.New("tracker is still loading")
	ErrClosed  = errors.New("tracker is closed")
)

// Tracker wraps the mutation engine with durable storage. It starts in the
// loading state; mutations are refused until Load has restored the persisted
// collections. Every applied change is written back to the store.
type Tracker struct {
	mu        sync.Mutex
	engine    *inventory.Service
	kv        store.KVStore
	logger    *zap.Logger
	publisher activity.Publisher
	metrics   *metrics.Collector
	now       func() time.Time
	newID     func() string

	loading    bool
	dirty      bool
	closed     bool
	persistErr error
}

type Option func(*Tracker)

// WithPublisher sends an activity event for every applied change.
func WithPublisher(p activity.Publisher) Option {
	return func(t *Tracker) { t.publisher = p }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(t *Tracker) { t.metrics = c }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

func New(kv store.KVStore, logger *zap.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		kv:      kv,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
		loading: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.engine = inventory.NewService(
		inventory.WithClock(t.now),
		inventory.WithIDGenerator(t.newID),
	)
	return t
}

// Load restores the three persisted collections. Absent keys load as empty
// collections; history entries of unknown shape are skipped with a warning.
// Calling Load on a loaded tracker does nothing.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	if !t.loading {
		return nil
	}

	snap, err := store.LoadSnapshot(ctx, t.kv)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	var (
		items   []inventory.InventoryItem
		sales   []inventory.Sale
		history []inventory.HistoryAction
		dropped []error
	)
	if snap.Items != nil {
		if items, err = inventory.DecodeItems(snap.Items); err != nil {
			return fmt.Errorf("%s: %w", store.KeyItems, err)
		}
	}
	if snap.Sales != nil {
		if sales, err = inventory.DecodeSales(snap.Sales); err != nil {
			return fmt.Errorf("%s: %w", store.KeySales, err)
		}
	}
	if snap.History != nil {
		if history, dropped, err = inventory.DecodeHistory(snap.History); err != nil {
			return fmt.Errorf("%s: %w", store.KeyHistory, err)
		}
	}
	for _, d := range dropped {
		t.logger.Warn("Skipping unreadable history entry", zap.Error(d))
	}

	t.engine.Restore(items, sales, history)
	t.loading = false
	t.metrics.Sizes(t.engine.Counts())

	n, s, h := t.engine.Counts()
	t.logger.Info("Tracker loaded",
		zap.Int("items", n),
		zap.Int("sales", s),
		zap.Int("history", h),
		zap.Int("history_dropped", len(dropped)),
	)
	return nil
}

func (t *Tracker) IsLoading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// PersistErr returns the error of the last failed write, or nil once a
// later write has succeeded.
func (t *Tracker) PersistErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.persistErr
}

func (t *Tracker) Items() []inventory.InventoryItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.Items()
}

func (t *Tracker) Sales() []inventory.Sale {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.Sales()
}

func (t *Tracker) History() []inventory.HistoryAction {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.History()
}

func (t *Tracker) Item(id string) (inventory.InventoryItem, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.Item(id)
}

// ReadModel returns items and sales from the same point in time.
func (t *Tracker) ReadModel() ([]inventory.InventoryItem, []inventory.Sale) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.Items(), t.engine.Sales()
}

func (t *Tracker) AddItem(ctx context.Context, c inventory.NewItem, opts ...inventory.MutationOption) (inventory.InventoryItem, inventory.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return inventory.InventoryItem{}, inventory.Rejected, err
	}

	before := t.historyLen()
	item, res, err := t.engine.AddItem(c, opts...)
	t.metrics.Mutation(string(inventory.ActionAddItem), res.String())
	if res != inventory.Applied {
		return item, res, err
	}

	t.commit(ctx)
	t.publish(ctx, t.event(activity.KindApplied, inventory.ActionAddItem, item.ID, before).WithItem(item))
	return item, res, nil
}

func (t *Tracker) UpdateItem(ctx context.Context, id string, patch inventory.Patch, opts ...inventory.MutationOption) (inventory.InventoryItem, inventory.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return inventory.InventoryItem{}, inventory.Rejected, err
	}

	before := t.historyLen()
	item, res, err := t.engine.UpdateItem(id, patch, opts...)
	t.metrics.Mutation(string(inventory.ActionUpdateItem), res.String())
	if res != inventory.Applied {
		return item, res, err
	}

	t.commit(ctx)
	t.publish(ctx, t.event(activity.KindApplied, inventory.ActionUpdateItem, id, before).WithItem(item))
	return item, res, nil
}

func (t *Tracker) SellItem(ctx context.Context, id string, details inventory.SaleDetails, overrides *inventory.Overrides, opts ...inventory.MutationOption) (inventory.Sale, inventory.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return inventory.Sale{}, inventory.Rejected, err
	}
	return t.sellLocked(ctx, id, details, overrides, opts...)
}

// SellVariant sells units of one size of a variant item. The variant's stock
// and the item totals are adjusted together, under the same lock as the sale.
func (t *Tracker) SellVariant(ctx context.Context, id, size string, units int, details inventory.SaleDetails, opts ...inventory.MutationOption) (inventory.Sale, inventory.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return inventory.Sale{}, inventory.Rejected, err
	}
	item, ok := t.engine.Item(id)
	if !ok {
		return inventory.Sale{}, inventory.NotFound, nil
	}
	overrides, err := inventory.VariantSaleOverrides(item, size, units)
	if err != nil {
		return inventory.Sale{}, inventory.Rejected, err
	}
	details.VariantSold = size
	return t.sellLocked(ctx, id, details, &overrides, opts...)
}

// sellLocked requires t.mu.
func (t *Tracker) sellLocked(ctx context.Context, id string, details inventory.SaleDetails, overrides *inventory.Overrides, opts ...inventory.MutationOption) (inventory.Sale, inventory.Result, error) {
	before := t.historyLen()
	sale, res, err := t.engine.SellItem(id, details, overrides, opts...)
	t.metrics.Mutation(string(inventory.ActionSellItem), res.String())
	if res != inventory.Applied {
		return sale, res, err
	}

	t.commit(ctx)
	e := t.event(activity.KindApplied, inventory.ActionSellItem, id, before)
	if item, ok := t.engine.Item(id); ok {
		e = e.WithItem(item)
	}
	t.publish(ctx, e.WithSale(sale))
	return sale, res, nil
}

func (t *Tracker) DeleteItem(ctx context.Context, id string, opts ...inventory.MutationOption) (inventory.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return inventory.Rejected, err
	}

	before := t.historyLen()
	_, salesBefore, _ := t.engine.Counts()
	res := t.engine.DeleteItem(id, opts...)
	t.metrics.Mutation(string(inventory.ActionDeleteItem), res.String())
	_, salesAfter, _ := t.engine.Counts()
	if res != inventory.Applied {
		// a skipped-history delete may still have cleared orphaned sales
		if salesAfter != salesBefore {
			t.commit(ctx)
		}
		return res, nil
	}

	t.commit(ctx)
	t.publish(ctx, t.event(activity.KindApplied, inventory.ActionDeleteItem, id, before))
	return res, nil
}

// Undo reverses a history entry. Unknown ids return NotFound.
func (t *Tracker) Undo(ctx context.Context, actionID string) (inventory.HistoryAction, inventory.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ready(); err != nil {
		return inventory.HistoryAction{}, inventory.Rejected, err
	}

	action, res, err := t.engine.Undo(actionID)
	t.metrics.Undo(string(action.Type()), res.String())
	if res != inventory.Applied {
		return action, res, err
	}

	t.commit(ctx)
	e := activity.Event{
		ID:          t.newID(),
		Kind:        activity.KindUndone,
		ActionType:  action.Type(),
		ActionID:    action.ID,
		ItemID:      action.ItemID(),
		Description: action.Description,
		OccurredAt:  t.now(),
	}
	if item, ok := t.engine.Item(action.ItemID()); ok {
		e = e.WithItem(item)
	}
	t.publish(ctx, e)

	t.logger.Info("Undid action",
		zap.String("action_id", action.ID),
		zap.String("action_type", string(action.Type())),
		zap.String("item_id", action.ItemID()),
	)
	return action, res, nil
}

// Close writes any unsaved state and releases the store.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	var flushErr error
	if t.dirty && !t.loading {
		flushErr = t.persist(ctx)
	}
	return errors.Join(flushErr, t.kv.Close())
}

func (t *Tracker) ready() error {
	if t.closed {
		return ErrClosed
	}
	if t.loading {
		return ErrLoading
	}
	return nil
}

func (t *Tracker) historyLen() int {
	_, _, h := t.engine.Counts()
	return h
}

func (t *Tracker) commit(ctx context.Context) {
	t.dirty = true
	t.metrics.Sizes(t.engine.Counts())
	_ = t.persist(ctx)
}

// persist writes all three collections. A failure leaves memory untouched
// and is reported through PersistErr.
func (t *Tracker) persist(ctx context.Context) error {
	snap, err := t.snapshot()
	if err == nil {
		start := time.Now()
		err = store.SaveSnapshot(ctx, t.kv, snap)
		t.metrics.Persisted(time.Since(start), err)
	}
	if err != nil {
		t.persistErr = err
		t.logger.Error("Failed to persist tracker state", zap.Error(err))
		return err
	}
	t.persistErr = nil
	t.dirty = false
	return nil
}

func (t *Tracker) snapshot() (store.Snapshot, error) {
	items, err := json.Marshal(t.engine.Items())
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("encode items: %w", err)
	}
	sales, err := json.Marshal(t.engine.Sales())
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("encode sales: %w", err)
	}
	history, err := json.Marshal(t.engine.History())
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("encode history: %w", err)
	}
	return store.Snapshot{Items: items, Sales: sales, History: history}, nil
}

// event starts an activity event for a mutation. When the mutation wrote a
// history entry its id and description are carried over.
func (t *Tracker) event(kind activity.Kind, actionType inventory.ActionType, itemID string, historyBefore int) activity.Event {
	e := activity.Event{
		ID:         t.newID(),
		Kind:       kind,
		ActionType: actionType,
		ItemID:     itemID,
		OccurredAt: t.now(),
	}
	if t.historyLen() > historyBefore {
		if action, ok := t.engine.LastAction(); ok {
			e.ActionID = action.ID
			e.Description = action.Description
		}
	}
	return e
}

func (t *Tracker) publish(ctx context.Context, e activity.Event) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.Publish(ctx, e.Key(), e); err != nil {
		t.metrics.PublishFailed()
		t.logger.Warn("Failed to publish activity event",
			zap.String("event_id", e.ID),
			zap.String("action_type", string(e.ActionType)),
			zap.String("item_id", e.ItemID),
			zap.Error(err),
		)
	}
}
