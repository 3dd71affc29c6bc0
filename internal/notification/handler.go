package notification

import (
	"context"
	"fmt"

	"github.com/TeggTTV/resellz/internal/activity"
	"github.com/TeggTTV/resellz/internal/domain/inventory"
	"github.com/TeggTTV/resellz/internal/email"
	"go.uber.org/zap"
)

// Mailer is the part of *email.Service the handler uses.
type Mailer interface {
	SendSaleNotice(to string, n email.SaleNotice) error
	SendSoldOutAlert(to, itemName string) error
}

// Handler turns activity events into owner notifications
type Handler struct {
	mailer Mailer
	to     string
	logger *zap.Logger
}

func NewHandler(mailer Mailer, to string, logger *zap.Logger) *Handler {
	return &Handler{
		mailer: mailer,
		to:     to,
		logger: logger,
	}
}

// HandleEvent processes an event from Kafka. Only applied sales notify;
// everything else is acknowledged and skipped.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	event, err := activity.Decode(value)
	if err != nil {
		h.logger.Warn("Failed to decode activity event", zap.ByteString("key", key), zap.Error(err))
		return err
	}

	if event.Kind != activity.KindApplied || event.ActionType != inventory.ActionSellItem || event.Sale == nil {
		return nil
	}
	return h.handleSale(event)
}

func (h *Handler) handleSale(event activity.Event) error {
	log := h.logger.With(
		zap.String("event_id", event.ID),
		zap.String("item_id", event.ItemID),
		zap.String("sale_id", event.Sale.SaleID),
	)

	notice := email.SaleNotice{
		ItemName:  event.ItemName,
		Variant:   event.Sale.VariantSold,
		Units:     event.Sale.QuantitySold,
		SalePrice: event.Sale.SalePrice,
		NetProfit: event.Sale.NetProfit,
		Remaining: event.Quantity,
	}
	if err := h.mailer.SendSaleNotice(h.to, notice); err != nil {
		log.Error("Failed to send sale notice", zap.String("to", h.to), zap.Error(err))
		return err
	}
	log.Info("Sale notice sent", zap.String("to", h.to))

	if !event.SoldOut() {
		return nil
	}
	if err := h.mailer.SendSoldOutAlert(h.to, event.ItemName); err != nil {
		log.Error("Failed to send sold-out alert", zap.String("to", h.to), zap.Error(err))
		return fmt.Errorf("sold-out alert: %w", err)
	}
	log.Info("Sold-out alert sent", zap.String("to", h.to))
	return nil
}
