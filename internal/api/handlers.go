package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/TeggTTV/resellz/internal/command"
	"github.com/TeggTTV/resellz/internal/domain/inventory"
	"github.com/TeggTTV/resellz/internal/query"
	"github.com/TeggTTV/resellz/internal/tracker"
	"github.com/go-chi/chi/v5"
)

// State is the read side of *tracker.Tracker used for lookups and health.
type State interface {
	Item(id string) (inventory.InventoryItem, bool)
	Sales() []inventory.Sale
	History() []inventory.HistoryAction
	IsLoading() bool
	PersistErr() error
}

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	state        State
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, state State) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		state:        state,
	}
}

// Item Handlers

func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	respond(w, http.StatusOK, h.queryHandler.FilterItems(q.Get("q"), q.Get("status")))
}

func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.state.Item(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "item not found")
		return
	}
	respond(w, http.StatusOK, item)
}

func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddItem
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.cmdHandler.AddItem(r.Context(), cmd)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respond(w, http.StatusCreated, item)
}

func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cmd := command.UpdateItem{ItemID: chi.URLParam(r, "id")}
	if err := json.NewDecoder(r.Body).Decode(&cmd.Patch); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.cmdHandler.UpdateItem(r.Context(), cmd)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respond(w, http.StatusOK, item)
}

func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	cmd := command.DeleteItem{ItemID: chi.URLParam(r, "id")}
	if err := h.cmdHandler.DeleteItem(r.Context(), cmd); err != nil {
		respondCommandError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "Item deleted"})
}

func (h *Handlers) SellItem(w http.ResponseWriter, r *http.Request) {
	var cmd command.SellItem
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cmd.ItemID = chi.URLParam(r, "id")

	sale, err := h.cmdHandler.SellItem(r.Context(), cmd)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respond(w, http.StatusCreated, sale)
}

// Sale Handlers

func (h *Handlers) ListSales(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.state.Sales())
}

func (h *Handlers) RecentSales(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", query.MaxListLimit)
	if !ok {
		return
	}
	respond(w, http.StatusOK, h.queryHandler.RecentSales(limit))
}

// History Handlers

func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.state.History())
}

func (h *Handlers) Undo(w http.ResponseWriter, r *http.Request) {
	cmd := command.UndoAction{ActionID: chi.URLParam(r, "id")}
	action, err := h.cmdHandler.Undo(r.Context(), cmd)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respond(w, http.StatusOK, action)
}

// Stats Handlers

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.queryHandler.Dashboard())
}

func (h *Handlers) InventoryStats(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.queryHandler.InventoryStats())
}

func (h *Handlers) Expenses(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.queryHandler.Expenses())
}

func (h *Handlers) Brands(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.queryHandler.Brands())
}

func (h *Handlers) MonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	year, ok := intParam(w, r, "year", query.MaxYear)
	if !ok {
		return
	}
	respond(w, http.StatusOK, h.queryHandler.MonthlyRevenue(year))
}

func (h *Handlers) DailyProfit(w http.ResponseWriter, r *http.Request) {
	days, ok := intParam(w, r, "days", query.MaxProfitDays)
	if !ok {
		return
	}
	respond(w, http.StatusOK, h.queryHandler.DailyProfit(days))
}

func (h *Handlers) TopItems(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", query.MaxListLimit)
	if !ok {
		return
	}
	respond(w, http.StatusOK, h.queryHandler.TopAvailable(limit))
}

// Health reports 503 while the store is loading or the last write failed.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	switch {
	case h.state.IsLoading():
		respond(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	case h.state.PersistErr() != nil:
		respond(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  h.state.PersistErr().Error(),
		})
	default:
		respond(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Helper functions

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}

func respondCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, command.ErrItemNotFound), errors.Is(err, command.ErrActionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, command.ErrInvalidCommand):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tracker.ErrLoading), errors.Is(err, tracker.ErrClosed):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// intParam reads an optional integer query parameter in [0, upper]; absent
// means 0.
func intParam(w http.ResponseWriter, r *http.Request, name string, upper int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > upper {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("%s must be an integer between 0 and %d", name, upper))
		return 0, false
	}
	return n, true
}
