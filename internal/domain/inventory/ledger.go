package inventory

import "fmt"

// Ledger holds history actions newest first. It has no size bound.
type Ledger struct {
	actions []HistoryAction
}

// NewLedger builds a ledger from actions already ordered newest first.
func NewLedger(actions ...HistoryAction) *Ledger {
	l := &Ledger{actions: make([]HistoryAction, 0, len(actions))}
	for _, a := range actions {
		l.actions = append(l.actions, a.Clone())
	}
	return l
}

// Record puts a at the front of the ledger.
func (l *Ledger) Record(a HistoryAction) {
	l.actions = append([]HistoryAction{a}, l.actions...)
}

func (l *Ledger) Find(id string) (HistoryAction, bool) {
	for _, a := range l.actions {
		if a.ID == id {
			return a.Clone(), true
		}
	}
	return HistoryAction{}, false
}

func (l *Ledger) Remove(id string) bool {
	for n, a := range l.actions {
		if a.ID == id {
			l.actions = append(l.actions[:n:n], l.actions[n+1:]...)
			return true
		}
	}
	return false
}

func (l *Ledger) Len() int {
	return len(l.actions)
}

// Latest returns the newest action.
func (l *Ledger) Latest() (HistoryAction, bool) {
	if len(l.actions) == 0 {
		return HistoryAction{}, false
	}
	return l.actions[0].Clone(), true
}

func (l *Ledger) Actions() []HistoryAction {
	out := make([]HistoryAction, len(l.actions))
	for n, a := range l.actions {
		out[n] = a.Clone()
	}
	return out
}

// Undo reverses the action with the given id and drops it from the ledger.
// The reversal runs through the regular mutations with SkipHistory, so it
// leaves no new entry behind. Unknown ids are a no-op.
func (s *Service) Undo(actionID string) (HistoryAction, Result, error) {
	action, ok := s.ledger.Find(actionID)
	if !ok {
		return HistoryAction{}, NotFound, nil
	}

	switch p := action.Payload.(type) {
	case ItemAdded:
		s.DeleteItem(p.ItemID, SkipHistory())
	case ItemSold:
		if _, res, err := s.undoSale(p); res == Rejected {
			return action, Rejected, err
		}
	case ItemUpdated:
		if _, res, err := s.UpdateItem(p.ItemID, FullPatch(p.Previous), SkipHistory()); res == Rejected {
			return action, Rejected, err
		}
	case ItemDeleted:
		if _, res, err := s.AddItem(CandidateFrom(p.Previous), SkipHistory()); res == Rejected {
			return action, Rejected, err
		}
		if len(p.RelatedSales) > 0 {
			s.sales = append(cloneSales(p.RelatedSales), s.sales...)
		}
	default:
		return action, Rejected, fmt.Errorf("%w: %T", ErrUnknownAction, action.Payload)
	}

	s.ledger.Remove(actionID)
	return action, Applied, nil
}

func (s *Service) undoSale(p ItemSold) (InventoryItem, Result, error) {
	kept := s.sales[:0:0]
	for _, sale := range s.sales {
		if sale.ID != p.SaleID {
			kept = append(kept, sale)
		}
	}
	s.sales = kept

	item, ok := s.Item(p.ItemID)
	if !ok {
		return InventoryItem{}, NotFound, nil
	}

	units := p.SoldQuantity
	if units < 1 {
		units = 1
	}
	qty := item.Quantity + units
	sold := max(0, item.SoldQuantity-units)
	status := StatusAvailable
	patch := Patch{Quantity: &qty, SoldQuantity: &sold, Status: &status}
	if p.PreviousVariants != nil {
		vs := cloneVariants(*p.PreviousVariants)
		patch.Variants = &vs
	}
	return s.UpdateItem(p.ItemID, patch, SkipHistory())
}
