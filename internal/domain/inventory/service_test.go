package inventory

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestService() *Service {
	seq := 0
	return NewService(
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
}

func intPtr(n int) *int { return &n }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func sneaker() NewItem {
	return NewItem{
		Name:          "Jordan 1 Chicago",
		Brand:         "Nike",
		SKU:           "DZ5485-612",
		Size:          "10",
		PurchasePrice: dec("50"),
		MarketPrice:   dec("180"),
	}
}

func mustAdd(t *testing.T, s *Service, c NewItem) InventoryItem {
	t.Helper()
	item, res, err := s.AddItem(c)
	require.NoError(t, err)
	require.Equal(t, Applied, res)
	return item
}

// ============================================
// Add Item Tests
// ============================================

func TestService_AddItem_Defaults(t *testing.T) {
	s := newTestService()

	item, res, err := s.AddItem(sneaker())

	require.NoError(t, err)
	assert.Equal(t, Applied, res)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Jordan 1 Chicago", item.Name)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 0, item.SoldQuantity)
	assert.Equal(t, StatusAvailable, item.Status)
	assert.Equal(t, testNow, item.DateAdded)

	require.Len(t, s.Items(), 1)
	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, ActionAddItem, history[0].Type())
	assert.Equal(t, item.ID, history[0].ItemID())
	assert.Equal(t, "Added item: Jordan 1 Chicago", history[0].Description)
}

func TestService_AddItem_ExplicitZeroQuantityIsKept(t *testing.T) {
	s := newTestService()
	c := sneaker()
	c.Quantity = intPtr(0)

	item := mustAdd(t, s, c)

	assert.Equal(t, 0, item.Quantity)
}

func TestService_AddItem_PrependsNewest(t *testing.T) {
	s := newTestService()
	first := mustAdd(t, s, sneaker())
	second := mustAdd(t, s, sneaker())

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestService_AddItem_KeepsSuppliedIDAndDate(t *testing.T) {
	s := newTestService()
	added := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	c := sneaker()
	c.ID = "restored-1"
	c.DateAdded = added
	c.Status = StatusSold

	item := mustAdd(t, s, c)

	assert.Equal(t, "restored-1", item.ID)
	assert.Equal(t, added, item.DateAdded)
	assert.Equal(t, StatusSold, item.Status)
}

func TestService_AddItem_DerivesFromVariants(t *testing.T) {
	s := newTestService()
	c := sneaker()
	c.Size = ""
	c.Variants = []Variant{
		{Size: "9", Quantity: 2},
		{Size: "10", Quantity: 3, MarketPrice: decPtr("200")},
	}

	item := mustAdd(t, s, c)

	assert.Equal(t, 5, item.Quantity)
	assert.Equal(t, MultipleSizes, item.Size)
	require.Len(t, item.Variants, 2)
	assert.True(t, item.Variants[1].MarketPrice.Equal(dec("200")))
}

func TestService_AddItem_SkipHistory(t *testing.T) {
	s := newTestService()

	_, res, err := s.AddItem(sneaker(), SkipHistory())

	require.NoError(t, err)
	assert.Equal(t, Applied, res)
	assert.Len(t, s.Items(), 1)
	assert.Empty(t, s.History())
}

func TestService_AddItem_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NewItem)
		want   error
	}{
		{"negative purchase price", func(c *NewItem) { c.PurchasePrice = dec("-1") }, ErrNegativePrice},
		{"negative market price", func(c *NewItem) { c.MarketPrice = dec("-0.01") }, ErrNegativePrice},
		{"negative quantity", func(c *NewItem) { c.Quantity = intPtr(-2) }, ErrNegativeQuantity},
		{"negative variant quantity", func(c *NewItem) { c.Variants = []Variant{{Size: "9", Quantity: -1}} }, ErrNegativeQuantity},
		{"negative variant price", func(c *NewItem) { c.Variants = []Variant{{Size: "9", Quantity: 1, PurchasePrice: decPtr("-3")}} }, ErrNegativePrice},
		{"unknown status", func(c *NewItem) { c.Status = "Lost" }, ErrInvalidStatus},
		{"lowercase status", func(c *NewItem) { c.Status = "sold" }, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService()
			c := sneaker()
			tt.mutate(&c)

			_, res, err := s.AddItem(c)

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, Rejected, res)
			assert.Empty(t, s.Items())
			assert.Empty(t, s.History())
		})
	}
}

func TestService_AddItem_DuplicateIDRejected(t *testing.T) {
	s := newTestService()
	original := mustAdd(t, s, sneaker())

	c := sneaker()
	c.ID = original.ID
	c.Name = "Impostor"
	_, res, err := s.AddItem(c)

	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, Rejected, res)
	require.Len(t, s.Items(), 1)
	assert.Equal(t, original, s.Items()[0])
	assert.Len(t, s.History(), 1)
}

func TestService_AddItem_ExplicitStatusKept(t *testing.T) {
	s := newTestService()
	c := sneaker()
	c.Status = StatusPending

	item := mustAdd(t, s, c)

	assert.Equal(t, StatusPending, item.Status)
}

// ============================================
// Update Item Tests
// ============================================

func TestService_UpdateItem_MergesPatch(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())
	name := "Jordan 1 Lost & Found"
	price := dec("210")

	updated, res, err := s.UpdateItem(item.ID, Patch{Name: &name, MarketPrice: &price})

	require.NoError(t, err)
	assert.Equal(t, Applied, res)
	assert.Equal(t, name, updated.Name)
	assert.True(t, updated.MarketPrice.Equal(price))
	assert.Equal(t, "Nike", updated.Brand)
	assert.Equal(t, "10", updated.Size)

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, ActionUpdateItem, history[0].Type())
	payload, ok := history[0].Payload.(ItemUpdated)
	require.True(t, ok)
	assert.Equal(t, item, payload.Previous)
	assert.Equal(t, "Updated item: Jordan 1 Chicago", history[0].Description)
}

func TestService_UpdateItem_EmptyPatchStillRecords(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())

	updated, res, err := s.UpdateItem(item.ID, Patch{})

	require.NoError(t, err)
	assert.Equal(t, Applied, res)
	assert.Equal(t, item, updated)
	assert.Len(t, s.History(), 2)
}

func TestService_UpdateItem_EmptyPatchSkipHistory(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())

	_, res, err := s.UpdateItem(item.ID, Patch{}, SkipHistory())

	require.NoError(t, err)
	assert.Equal(t, Applied, res)
	assert.Len(t, s.History(), 1)
}

func TestService_UpdateItem_NotFound(t *testing.T) {
	s := newTestService()
	name := "ghost"

	_, res, err := s.UpdateItem("missing", Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, NotFound, res)

	_, res, err = s.UpdateItem("missing", Patch{Name: &name}, SkipHistory())
	require.NoError(t, err)
	assert.Equal(t, NotFound, res)
	assert.Empty(t, s.History())
}

func TestService_UpdateItem_Rejected(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())
	negative := -1

	_, res, err := s.UpdateItem(item.ID, Patch{Quantity: &negative})

	assert.ErrorIs(t, err, ErrNegativeQuantity)
	assert.Equal(t, Rejected, res)
	current, _ := s.Item(item.ID)
	assert.Equal(t, item, current)
	assert.Len(t, s.History(), 1)
}

func TestService_UpdateItem_InvalidStatusRejected(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())
	bogus := Status("Lost")

	_, res, err := s.UpdateItem(item.ID, Patch{Status: &bogus})

	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, Rejected, res)
	current, _ := s.Item(item.ID)
	assert.Equal(t, StatusAvailable, current.Status)
	assert.Len(t, s.History(), 1)
}

func TestService_UpdateItem_VariantsRederiveQuantity(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())
	variants := []Variant{{Size: "11", Quantity: 4}}

	updated, _, err := s.UpdateItem(item.ID, Patch{Variants: &variants})

	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	assert.Equal(t, "11", updated.Size)
}

func TestService_UpdateItem_ExplicitQuantityWinsOverVariants(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())
	variants := []Variant{{Size: "11", Quantity: 4}}
	qty := 7

	updated, _, err := s.UpdateItem(item.ID, Patch{Variants: &variants, Quantity: &qty})

	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)
}

// ============================================
// Sell Item Tests
// ============================================

func TestService_SellItem_LastUnit(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())

	sale, res, err := s.SellItem(item.ID, SaleDetails{
		SalePrice:    dec("100"),
		PlatformFees: dec("10"),
		ShippingCost: dec("5"),
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, Applied, res)
	assert.True(t, sale.NetProfit.Equal(dec("35")), "net profit %s", sale.NetProfit)
	assert.Equal(t, 1, sale.QuantitySold)
	assert.Equal(t, item.ID, sale.ItemID)
	assert.Equal(t, testNow, sale.DateSold)

	current, ok := s.Item(item.ID)
	require.True(t, ok)
	assert.Equal(t, 0, current.Quantity)
	assert.Equal(t, StatusSold, current.Status)
	assert.Equal(t, 1, current.SoldQuantity)

	require.Len(t, s.Sales(), 1)
	history := s.History()
	require.Len(t, history, 2)
	payload, ok := history[0].Payload.(ItemSold)
	require.True(t, ok)
	assert.Equal(t, sale.ID, payload.SaleID)
	assert.Equal(t, 1, payload.SoldQuantity)
	assert.Nil(t, payload.PreviousVariants)
}

func TestService_SellItem_DecrementsStock(t *testing.T) {
	s := newTestService()
	c := sneaker()
	c.Quantity = intPtr(3)
	item := mustAdd(t, s, c)

	_, _, err := s.SellItem(item.ID, SaleDetails{SalePrice: dec("150")}, nil)

	require.NoError(t, err)
	current, _ := s.Item(item.ID)
	assert.Equal(t, 2, current.Quantity)
	assert.Equal(t, 1, current.SoldQuantity)
	assert.Equal(t, StatusAvailable, current.Status)
}

func TestService_SellItem_SnapshotIsOneUnitBeforeSale(t *testing.T) {
	s := newTestService()
	c := sneaker()
	c.Quantity = intPtr(4)
	c.Variants = []Variant{{Size: "10", Quantity: 4}}
	item := mustAdd(t, s, c)

	sale, _, err := s.SellItem(item.ID, SaleDetails{SalePrice: dec("150")}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sale.Item.Quantity)
	assert.Equal(t, 0, sale.Item.SoldQuantity)
	assert.Equal(t, item.Name, sale.Item.Name)

	// later changes to the item must not leak into the snapshot
	name := "renamed"
	_, _, err = s.UpdateItem(item.ID, Patch{Name: &name})
	require.NoError(t, err)
	stored, ok := s.Sale(sale.ID)
	require.True(t, ok)
	assert.Equal(t, "Jordan 1 Chicago", stored.Item.Name)
}

func TestService_SellItem_OverridesReplaceDefaults(t *testing.T) {
	s := newTestService()
	c := sneaker()
	c.Quantity = intPtr(5)
	item := mustAdd(t, s, c)
	qty, sold := 2, 3
	status := StatusAvailable

	sale, _, err := s.SellItem(item.ID, SaleDetails{
		SalePrice:    dec("100"),
		PlatformFees: dec("10"),
		ShippingCost: dec("5"),
	}, &Overrides{Quantity: &qty, SoldQuantity: &sold, Status: &status})

	require.NoError(t, err)
	assert.Equal(t, 3, sale.QuantitySold)
	assert.True(t, sale.NetProfit.Equal(dec("105")), "net profit %s", sale.NetProfit)

	current, _ := s.Item(item.ID)
	assert.Equal(t, 2, current.Quantity)
	assert.Equal(t, 3, current.SoldQuantity)
	assert.Equal(t, StatusAvailable, current.Status)
}

func TestService_SellItem_OverrideSoldQuantityFloorsAtOne(t *testing.T) {
	s := newTestService()
	c := sneaker()
	c.Quantity = intPtr(2)
	c.SoldQuantity = 4
	item := mustAdd(t, s, c)
	sold := 4

	sale, _, err := s.SellItem(item.ID, SaleDetails{SalePrice: dec("60")}, &Overrides{SoldQuantity: &sold})

	require.NoError(t, err)
	assert.Equal(t, 1, sale.QuantitySold)
	history := s.History()
	assert.Equal(t, 1, history[0].Payload.(ItemSold).SoldQuantity)
	current, _ := s.Item(item.ID)
	assert.Equal(t, 4, current.SoldQuantity)
}

func TestService_SellItem_ProfitUsesPreSaleCost(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())
	variants := []Variant{{Size: "10", Quantity: 0, PurchasePrice: decPtr("999")}}

	sale, _, err := s.SellItem(item.ID, SaleDetails{SalePrice: dec("80")}, &Overrides{Variants: &variants})

	require.NoError(t, err)
	assert.True(t, sale.NetProfit.Equal(dec("30")), "net profit %s", sale.NetProfit)
}

func TestService_SellItem_VariantOverridesRecordPreviousVariants(t *testing.T) {
	s := newTestService()
	c := sneaker()
	c.Variants = []Variant{{Size: "9", Quantity: 1}, {Size: "10", Quantity: 2}}
	item := mustAdd(t, s, c)

	overrides, err := VariantSaleOverrides(item, "10", 1)
	require.NoError(t, err)
	_, _, err = s.SellItem(item.ID, SaleDetails{SalePrice: dec("150"), VariantSold: "10"}, &overrides)
	require.NoError(t, err)

	current, _ := s.Item(item.ID)
	assert.Equal(t, 2, current.Quantity)
	v, ok := current.Variant("10")
	require.True(t, ok)
	assert.Equal(t, 1, v.Quantity)

	payload := s.History()[0].Payload.(ItemSold)
	require.NotNil(t, payload.PreviousVariants)
	assert.Equal(t, item.Variants, *payload.PreviousVariants)
}

func TestService_SellItem_EmptyItemIsNotBlocked(t *testing.T) {
	s := newTestService()
	c := sneaker()
	c.Quantity = intPtr(0)
	item := mustAdd(t, s, c)

	_, res, err := s.SellItem(item.ID, SaleDetails{SalePrice: dec("10")}, nil)

	require.NoError(t, err)
	assert.Equal(t, Applied, res)
	current, _ := s.Item(item.ID)
	assert.Equal(t, 0, current.Quantity)
	assert.Equal(t, 1, current.SoldQuantity)
}

func TestService_SellItem_NotFound(t *testing.T) {
	s := newTestService()

	_, res, err := s.SellItem("missing", SaleDetails{SalePrice: dec("10")}, nil)

	require.NoError(t, err)
	assert.Equal(t, NotFound, res)
	assert.Empty(t, s.Sales())
	assert.Empty(t, s.History())
}

func TestService_SellItem_Rejected(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())

	_, res, err := s.SellItem(item.ID, SaleDetails{SalePrice: dec("10"), PlatformFees: dec("-1")}, nil)

	assert.ErrorIs(t, err, ErrNegativePrice)
	assert.Equal(t, Rejected, res)
	assert.Empty(t, s.Sales())
}

func TestService_SellItem_InvalidOverrideStatusRejected(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())
	bogus := Status("Gone")

	_, res, err := s.SellItem(item.ID, SaleDetails{SalePrice: dec("100")}, &Overrides{Status: &bogus})

	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, Rejected, res)
	assert.Empty(t, s.Sales())
	current, _ := s.Item(item.ID)
	assert.Equal(t, item, current)
}

func TestService_SellItem_SkipHistory(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())

	_, res, err := s.SellItem(item.ID, SaleDetails{SalePrice: dec("10")}, nil, SkipHistory())

	require.NoError(t, err)
	assert.Equal(t, Applied, res)
	assert.Len(t, s.Sales(), 1)
	assert.Len(t, s.History(), 1)
}

// ============================================
// Delete Item Tests
// ============================================

func TestService_DeleteItem_CascadesSales(t *testing.T) {
	s := newTestService()
	c := sneaker()
	c.Quantity = intPtr(3)
	item := mustAdd(t, s, c)
	other := mustAdd(t, s, sneaker())
	_, _, err := s.SellItem(item.ID, SaleDetails{SalePrice: dec("100")}, nil)
	require.NoError(t, err)
	_, _, err = s.SellItem(other.ID, SaleDetails{SalePrice: dec("100")}, nil)
	require.NoError(t, err)
	_, _, err = s.SellItem(item.ID, SaleDetails{SalePrice: dec("120")}, nil)
	require.NoError(t, err)
	before, _ := s.Item(item.ID)

	res := s.DeleteItem(item.ID)

	assert.Equal(t, Applied, res)
	_, ok := s.Item(item.ID)
	assert.False(t, ok)
	sales := s.Sales()
	require.Len(t, sales, 1)
	assert.Equal(t, other.ID, sales[0].ItemID)

	history := s.History()
	payload, ok := history[0].Payload.(ItemDeleted)
	require.True(t, ok)
	assert.Equal(t, before, payload.Previous)
	assert.Len(t, payload.RelatedSales, 2)
	assert.Equal(t, item.ID, history[0].ItemID())
	assert.Equal(t, "Deleted item: Jordan 1 Chicago", history[0].Description)
}

func TestService_DeleteItem_NotFound(t *testing.T) {
	s := newTestService()

	assert.Equal(t, NotFound, s.DeleteItem("missing"))
	assert.Empty(t, s.History())
}

func TestService_DeleteItem_SkipHistoryClearsDanglingSales(t *testing.T) {
	s := newTestService()
	s.Restore(nil, []Sale{{ID: "sale-1", ItemID: "gone", QuantitySold: 1}}, nil)

	res := s.DeleteItem("gone", SkipHistory())

	assert.Equal(t, NotFound, res)
	assert.Empty(t, s.Sales())
	assert.Empty(t, s.History())
}

// ============================================
// History Ordering Tests
// ============================================

func TestService_HistoryNewestFirst(t *testing.T) {
	s := newTestService()
	item := mustAdd(t, s, sneaker())
	name := "x"
	_, _, err := s.UpdateItem(item.ID, Patch{Name: &name})
	require.NoError(t, err)
	_, _, err = s.SellItem(item.ID, SaleDetails{SalePrice: dec("1")}, nil)
	require.NoError(t, err)
	s.DeleteItem(item.ID)

	history := s.History()
	require.Len(t, history, 4)
	assert.Equal(t, ActionDeleteItem, history[0].Type())
	assert.Equal(t, ActionSellItem, history[1].Type())
	assert.Equal(t, ActionUpdateItem, history[2].Type())
	assert.Equal(t, ActionAddItem, history[3].Type())
}

func TestService_ReadModelIsCopied(t *testing.T) {
	s := newTestService()
	c := sneaker()
	c.Variants = []Variant{{Size: "10", Quantity: 1}}
	item := mustAdd(t, s, c)

	items := s.Items()
	items[0].Name = "mutated"
	items[0].Variants[0].Quantity = 99

	current, _ := s.Item(item.ID)
	assert.Equal(t, "Jordan 1 Chicago", current.Name)
	assert.Equal(t, 1, current.Variants[0].Quantity)
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "Result(9)", Result(9).String())
}
