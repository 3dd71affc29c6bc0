package query

import (
	"sort"
	"strings"
	"time"

	"github.com/TeggTTV/resellz/internal/domain/inventory"
	"github.com/TeggTTV/resellz/internal/readmodel"
	"github.com/shopspring/decimal"
)

const (
	DefaultRecentSales = 5
	DefaultTopItems    = 5
	DefaultProfitDays  = 7
	MaxProfitDays      = 366
	MaxListLimit       = 100
	MaxYear            = 9999
	// topBrands is how many brands are listed before the rest fold into "Other".
	topBrands  = 4
	otherBrand = "Other"
)

var hundred = decimal.NewFromInt(100)

// Source provides a consistent view of items and sales. *tracker.Tracker
// satisfies it.
type Source interface {
	ReadModel() ([]inventory.InventoryItem, []inventory.Sale)
}

type Handler struct {
	source Source
	now    func() time.Time
}

type Option func(*Handler)

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func NewHandler(source Source, opts ...Option) *Handler {
	h := &Handler{source: source, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Items

// FilterItems matches query case-insensitively against name, SKU and brand.
// An empty status or "All" keeps every status.
func (h *Handler) FilterItems(query string, status string) []inventory.InventoryItem {
	items, _ := h.source.ReadModel()
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]inventory.InventoryItem, 0, len(items))
	for _, item := range items {
		if status != "" && status != "All" && string(item.Status) != status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(item.Name), q) &&
			!strings.Contains(strings.ToLower(item.SKU), q) &&
			!strings.Contains(strings.ToLower(item.Brand), q) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// TopAvailable returns the most valuable available items by market price.
func (h *Handler) TopAvailable(limit int) []inventory.InventoryItem {
	if limit <= 0 {
		limit = DefaultTopItems
	}
	items, _ := h.source.ReadModel()

	available := make([]inventory.InventoryItem, 0, len(items))
	for _, item := range items {
		if item.Status == inventory.StatusAvailable {
			available = append(available, item)
		}
	}
	sort.SliceStable(available, func(i, j int) bool {
		return available[i].MarketPrice.GreaterThan(available[j].MarketPrice)
	})
	if len(available) > limit {
		available = available[:limit]
	}
	return available
}

func (h *Handler) InventoryStats() readmodel.InventoryStats {
	items, _ := h.source.ReadModel()

	var stats readmodel.InventoryStats
	for _, item := range items {
		if item.Status != inventory.StatusAvailable {
			continue
		}
		stats.Count++
		stats.TotalValue = stats.TotalValue.Add(item.MarketPrice)
		stats.TotalInvestment = stats.TotalInvestment.Add(item.PurchasePrice)
	}
	stats.ProjectedProfit = stats.TotalValue.Sub(stats.TotalInvestment)
	return stats
}

// Sales

// RecentSales returns the latest sales by sale date.
func (h *Handler) RecentSales(limit int) []inventory.Sale {
	if limit <= 0 {
		limit = DefaultRecentSales
	}
	_, sales := h.source.ReadModel()

	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].DateSold.After(sales[j].DateSold)
	})
	if len(sales) > limit {
		sales = sales[:limit]
	}
	return sales
}

// Analytics

func (h *Handler) Dashboard() readmodel.DashboardStats {
	items, sales := h.source.ReadModel()

	var stats readmodel.DashboardStats
	for _, sale := range sales {
		stats.TotalProfit = stats.TotalProfit.Add(sale.NetProfit)
		stats.TotalRevenue = stats.TotalRevenue.Add(sale.Revenue())
	}
	for _, item := range items {
		if item.Status == inventory.StatusAvailable {
			stats.ActiveListings++
		}
	}
	stats.ItemsSold = len(sales)
	if stats.TotalRevenue.IsPositive() {
		stats.AvgMargin = stats.TotalProfit.Div(stats.TotalRevenue).Mul(hundred).Round(2)
	}
	return stats
}

// Expenses splits the cost of everything sold into goods, fees and shipping.
func (h *Handler) Expenses() readmodel.ExpenseBreakdown {
	_, sales := h.source.ReadModel()

	var cogs, fees, shipping decimal.Decimal
	for _, sale := range sales {
		units := decimal.NewFromInt(int64(sale.Units()))
		cogs = cogs.Add(sale.Item.PurchasePrice.Mul(units))
		fees = fees.Add(sale.PlatformFees.Mul(units))
		shipping = shipping.Add(sale.ShippingCost.Mul(units))
	}

	total := cogs.Add(fees).Add(shipping)
	divisor := total
	if divisor.IsZero() {
		divisor = decimal.NewFromInt(1)
	}
	percent := func(v decimal.Decimal) decimal.Decimal {
		return v.Div(divisor).Mul(hundred).Round(2)
	}

	return readmodel.ExpenseBreakdown{
		Lines: []readmodel.ExpenseLine{
			{Label: "COGS (Inventory)", Value: cogs, Percent: percent(cogs)},
			{Label: "Platform Fees", Value: fees, Percent: percent(fees)},
			{Label: "Shipping Labels", Value: shipping, Percent: percent(shipping)},
		},
		Total: total,
	}
}

// Brands ranks brands by units sold. The top four are listed by name and
// the remainder is folded into "Other".
func (h *Handler) Brands() readmodel.BrandPerformance {
	_, sales := h.source.ReadModel()

	counts := make(map[string]int)
	var order []string
	total := 0
	for _, sale := range sales {
		brand := sale.Item.Brand
		if brand == "" {
			brand = otherBrand
		}
		if _, seen := counts[brand]; !seen {
			order = append(order, brand)
		}
		counts[brand] += sale.Units()
		total += sale.Units()
	}

	perf := readmodel.BrandPerformance{TotalUnits: total, Brands: []readmodel.BrandShare{}}
	if total == 0 {
		return perf
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	share := func(name string, count int) readmodel.BrandShare {
		pct := decimal.NewFromInt(int64(count)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(0)
		return readmodel.BrandShare{Name: name, Count: count, Percent: int(pct.IntPart())}
	}
	rest := 0
	for n, brand := range order {
		if n < topBrands {
			perf.Brands = append(perf.Brands, share(brand, counts[brand]))
			continue
		}
		rest += counts[brand]
	}
	if rest > 0 {
		perf.Brands = append(perf.Brands, share(otherBrand, rest))
	}
	return perf
}

// MonthlyRevenue buckets a year's sales by month (UTC). For the current year
// the series stops at the current month; future years are empty.
func (h *Handler) MonthlyRevenue(year int) []readmodel.MonthRevenue {
	now := h.now().UTC()
	if year == 0 {
		year = now.Year()
	}
	months := 12
	switch {
	case year > now.Year():
		return []readmodel.MonthRevenue{}
	case year == now.Year():
		months = int(now.Month())
	}

	out := make([]readmodel.MonthRevenue, months)
	for m := range out {
		out[m].Month = time.Month(m + 1).String()[:3]
	}

	_, sales := h.source.ReadModel()
	for _, sale := range sales {
		sold := sale.DateSold.UTC()
		if sold.Year() != year {
			continue
		}
		m := int(sold.Month()) - 1
		if m >= months {
			continue
		}
		out[m].Revenue = out[m].Revenue.Add(sale.Revenue())
		out[m].Profit = out[m].Profit.Add(sale.NetProfit)
	}
	return out
}

// DailyProfit returns net profit per UTC day for the last days days,
// oldest first and ending today. Windows longer than MaxProfitDays are cut.
func (h *Handler) DailyProfit(days int) []readmodel.DayProfit {
	if days <= 0 {
		days = DefaultProfitDays
	}
	days = min(days, MaxProfitDays)
	today := h.now().UTC()

	out := make([]readmodel.DayProfit, days)
	index := make(map[string]int, days)
	for n := range out {
		date := today.AddDate(0, 0, n-(days-1)).Format(time.DateOnly)
		out[n].Date = date
		index[date] = n
	}

	_, sales := h.source.ReadModel()
	for _, sale := range sales {
		if n, ok := index[sale.DateSold.UTC().Format(time.DateOnly)]; ok {
			out[n].Profit = out[n].Profit.Add(sale.NetProfit)
		}
	}
	return out
}
