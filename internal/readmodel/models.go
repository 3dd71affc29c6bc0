package readmodel

import "github.com/shopspring/decimal"

// DashboardStats summarises all recorded sales and the live listings
type DashboardStats struct {
	TotalProfit    decimal.Decimal `json:"totalProfit"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	ActiveListings int             `json:"activeListings"`
	ItemsSold      int             `json:"itemsSold"`
	// AvgMargin is profit over revenue, in percent
	AvgMargin decimal.Decimal `json:"avgMargin"`
}

// InventoryStats covers items that are still available
type InventoryStats struct {
	Count           int             `json:"count"`
	TotalValue      decimal.Decimal `json:"totalValue"`
	TotalInvestment decimal.Decimal `json:"totalInvestment"`
	ProjectedProfit decimal.Decimal `json:"projectedProfit"`
}

// ExpenseLine is one cost category of the expense breakdown
type ExpenseLine struct {
	Label   string          `json:"label"`
	Value   decimal.Decimal `json:"value"`
	Percent decimal.Decimal `json:"percent"`
}

type ExpenseBreakdown struct {
	Lines []ExpenseLine   `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// BrandShare is a brand's share of units sold
type BrandShare struct {
	Name    string `json:"name"`
	Percent int    `json:"percent"`
	Count   int    `json:"count"`
}

type BrandPerformance struct {
	TotalUnits int          `json:"totalUnits"`
	Brands     []BrandShare `json:"brands"`
}

type MonthRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

// DayProfit is the net profit of sales made on one UTC calendar day
type DayProfit struct {
	Date   string          `json:"date"`
	Profit decimal.Decimal `json:"profit"`
}
