package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"
)

// SaleNotice describes one recorded sale for email purposes
type SaleNotice struct {
	ItemName  string
	Variant   string
	Units     int
	SalePrice decimal.Decimal
	NetProfit decimal.Decimal
	Remaining int
}

// BuildSaleBody builds the HTML body of a sale notice
func BuildSaleBody(n SaleNotice) string {
	name := n.ItemName
	if name == "" {
		name = "Unknown Item"
	}
	variant := "-"
	if n.Variant != "" {
		variant = n.Variant
	}
	profitColor := "#2e7d32"
	if n.NetProfit.IsNegative() {
		profitColor = "#c62828"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #111; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Item sold</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0; font-size: 18px; font-weight: bold;">%s</p>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<tbody>
				<tr><td style="padding: 8px; color: #666;">Size</td><td style="padding: 8px; text-align: right;">%s</td></tr>
				<tr><td style="padding: 8px; color: #666;">Units</td><td style="padding: 8px; text-align: right;">%d</td></tr>
				<tr><td style="padding: 8px; color: #666;">Sale price</td><td style="padding: 8px; text-align: right;">$%s</td></tr>
				<tr><td style="padding: 8px; color: #666;">Net profit</td><td style="padding: 8px; text-align: right; font-weight: bold; color: %s;">$%s</td></tr>
				<tr><td style="padding: 8px; color: #666;">Left in stock</td><td style="padding: 8px; text-align: right;">%d</td></tr>
			</tbody>
		</table>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">Sent automatically by resellz.</p>
	</div>
</body>
</html>`,
		html.EscapeString(name),
		html.EscapeString(variant),
		n.Units,
		formatMoney(n.SalePrice),
		profitColor,
		formatMoney(n.NetProfit),
		n.Remaining,
	)
}

// BuildSoldOutBody builds the HTML body of a sold-out alert
func BuildSoldOutBody(itemName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #c62828; padding: 30px; border-radius: 10px;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Sold out</h1>
		<p style="color: white; margin: 10px 0 0 0;">%s has no stock left and is now marked Sold.</p>
	</div>
</body>
</html>`, html.EscapeString(itemName))
}

// formatMoney renders two decimals with comma separators, e.g. -1,234.50
func formatMoney(d decimal.Decimal) string {
	str := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(str, ".")

	var result strings.Builder
	if d.IsNegative() {
		result.WriteString("-")
	}
	remainder := len(whole) % 3
	if remainder > 0 {
		result.WriteString(whole[:remainder])
		if len(whole) > remainder {
			result.WriteString(",")
		}
	}
	for i := remainder; i < len(whole); i += 3 {
		result.WriteString(whole[i : i+3])
		if i+3 < len(whole) {
			result.WriteString(",")
		}
	}
	result.WriteString(".")
	result.WriteString(frac)
	return result.String()
}
