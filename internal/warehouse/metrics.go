package warehouse

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)

	// costRatio is the share of the average sale price assumed to be the
	// product's unit cost.
	costRatio = decimal.RequireFromString("0.7")
)

// ProductPricing holds the price estimates stored on a product row.
type ProductPricing struct {
	UnitPrice     decimal.Decimal
	UnitCost      decimal.Decimal
	MarginPercent decimal.Decimal
}

// EstimateProductPricing derives unit cost and margin from the average
// historical sale price. Cost is always 70% of the average; margin is
// (price - cost) / price * 100, or zero when there is no positive price.
func EstimateProductPricing(avgPrice decimal.Decimal) ProductPricing {
	if !avgPrice.IsPositive() {
		return ProductPricing{UnitPrice: decimal.Zero, UnitCost: decimal.Zero, MarginPercent: decimal.Zero}
	}
	price := avgPrice.Round(2)
	cost := avgPrice.Mul(costRatio).Round(2)
	margin := avgPrice.Sub(avgPrice.Mul(costRatio)).Div(avgPrice).Mul(hundred).Round(2)
	return ProductPricing{UnitPrice: price, UnitCost: cost, MarginPercent: margin}
}

// SaleMetrics are the measures of a single fact row.
type SaleMetrics struct {
	Quantity        int64
	UnitPrice       decimal.Decimal
	Gross           decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	Net             decimal.Decimal
	UnitCost        decimal.Decimal
	TotalCost       decimal.Decimal
	GrossProfit     decimal.Decimal
}

// ComputeSaleMetrics computes the measures of a sale line. A non-positive
// quantity counts as one unit and a non-positive price as zero. Amounts are
// rounded to cents before the identities are applied, so
// Net = Gross - DiscountAmount and GrossProfit = Net - TotalCost hold exactly
// on the stored values.
func ComputeSaleMetrics(quantity int64, unitPrice, unitCost, discountPercent decimal.Decimal) SaleMetrics {
	if quantity <= 0 {
		quantity = 1
	}
	if !unitPrice.IsPositive() {
		unitPrice = decimal.Zero
	}
	if unitCost.IsNegative() {
		unitCost = decimal.Zero
	}
	if discountPercent.IsNegative() {
		discountPercent = decimal.Zero
	}

	qty := decimal.NewFromInt(quantity)
	gross := qty.Mul(unitPrice).Round(2)
	discount := gross.Mul(discountPercent).Div(hundred).Round(2)
	net := gross.Sub(discount)
	totalCost := qty.Mul(unitCost).Round(2)

	return SaleMetrics{
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		Gross:           gross,
		DiscountPercent: discountPercent,
		DiscountAmount:  discount,
		Net:             net,
		UnitCost:        unitCost,
		TotalCost:       totalCost,
		GrossProfit:     net.Sub(totalCost),
	}
}
