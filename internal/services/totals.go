package services

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineTotal is the priced result of one invoice line.
type LineTotal struct {
	Gross          decimal.Decimal // unit price × quantity
	DiscountAmount decimal.Decimal
	TotalHT        decimal.Decimal // Gross - DiscountAmount
}

// ComputeLineTotal prices a line. discountPercent is a percentage (10 means
// 10%). Negative or zero inputs are computed as given.
func ComputeLineTotal(unitPrice, quantity, discountPercent decimal.Decimal) LineTotal {
	gross := unitPrice.Mul(quantity)
	discount := gross.Mul(discountPercent).Div(hundred)
	return LineTotal{
		Gross:          gross,
		DiscountAmount: discount,
		TotalHT:        gross.Sub(discount),
	}
}

// InvoiceTotals are the header amounts of an invoice.
type InvoiceTotals struct {
	SubtotalHT     decimal.Decimal `json:"subtotal_ht"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	VATAmount      decimal.Decimal `json:"vat_amount"`
	TotalTTC       decimal.Decimal `json:"total_ttc"`
}

// ComputeInvoiceTotals aggregates priced lines. SubtotalHT is the sum of the
// gross line amounts, so TaxableAmount equals the sum of the line TotalHT.
// vatRate is a percentage; stampDuty is a fixed amount added once.
func ComputeInvoiceTotals(lines []LineTotal, vatRate, stampDuty decimal.Decimal) InvoiceTotals {
	subtotal, discount := decimal.Zero, decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Gross)
		discount = discount.Add(l.DiscountAmount)
	}
	taxable := subtotal.Sub(discount)
	vat := taxable.Mul(vatRate).Div(hundred)
	return InvoiceTotals{
		SubtotalHT:     subtotal,
		DiscountAmount: discount,
		TaxableAmount:  taxable,
		VATAmount:      vat,
		TotalTTC:       taxable.Add(vat).Add(stampDuty),
	}
}

// WithVAT returns ht increased by vatRate percent.
func WithVAT(ht, vatRate decimal.Decimal) decimal.Decimal {
	return ht.Add(ht.Mul(vatRate).Div(hundred))
}

// Sum adds amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
