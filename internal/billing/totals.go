package billing

// DefaultVATRate is the UAE standard VAT rate applied when a line or order
// does not specify one.
const DefaultVATRate = 0.05

// LineItem is one invoice or sale line as submitted by the caller. Input
// validation (negative quantities, oversized discounts) is the caller's
// responsibility.
type LineItem struct {
	Quantity  float64
	UnitPrice float64
	Discount  float64
	VATRate   float64
}

// LineTotals holds the computed amounts for a single line.
type LineTotals struct {
	Subtotal  float64
	VATAmount float64
	Total     float64
}

// OrderTotals holds the computed amounts for a whole order.
type OrderTotals struct {
	Lines              []LineTotals
	Subtotal           float64
	DiscountedSubtotal float64
	VATAmount          float64
	GrandTotal         float64
}

// ComputeLine computes per-line amounts. The line discount comes off before
// VAT is applied.
func ComputeLine(item LineItem) LineTotals {
	rate := item.VATRate
	if rate == 0 {
		rate = DefaultVATRate
	}

	subtotal := item.Quantity*item.UnitPrice - item.Discount
	vat := subtotal * rate
	return LineTotals{
		Subtotal:  subtotal,
		VATAmount: vat,
		Total:     subtotal + vat,
	}
}

// ComputeOrder computes order totals from line items and an optional
// order-level discount.
//
// The order subtotal is the sum of line subtotals (pre-VAT), and the order
// VAT is recomputed on the discounted subtotal. When an order-level discount
// is present the order VAT therefore differs from the sum of per-line VATs;
// that divergence matches how totals have always been presented and must not
// be "fixed" without agreement from accounting.
func ComputeOrder(items []LineItem, orderDiscount float64, vatRate float64) OrderTotals {
	if vatRate == 0 {
		vatRate = DefaultVATRate
	}

	totals := OrderTotals{Lines: make([]LineTotals, 0, len(items))}
	for _, item := range items {
		line := ComputeLine(item)
		totals.Lines = append(totals.Lines, line)
		totals.Subtotal += line.Subtotal
	}

	totals.DiscountedSubtotal = totals.Subtotal - orderDiscount
	if totals.DiscountedSubtotal < 0 {
		totals.DiscountedSubtotal = 0
	}

	totals.VATAmount = totals.DiscountedSubtotal * vatRate
	totals.GrandTotal = totals.DiscountedSubtotal + totals.VATAmount
	return totals
}
