package cart

// DefaultTaxBasisPoints is the 7% VAT applied at the register.
const DefaultTaxBasisPoints = 700

type Totals struct {
	Items    int
	Subtotal int64
	Tax      int64
	Total    int64
}

// Totals sums the cart in cents. Tax is rounded half up.
func (c *Cart) Totals(taxBasisPoints int) Totals {
	var t Totals
	for _, id := range c.order {
		e := c.entries[id]
		t.Items += e.Quantity
		t.Subtotal += e.UnitPriceCents * int64(e.Quantity)
	}
	t.Tax = (t.Subtotal*int64(taxBasisPoints) + 5000) / 10000
	t.Total = t.Subtotal + t.Tax
	return t
}
