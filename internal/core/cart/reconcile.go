package cart

import "github.com/rl1809/pos-inventory/internal/core/domain"

type NoticeKind string

const (
	NoticeSold         NoticeKind = "sold"
	NoticeOutOfStock   NoticeKind = "out_of_stock"
	NoticeVanished     NoticeKind = "product_vanished"
	NoticeUnknown      NoticeKind = "outcome_unknown"
	NoticeNotAttempted NoticeKind = "not_attempted"
)

// Notice is the per-line message surfaced to the register after checkout.
type Notice struct {
	ProductID string
	Kind      NoticeKind
	Quantity  int
	Available int
}

// Reconcile applies a settlement result to the cart. Committed quantities are
// taken off their entries, vanished products are purged, and every other line
// stays in the cart for the cashier to act on. A full success empties the cart.
func (c *Cart) Reconcile(result domain.CheckoutResult) []Notice {
	notices := make([]Notice, 0, len(result.Lines))

	for _, line := range result.Lines {
		n := Notice{ProductID: line.ProductID, Quantity: line.Requested}

		switch line.Status {
		case domain.LineCommitted:
			n.Kind = NoticeSold
			n.Quantity = line.Committed
			if e, ok := c.entries[line.ProductID]; ok {
				e.Quantity -= line.Committed
				if e.Quantity <= 0 {
					c.RemoveAll(line.ProductID)
				}
			}
		case domain.LineRejected:
			n.Available = line.Available
			if line.Reason == domain.ReasonNotFound {
				n.Kind = NoticeVanished
				c.RemoveAll(line.ProductID)
			} else {
				n.Kind = NoticeOutOfStock
			}
		case domain.LineUnknown:
			n.Kind = NoticeUnknown
		default:
			n.Kind = NoticeNotAttempted
		}

		notices = append(notices, n)
	}

	if result.FullSuccess() {
		c.Clear()
	}
	return notices
}
