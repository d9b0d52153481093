package domain

type LineStatus string

const (
	LineCommitted    LineStatus = "committed"
	LineRejected     LineStatus = "rejected"
	LineUnknown      LineStatus = "unknown"
	LineNotAttempted LineStatus = "not_attempted"
)

type RejectReason string

const (
	ReasonInsufficientStock RejectReason = "insufficient_stock"
	ReasonNotFound          RejectReason = "not_found"
)

type CheckoutStatus string

const (
	CheckoutFullSuccess CheckoutStatus = "full_success"
	CheckoutPartial     CheckoutStatus = "partial"
	CheckoutRejected    CheckoutStatus = "rejected"
)

type CheckoutLine struct {
	ProductID string
	Quantity  int
}

// CheckoutRequest is built from the cart at the moment checkout is invoked.
type CheckoutRequest struct {
	StoreID string
	Lines   []CheckoutLine
}

// LineResult is the outcome of one settled line. Available is only meaningful
// for rejected lines: the quantity observed at the instant of rejection.
type LineResult struct {
	ProductID string
	Requested int
	Status    LineStatus
	Committed int
	Reason    RejectReason
	Available int
}

type CheckoutResult struct {
	SettlementID string
	StoreID      string
	Lines        []LineResult
}

func (r CheckoutResult) Status() CheckoutStatus {
	committed := 0
	for _, l := range r.Lines {
		if l.Status == LineCommitted {
			committed++
		}
	}
	switch {
	case len(r.Lines) > 0 && committed == len(r.Lines):
		return CheckoutFullSuccess
	case committed > 0:
		return CheckoutPartial
	default:
		return CheckoutRejected
	}
}

func (r CheckoutResult) FullSuccess() bool {
	return r.Status() == CheckoutFullSuccess
}

func Committed(productID string, quantity int) LineResult {
	return LineResult{ProductID: productID, Requested: quantity, Status: LineCommitted, Committed: quantity}
}

func Rejected(productID string, requested int, reason RejectReason, available int) LineResult {
	return LineResult{ProductID: productID, Requested: requested, Status: LineRejected, Reason: reason, Available: available}
}
