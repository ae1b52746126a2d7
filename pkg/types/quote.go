package types

// Quote is the latest top-of-book view from a single venue for one canonical
// symbol. A zero Bid, Ask or Last means the venue did not report that price;
// zero values must never be used in computations. Quotes are immutable once
// constructed: adapters build a new Quote per poll and the store replaces
// whole values.
type Quote struct {
	Exchange        string  `json:"exchange"`
	VenueSymbol     string  `json:"venue_symbol"`
	CanonicalSymbol string  `json:"canonical_symbol"`
	Bid             float64 `json:"bid"`
	Ask             float64 `json:"ask"`
	Last            float64 `json:"last"`
	TimestampMS     int64   `json:"timestamp_ms"`
}

// IsStale reports whether the quote is older than ttlMS at nowMS.
func (q Quote) IsStale(nowMS, ttlMS int64) bool {
	return nowMS-q.TimestampMS > ttlMS
}

// BuyPrice returns the price to buy at on this venue: the ask, falling back
// to last and then bid when the preferred fields are absent. Returns 0 when
// no usable price exists.
func (q Quote) BuyPrice() float64 {
	switch {
	case q.Ask > 0:
		return q.Ask
	case q.Last > 0:
		return q.Last
	case q.Bid > 0:
		return q.Bid
	default:
		return 0
	}
}

// SellPrice returns the price to sell at on this venue: the bid, falling
// back to last and then ask. Returns 0 when no usable price exists.
func (q Quote) SellPrice() float64 {
	switch {
	case q.Bid > 0:
		return q.Bid
	case q.Last > 0:
		return q.Last
	case q.Ask > 0:
		return q.Ask
	default:
		return 0
	}
}

// HasPrice reports whether at least one of bid/ask/last is positive.
func (q Quote) HasPrice() bool {
	return q.Bid > 0 || q.Ask > 0 || q.Last > 0
}
