package types

// FeeSchedule holds trading fees for one exchange (or one symbol on an
// exchange) as fractions: 0.001 means 0.1%. The arbitrage math always
// charges the taker rate on both legs.
type FeeSchedule struct {
	TakerPct float64 `json:"taker_pct"`
	MakerPct float64 `json:"maker_pct"`
}
