package types

import "sort"

// VenueMarket is one tradable instrument as reported by an exchange's
// markets endpoint, before any cross-venue normalization.
type VenueMarket struct {
	Exchange    string `json:"exchange"`
	VenueSymbol string `json:"venue_symbol"`
	BaseAsset   string `json:"base_asset"`
	QuoteAsset  string `json:"quote_asset"`
	Trading     bool   `json:"trading"`
}

// MarketInfo describes one canonical symbol and the venues that trade it.
// VenueSymbols maps exchange name to the exchange-native spelling.
type MarketInfo struct {
	Symbol       string            `json:"symbol"`
	Exchanges    []string          `json:"exchanges"`
	VenueSymbols map[string]string `json:"exchange_symbols"`
}

// NewMarketInfo builds a MarketInfo from a venue-symbol map, with the
// exchange list sorted for deterministic output.
func NewMarketInfo(symbol string, venueSymbols map[string]string) MarketInfo {
	exchanges := make([]string, 0, len(venueSymbols))
	for exchange := range venueSymbols {
		exchanges = append(exchanges, exchange)
	}
	sort.Strings(exchanges)

	copied := make(map[string]string, len(venueSymbols))
	for exchange, venueSymbol := range venueSymbols {
		copied[exchange] = venueSymbol
	}

	return MarketInfo{
		Symbol:       symbol,
		Exchanges:    exchanges,
		VenueSymbols: copied,
	}
}
