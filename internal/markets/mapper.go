// Package markets maintains the tradable-symbol universe: which USDT pairs
// each venue lists, how venue-native symbols map to canonical ones, and
// which canonical symbols overlap across enough venues to be worth quoting.
package markets

import (
	"sort"
	"strings"
	"sync"

	"github.com/mselser95/cex-arb/pkg/types"
)

// minExchangesRequired is the smallest venue overlap that makes a symbol
// part of the target universe. Arbitrage needs two sides.
const minExchangesRequired = 2

// canonicalOverrides pins venue symbols whose base asset name differs from
// what the rest of the venues call the same coin. Keyed by exchange, then by
// normalized venue symbol.
var canonicalOverrides = map[string]map[string]string{
	"bitget": {
		"ZKSYNCUSDT": "ZKUSDT",
	},
}

// Mapper holds the bidirectional symbol tables. Lookups are constant-time
// under a read lock; Rebuild swaps the tables wholesale after a discovery
// pass.
type Mapper struct {
	mu sync.RWMutex

	// canonicalByVenue: exchange -> normalized venue symbol -> canonical.
	canonicalByVenue map[string]map[string]string

	// venueByCanonical: exchange -> canonical -> native venue symbol.
	venueByCanonical map[string]map[string]string

	intersection []string
	markets      []types.MarketInfo
}

// NewMapper returns an empty mapper. Until the first Rebuild every lookup
// misses, which keeps adapters from emitting quotes before discovery ran.
func NewMapper() *Mapper {
	return &Mapper{
		canonicalByVenue: make(map[string]map[string]string),
		venueByCanonical: make(map[string]map[string]string),
	}
}

// normalizeVenueSymbol reduces a venue-native spelling to the canonical
// shape: uppercase, listing suffixes and separators removed. BTC-USDT,
// BTC_USDT, BTC/USDT and BTCUSDT_SPBL all normalize to BTCUSDT.
func normalizeVenueSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	s = strings.TrimSuffix(s, "_SPBL")

	return strings.NewReplacer("-", "", "_", "", "/", "").Replace(s)
}

// canonicalFor derives the canonical symbol for a venue listing, consulting
// the overrides table first.
func canonicalFor(exchange string, market types.VenueMarket) string {
	normalized := normalizeVenueSymbol(market.VenueSymbol)

	if overrides, ok := canonicalOverrides[exchange]; ok {
		if canonical, ok := overrides[normalized]; ok {
			return canonical
		}
	}

	return strings.ToUpper(market.BaseAsset) + "USDT"
}

// Rebuild replaces the symbol tables from a full discovery result and
// returns the intersection as MarketInfo records sorted by symbol. Only
// listings flagged as trading participate; a canonical symbol enters the
// universe when at least two exchanges list it.
func (m *Mapper) Rebuild(byExchange map[string][]types.VenueMarket) []types.MarketInfo {
	// canonical -> exchange -> native venue symbol
	grouped := make(map[string]map[string]string)

	for exchange, listings := range byExchange {
		for _, market := range listings {
			if !market.Trading {
				continue
			}

			if !strings.EqualFold(market.QuoteAsset, "USDT") {
				continue
			}

			canonical := canonicalFor(exchange, market)

			venues, ok := grouped[canonical]
			if !ok {
				venues = make(map[string]string)
				grouped[canonical] = venues
			}

			venues[exchange] = strings.ToUpper(market.VenueSymbol)
		}
	}

	canonicalByVenue := make(map[string]map[string]string, len(byExchange))
	venueByCanonical := make(map[string]map[string]string, len(byExchange))
	intersection := make([]string, 0, len(grouped))
	infos := make([]types.MarketInfo, 0, len(grouped))

	for canonical, venues := range grouped {
		if len(venues) < minExchangesRequired {
			continue
		}

		intersection = append(intersection, canonical)

		for exchange, venueSymbol := range venues {
			forward, ok := canonicalByVenue[exchange]
			if !ok {
				forward = make(map[string]string)
				canonicalByVenue[exchange] = forward
			}

			forward[normalizeVenueSymbol(venueSymbol)] = canonical

			reverse, ok := venueByCanonical[exchange]
			if !ok {
				reverse = make(map[string]string)
				venueByCanonical[exchange] = reverse
			}

			reverse[canonical] = venueSymbol
		}

		infos = append(infos, types.NewMarketInfo(canonical, venues))
	}

	sort.Strings(intersection)
	sort.Slice(infos, func(i, j int) bool { return infos[i].Symbol < infos[j].Symbol })

	m.mu.Lock()
	m.canonicalByVenue = canonicalByVenue
	m.venueByCanonical = venueByCanonical
	m.intersection = intersection
	m.markets = infos
	m.mu.Unlock()

	return infos
}

// Canonical resolves a venue-native symbol to its canonical form. The venue
// form is normalized first, so ticker spellings that differ from listing
// spellings (bitget drops the _SPBL suffix on tickers) still resolve.
func (m *Mapper) Canonical(exchange, venueSymbol string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	forward, ok := m.canonicalByVenue[exchange]
	if !ok {
		return "", false
	}

	canonical, ok := forward[normalizeVenueSymbol(venueSymbol)]

	return canonical, ok
}

// Venue resolves a canonical symbol to the exchange's native spelling.
func (m *Mapper) Venue(exchange, canonicalSymbol string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reverse, ok := m.venueByCanonical[exchange]
	if !ok {
		return "", false
	}

	venueSymbol, ok := reverse[strings.ToUpper(canonicalSymbol)]

	return venueSymbol, ok
}

// Intersection returns the canonical symbols listed on at least two
// exchanges, sorted.
func (m *Mapper) Intersection() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.intersection))
	copy(out, m.intersection)

	return out
}

// Markets returns the current universe as MarketInfo records sorted by
// symbol.
func (m *Mapper) Markets() []types.MarketInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.MarketInfo, len(m.markets))
	copy(out, m.markets)

	return out
}

// Size returns the number of canonical symbols in the universe.
func (m *Mapper) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.intersection)
}
