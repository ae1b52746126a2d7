package arbitrage

import (
	"fmt"
	"math"
	"strings"
)

// Ratio thresholds companion to the price-diff ones: mild, standard,
// aggressive. A ratio beyond definitivelyDifferentRatio (or a near-zero
// price alongside a normal one) means two unrelated tokens share a ticker.
const (
	ratioSuspicious            = 1.5
	ratioThreshold             = 2.0
	ratioAggressive            = 3.0
	definitivelyDifferentRatio = 100.0
)

// FilterConfig holds the symbol-identity thresholds. Price diffs are
// relative spans ((max-min)/avg); see the ratio constants above.
type FilterConfig struct {
	MinPriceThreshold   float64
	PriceDiffSuspicious float64
	PriceDiffThreshold  float64
	PriceDiffAggressive float64
}

// DefaultFilterConfig returns the production thresholds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinPriceThreshold:   1e-6,
		PriceDiffSuspicious: 0.3,
		PriceDiffThreshold:  1.0,
		PriceDiffAggressive: 2.0,
	}
}

// groupStats summarizes the prices seen for one canonical symbol across
// venues. Prices below the min-price threshold count as zero-ish.
type groupStats struct {
	avg, min, max float64
	priceDiff     float64
	ratio         float64 // +Inf when a zero-ish sits alongside a normal price
	hasNearZero   bool
	normalCount   int
}

func computeGroupStats(prices map[string]float64, minPriceThreshold float64) groupStats {
	var stats groupStats

	sum := 0.0
	stats.min = math.Inf(1)

	for _, p := range prices {
		if p <= 0 {
			continue
		}

		if p < minPriceThreshold {
			stats.hasNearZero = true
			continue
		}

		stats.normalCount++
		sum += p

		if p < stats.min {
			stats.min = p
		}

		if p > stats.max {
			stats.max = p
		}
	}

	if stats.normalCount == 0 {
		return stats
	}

	stats.avg = sum / float64(stats.normalCount)

	if stats.avg > 0 {
		stats.priceDiff = (stats.max - stats.min) / stats.avg
	}

	switch {
	case stats.hasNearZero:
		// Zero-ish alongside a normal price.
		stats.ratio = math.Inf(1)
	case stats.min > 0:
		stats.ratio = stats.max / stats.min
	}

	return stats
}

// splitMode names the identity-filter decision for a symbol group.
type splitMode string

const (
	splitNone       splitMode = "none"
	splitDefinitive splitMode = "definitive"
	splitBaseBand   splitMode = "base_band"
	splitBase       splitMode = "base"
)

// applyIdentityFilter decides whether the opportunities of one canonical
// symbol actually span distinct assets that happen to share a ticker, and
// rewrites their group keys accordingly. Opportunities are never removed;
// a split gives them synthetic group keys so downstream display surfaces
// them as separate coins. Returns the decision taken.
func applyIdentityFilter(symbol string, prices map[string]float64, opps []Opportunity, cfg FilterConfig) splitMode {
	if len(opps) == 0 {
		return splitNone
	}

	stats := computeGroupStats(prices, cfg.MinPriceThreshold)
	if stats.normalCount == 0 {
		return splitNone
	}

	distinctBases := distinctVenueBases(opps)

	switch {
	case stats.ratio > definitivelyDifferentRatio || stats.hasNearZero:
		// Definitively different tokens: key by exchange pair and price
		// band with the wide 0.5/1.5 bands.
		for i := range opps {
			opps[i].GroupKey = fmt.Sprintf("%s#%s-%s#%s-%s",
				symbol,
				opps[i].BuyExchange, opps[i].SellExchange,
				priceBand(opps[i].BuyPrice, stats.avg, 0.5, 1.5),
				priceBand(opps[i].SellPrice, stats.avg, 0.5, 1.5))
		}

		return splitDefinitive

	case stats.priceDiff > cfg.PriceDiffThreshold || stats.ratio > ratioAggressive ||
		(stats.ratio > ratioThreshold && len(opps) >= 2):
		// Likely different: key primarily by venue-symbol base, then by
		// price band. Past the aggressive diff the bands tighten.
		low, high := 0.7, 1.3
		if stats.priceDiff > cfg.PriceDiffAggressive {
			low, high = 0.8, 1.2
		}

		for i := range opps {
			opps[i].GroupKey = fmt.Sprintf("%s#%s#%s-%s",
				symbol,
				pairBaseKey(opps[i]),
				priceBand(opps[i].BuyPrice, stats.avg, low, high),
				priceBand(opps[i].SellPrice, stats.avg, low, high))
		}

		return splitBaseBand

	case (stats.priceDiff > cfg.PriceDiffSuspicious || stats.ratio > ratioSuspicious) && distinctBases:
		for i := range opps {
			opps[i].GroupKey = symbol + "#" + pairBaseKey(opps[i])
		}

		return splitBase

	default:
		return splitNone
	}
}

// priceBand classifies a price against the group average.
func priceBand(price, avg, lowFactor, highFactor float64) string {
	switch {
	case avg <= 0:
		return "normal"
	case price < lowFactor*avg:
		return "low"
	case price > highFactor*avg:
		return "high"
	default:
		return "normal"
	}
}

// venueBase reduces a venue symbol to its base-asset spelling.
func venueBase(venueSymbol string) string {
	s := strings.ToUpper(venueSymbol)
	s = strings.TrimSuffix(s, "_SPBL")
	s = strings.NewReplacer("-", "", "_", "", "/", "").Replace(s)

	return strings.TrimSuffix(s, "USDT")
}

// pairBaseKey keys an opportunity by the venue bases of its two legs.
func pairBaseKey(o Opportunity) string {
	buy := venueBase(o.BuyVenueSymbol)
	sell := venueBase(o.SellVenueSymbol)

	if buy == sell {
		return buy
	}

	return buy + "-" + sell
}

// distinctVenueBases reports whether the group's legs spell the base asset
// differently across venues.
func distinctVenueBases(opps []Opportunity) bool {
	seen := ""

	for _, o := range opps {
		for _, base := range []string{venueBase(o.BuyVenueSymbol), venueBase(o.SellVenueSymbol)} {
			if base == "" {
				continue
			}

			if seen == "" {
				seen = base
				continue
			}

			if base != seen {
				return true
			}
		}
	}

	return false
}
