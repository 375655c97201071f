package services

import (
	"math"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rwalsh-trading/marketscope/src/models"
	"github.com/rwalsh-trading/marketscope/src/utils"
)

// CoveredCallScreenArgs parameterizes one covered-call screen over a fetched
// chain.
type CoveredCallScreenArgs struct {
	Symbol     models.StockSymbol
	Spot       float64
	Expiration time.Time
	Filters    models.FilterProfile
	Now        time.Time
	Loc        *time.Location
	RunID      string
}

// ScreenCoveredCalls filters a call chain down to sellable candidates and
// computes their metrics and scores, sorted by premium yield.
func ScreenCoveredCalls(chain []models.OptionSnapshot, args CoveredCallScreenArgs) []*models.CoveredCallCandidate {
	tYears := utils.TimeToExpiryYears(args.Expiration, args.Now, args.Loc)
	daysToExp := utils.DaysToExpiration(args.Expiration, args.Now)

	lo := args.Spot * (1 + args.Filters.MinOTMPct)
	hi := math.Inf(1)
	if args.Filters.MaxOTMPct > 0 {
		hi = args.Spot * (1 + args.Filters.MaxOTMPct)
	}

	var candidates []*models.CoveredCallCandidate

	for _, o := range chain {
		if o.OptionType != models.Call {
			continue
		}

		if o.Strike < lo || o.Strike > hi {
			continue
		}

		if o.Bid < args.Filters.MinBid {
			continue
		}

		mid, ok := o.Midpoint()
		if !ok {
			continue
		}

		spreadToMid, ok := o.SpreadToMid()
		if !ok || spreadToMid > args.Filters.MaxSpreadToMid {
			continue
		}

		// Contracts without greeks pass the delta filter; the feed omits
		// greeks for thin strikes and the other filters catch those.
		if o.HasDelta {
			d := math.Abs(o.Delta)
			if d < args.Filters.DeltaLo || d > args.Filters.DeltaHi {
				continue
			}
		}

		if o.OpenInterest < args.Filters.MinOpenInterest {
			continue
		}

		candidate := &models.CoveredCallCandidate{
			RunID:        args.RunID,
			Ticker:       o.Ticker,
			Underlying:   args.Symbol,
			Expiration:   args.Expiration.Format("2006-01-02"),
			Strike:       o.Strike,
			Bid:          o.Bid,
			Ask:          o.Ask,
			Mid:          mid,
			OpenInterest: o.OpenInterest,
			Spot:         args.Spot,
			PremiumYield: mid / args.Spot,
			Breakeven:    args.Spot - mid,
			MaxProfit:    (o.Strike - args.Spot) + mid,
		}

		if o.HasDelta {
			d := math.Abs(o.Delta)
			candidate.Delta = &d
		}

		if o.ImpliedVolatility > 0 {
			iv := o.ImpliedVolatility
			candidate.IV = &iv

			if pop, ok := models.ProbAbove(args.Spot, candidate.Breakeven, iv, tYears); ok {
				candidate.PoP = &pop
			}
		}

		candidate.ComputeAdvancedMetrics(tYears, daysToExp)
		candidate.ComputeScores()

		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PremiumYield > candidates[j].PremiumYield
	})

	log.Debugf("screened %d covered call candidates for %s %s", len(candidates), args.Symbol, args.Expiration.Format("2006-01-02"))

	return candidates
}

// RankCoveredCalls orders candidates by a ranking criteria, best first, and
// truncates to limit when limit is positive.
func RankCoveredCalls(candidates []*models.CoveredCallCandidate, criteria models.RankCriteria, limit int) []*models.CoveredCallCandidate {
	ranked := make([]*models.CoveredCallCandidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ScoreFor(criteria) > ranked[j].ScoreFor(criteria)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}
