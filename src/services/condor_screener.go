package services

import (
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rwalsh-trading/marketscope/src/models"
	"github.com/rwalsh-trading/marketscope/src/utils"
)

// CondorScreenArgs parameterizes condor construction over a fetched chain
// for one expiration.
type CondorScreenArgs struct {
	Symbol     models.StockSymbol
	Spot       float64
	Expiration time.Time
	Now        time.Time
	Loc        *time.Location
	RunID      string

	MinVolume       int
	MinOpenInterest int
	// FallbackVol feeds the PoP estimate when no leg carries implied
	// volatility; typically the underlying's realized vol.
	FallbackVol float64

	// Enumeration caps. MaxLegsPerSide limits sorted liquid strikes per
	// side; MaxCondors stops construction outright.
	MaxLegsPerSide int
	MaxCondors     int
}

const (
	defaultMinVolume       = 5
	defaultMinOpenInterest = 25
	defaultMaxLegsPerSide  = 50
	defaultMaxCondors      = 1000
)

func (a *CondorScreenArgs) applyDefaults() {
	if a.MinVolume == 0 {
		a.MinVolume = defaultMinVolume
	}
	if a.MinOpenInterest == 0 {
		a.MinOpenInterest = defaultMinOpenInterest
	}
	if a.MaxLegsPerSide == 0 {
		a.MaxLegsPerSide = defaultMaxLegsPerSide
	}
	if a.MaxCondors == 0 {
		a.MaxCondors = defaultMaxCondors
	}
}

// BuildIronCondors enumerates short-call/long-call x short-put/long-put
// combinations from the liquid rows of a single-expiration chain.
func BuildIronCondors(chain []models.OptionSnapshot, args CondorScreenArgs) []*models.IronCondor {
	args.applyDefaults()

	daysToExp := utils.DaysToExpiration(args.Expiration, args.Now)
	if daysToExp <= 0 {
		return nil
	}

	tYears := utils.TimeToExpiryYears(args.Expiration, args.Now, args.Loc)

	calls, puts := liquidLegs(chain, args)
	if len(calls) < 2 || len(puts) < 2 {
		log.Debugf("BuildIronCondors: not enough liquid legs for %s %s (%d calls, %d puts)",
			args.Symbol, args.Expiration.Format("2006-01-02"), len(calls), len(puts))
		return nil
	}

	log.Debugf("constructing iron condors from %d calls and %d puts", len(calls), len(puts))

	var condors []*models.IronCondor
	combinationsChecked := 0

	for i, callSell := range calls {
		for _, callBuy := range calls[i+1:] {
			for k, putSell := range puts {
				for _, putBuy := range puts[:k] {
					combinationsChecked++

					if putSell.Strike >= callSell.Strike {
						continue
					}

					legs := models.CondorLegs{
						CallSell: callSell,
						CallBuy:  callBuy,
						PutSell:  putSell,
						PutBuy:   putBuy,
					}

					ic, err := models.NewIronCondor(args.Symbol, legs, args.Spot, daysToExp)
					if err != nil {
						continue
					}

					ic.RunID = args.RunID
					ic.EstimatePoP(condorVol(legs, args.FallbackVol), tYears)
					ic.Timestamp = args.Now.In(args.Loc).Format(time.RFC3339)

					condors = append(condors, ic)

					if len(condors) >= args.MaxCondors {
						log.Warnf("BuildIronCondors: reached cap of %d condors after %d combinations", args.MaxCondors, combinationsChecked)
						return condors
					}
				}
			}
		}
	}

	log.Debugf("constructed %d iron condors from %d combinations", len(condors), combinationsChecked)

	return condors
}

// liquidLegs splits a chain into volume- and OI-filtered calls and puts,
// sorted by strike and truncated to the per-side cap.
func liquidLegs(chain []models.OptionSnapshot, args CondorScreenArgs) (calls, puts []models.OptionSnapshot) {
	for _, o := range chain {
		if o.Volume < args.MinVolume || o.OpenInterest < args.MinOpenInterest {
			continue
		}

		if !o.HasQuote() {
			continue
		}

		switch o.OptionType {
		case models.Call:
			calls = append(calls, o)
		case models.Put:
			puts = append(puts, o)
		}
	}

	sort.Slice(calls, func(i, j int) bool { return calls[i].Strike < calls[j].Strike })
	sort.Slice(puts, func(i, j int) bool { return puts[i].Strike < puts[j].Strike })

	if len(calls) > args.MaxLegsPerSide {
		calls = calls[:args.MaxLegsPerSide]
	}
	if len(puts) > args.MaxLegsPerSide {
		puts = puts[:args.MaxLegsPerSide]
	}

	return calls, puts
}

// condorVol averages the short legs' implied volatility, falling back to the
// provided realized vol when the chain carries none.
func condorVol(legs models.CondorLegs, fallback float64) float64 {
	var sum float64
	var n int

	for _, leg := range []models.OptionSnapshot{legs.CallSell, legs.PutSell} {
		if leg.ImpliedVolatility > 0 {
			sum += leg.ImpliedVolatility
			n++
		}
	}

	if n == 0 {
		return fallback
	}

	return sum / float64(n)
}

// CondorFilters is the post-construction cut applied before ranking.
type CondorFilters struct {
	MinNetCredit   float64
	MaxRisk        float64
	MinProbability float64 // percent, 0-100
}

// FilterIronCondors drops condors outside the credit, risk, and PoP bounds.
// Condors with no PoP estimate fail a positive MinProbability.
func FilterIronCondors(condors []*models.IronCondor, filters CondorFilters) []*models.IronCondor {
	var kept []*models.IronCondor

	for _, ic := range condors {
		if ic.NetCredit < filters.MinNetCredit {
			continue
		}

		if filters.MaxRisk > 0 && ic.MaxLoss > filters.MaxRisk {
			continue
		}

		if filters.MinProbability > 0 {
			if ic.PoP == nil || *ic.PoP*100 < filters.MinProbability {
				continue
			}
		}

		kept = append(kept, ic)
	}

	return kept
}

// CondorRankCriteria selects the condor ranking dimension.
type CondorRankCriteria string

const (
	CondorRankByCredit      CondorRankCriteria = "credit"
	CondorRankByProbability CondorRankCriteria = "probability"
	CondorRankByRiskReward  CondorRankCriteria = "risk_reward"
)

func (c CondorRankCriteria) Validate() error {
	switch c {
	case CondorRankByCredit, CondorRankByProbability, CondorRankByRiskReward:
		return nil
	default:
		return fmt.Errorf("invalid condor rank criteria: %s", c)
	}
}

// RankIronCondors orders condors best-first by the criteria and truncates to
// limit when limit is positive.
func RankIronCondors(condors []*models.IronCondor, criteria CondorRankCriteria, limit int) []*models.IronCondor {
	ranked := make([]*models.IronCondor, len(condors))
	copy(ranked, condors)

	sort.SliceStable(ranked, func(i, j int) bool {
		switch criteria {
		case CondorRankByProbability:
			return popOrZero(ranked[i]) > popOrZero(ranked[j])
		case CondorRankByRiskReward:
			return ranked[i].RiskReward > ranked[j].RiskReward
		default:
			return ranked[i].NetCredit > ranked[j].NetCredit
		}
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

func popOrZero(ic *models.IronCondor) float64 {
	if ic.PoP == nil {
		return 0
	}

	return *ic.PoP
}
