package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FilterProfile holds the chain filters for one class of underlying.
type FilterProfile struct {
	MinOTMPct       float64 `yaml:"min_otm_pct"`
	MaxOTMPct       float64 `yaml:"max_otm_pct"`
	DeltaLo         float64 `yaml:"delta_lo"`
	DeltaHi         float64 `yaml:"delta_hi"`
	MinBid          float64 `yaml:"min_bid"`
	MinOpenInterest int     `yaml:"min_open_interest"`
	MaxSpreadToMid  float64 `yaml:"max_spread_to_mid"`
}

// FilterProfilesYAML is the on-disk shape of a filter profile file. Symbols
// maps an exact ticker to a profile; the class profiles are fallbacks.
type FilterProfilesYAML struct {
	Symbols    map[string]FilterProfile `yaml:"symbols"`
	IndexETF   *FilterProfile           `yaml:"index_etf"`
	MegaCap    *FilterProfile           `yaml:"mega_cap"`
	HighPriced *FilterProfile           `yaml:"high_priced"`
	General    *FilterProfile           `yaml:"general"`
}

var indexETFs = map[StockSymbol]bool{
	"SPY": true, "QQQ": true, "IWM": true, "SPX": true, "NDX": true,
}

var megaCaps = map[StockSymbol]bool{
	"NVDA": true, "TSLA": true, "AAPL": true, "MSFT": true,
	"AMZN": true, "GOOGL": true, "META": true,
}

// DefaultFilterProfile picks filters for a symbol the way a trader would:
// index ETFs can afford tight spreads and high open interest, liquid
// mega-caps get wider delta bands, and expensive names get looser spread
// limits because absolute spreads run wider.
func DefaultFilterProfile(symbol StockSymbol, spot float64) FilterProfile {
	switch {
	case indexETFs[symbol]:
		return FilterProfile{
			MinOTMPct:       0.00,
			MaxOTMPct:       0.02,
			DeltaLo:         0.15,
			DeltaHi:         0.30,
			MinBid:          0.05,
			MinOpenInterest: 100,
			MaxSpreadToMid:  0.50,
		}
	case megaCaps[symbol]:
		return FilterProfile{
			MinOTMPct:       0.00,
			MaxOTMPct:       0.05,
			DeltaLo:         0.10,
			DeltaHi:         0.40,
			MinBid:          0.10,
			MinOpenInterest: 50,
			MaxSpreadToMid:  1.0,
		}
	case spot > 200:
		return FilterProfile{
			MinOTMPct:       0.00,
			MaxOTMPct:       0.08,
			DeltaLo:         0.10,
			DeltaHi:         0.45,
			MinBid:          0.20,
			MinOpenInterest: 25,
			MaxSpreadToMid:  1.5,
		}
	default:
		return FilterProfile{
			MinOTMPct:       0.00,
			MaxOTMPct:       0.05,
			DeltaLo:         0.12,
			DeltaHi:         0.38,
			MinBid:          0.10,
			MinOpenInterest: 25,
			MaxSpreadToMid:  1.0,
		}
	}
}

// ResolveFilterProfile returns the profile for a symbol, preferring an exact
// symbol entry from a loaded YAML file, then the file's class override, then
// the built-in defaults.
func (f *FilterProfilesYAML) ResolveFilterProfile(symbol StockSymbol, spot float64) FilterProfile {
	if f == nil {
		return DefaultFilterProfile(symbol, spot)
	}

	if p, ok := f.Symbols[symbol.String()]; ok {
		return p
	}

	var override *FilterProfile
	switch {
	case indexETFs[symbol]:
		override = f.IndexETF
	case megaCaps[symbol]:
		override = f.MegaCap
	case spot > 200:
		override = f.HighPriced
	default:
		override = f.General
	}

	if override != nil {
		return *override
	}

	return DefaultFilterProfile(symbol, spot)
}

func LoadFilterProfiles(path string) (*FilterProfilesYAML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFilterProfiles: failed to read %s: %w", path, err)
	}

	var profiles FilterProfilesYAML
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("LoadFilterProfiles: failed to parse %s: %w", path, err)
	}

	return &profiles, nil
}
