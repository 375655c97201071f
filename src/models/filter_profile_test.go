package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultFilterProfile(t *testing.T) {
	t.Run("index ETFs demand depth", func(t *testing.T) {
		p := DefaultFilterProfile("SPY", 550)
		assert.Equal(t, 100, p.MinOpenInterest)
		assert.Equal(t, 0.02, p.MaxOTMPct)
	})

	t.Run("mega caps get a wider band", func(t *testing.T) {
		p := DefaultFilterProfile("NVDA", 120)
		assert.Equal(t, 50, p.MinOpenInterest)
		assert.Equal(t, 0.05, p.MaxOTMPct)
	})

	t.Run("expensive names tolerate wider spreads", func(t *testing.T) {
		p := DefaultFilterProfile("NFLX", 650)
		assert.Equal(t, 1.5, p.MaxSpreadToMid)
	})

	t.Run("everything else", func(t *testing.T) {
		p := DefaultFilterProfile("F", 12)
		assert.Equal(t, 25, p.MinOpenInterest)
		assert.Equal(t, 1.0, p.MaxSpreadToMid)
	})
}

func TestResolveFilterProfile(t *testing.T) {
	profiles := &FilterProfilesYAML{
		Symbols: map[string]FilterProfile{
			"TSLA": {MinBid: 0.50, MinOpenInterest: 10},
		},
		IndexETF: &FilterProfile{MinBid: 0.01, MinOpenInterest: 500},
	}

	t.Run("exact symbol wins", func(t *testing.T) {
		p := profiles.ResolveFilterProfile("TSLA", 250)
		assert.Equal(t, 0.50, p.MinBid)
	})

	t.Run("class override next", func(t *testing.T) {
		p := profiles.ResolveFilterProfile("QQQ", 480)
		assert.Equal(t, 500, p.MinOpenInterest)
	})

	t.Run("built-in default last", func(t *testing.T) {
		p := profiles.ResolveFilterProfile("F", 12)
		assert.Equal(t, DefaultFilterProfile("F", 12), p)
	})

	t.Run("nil receiver falls back to defaults", func(t *testing.T) {
		var empty *FilterProfilesYAML
		p := empty.ResolveFilterProfile("SPY", 550)
		assert.Equal(t, DefaultFilterProfile("SPY", 550), p)
	})
}

func TestLoadFilterProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")

	yaml := `
symbols:
  AAPL:
    min_otm_pct: 0.01
    max_otm_pct: 0.04
    min_bid: 0.15
    min_open_interest: 75
    max_spread_to_mid: 0.8
general:
  min_bid: 0.05
  min_open_interest: 20
  max_spread_to_mid: 1.2
`
	assert.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	profiles, err := LoadFilterProfiles(path)
	assert.NoError(t, err)

	aapl := profiles.ResolveFilterProfile("AAPL", 230)
	assert.Equal(t, 0.01, aapl.MinOTMPct)
	assert.Equal(t, 75, aapl.MinOpenInterest)

	other := profiles.ResolveFilterProfile("F", 12)
	assert.Equal(t, 20, other.MinOpenInterest)
	assert.Equal(t, 1.2, other.MaxSpreadToMid)

	t.Run("missing file errors", func(t *testing.T) {
		_, err := LoadFilterProfiles(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}
