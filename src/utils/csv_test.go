package utils

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

type csvFixture struct {
	Ticker string  `csv:"ticker"`
	Strike float64 `csv:"strike"`
	Bid    float64 `csv:"bid"`
}

func TestCsvRoundTrip(t *testing.T) {
	rows := []*csvFixture{
		{Ticker: "AAPL", Strike: 240, Bid: 2.10},
		{Ticker: "MSFT", Strike: 450, Bid: 3.85},
	}

	t.Run("export then import preserves rows", func(t *testing.T) {
		outDir := path.Join(t.TempDir(), "output")

		outFile, err := ExportToCsv(rows, outDir, "fixture.csv")
		assert.NoError(t, err)
		assert.Equal(t, path.Join(outDir, "fixture.csv"), outFile)

		// The directory did not exist before the export.
		_, err = os.Stat(outDir)
		assert.NoError(t, err)

		imported, err := ImportFromCsv[*csvFixture](outFile)
		assert.NoError(t, err)
		assert.Len(t, imported, 2)
		assert.Equal(t, rows[0], imported[0])
		assert.Equal(t, rows[1], imported[1])
	})

	t.Run("import fails on a missing file", func(t *testing.T) {
		_, err := ImportFromCsv[*csvFixture](path.Join(t.TempDir(), "missing.csv"))
		assert.Error(t, err)
	})

	t.Run("export rejects an unwritable directory", func(t *testing.T) {
		_, err := ExportToCsv(rows, "/proc/no-such-dir", "fixture.csv")
		assert.Error(t, err)
	})
}

func TestSettledCsvName(t *testing.T) {
	assert.Equal(t, "covered_calls_AAPL_pnl.csv", SettledCsvName("output/covered_calls_AAPL.csv", "_pnl"))
	assert.Equal(t, "zero_dte_SPY_marked.csv", SettledCsvName("zero_dte_SPY.csv", "_marked"))
	assert.Equal(t, "trades_pnl.csv", SettledCsvName("/abs/path/trades.csv", "_pnl"))
}
