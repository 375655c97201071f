package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"
)

// ExportToCsv writes rows to outDir/fname, creating the directory if needed,
// and returns the full output path.
func ExportToCsv[T any](rows []T, outDir string, fname string) (string, error) {
	if _, err := os.Stat(outDir); os.IsNotExist(err) {
		if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
			return "", fmt.Errorf("ExportToCsv: failed to create directory: %w", err)
		}
	}

	outFilePath := path.Join(outDir, fname)

	file, err := os.Create(outFilePath)
	if err != nil {
		return "", fmt.Errorf("ExportToCsv: failed to create file: %w", err)
	}
	defer file.Close()

	gocsv.SetCSVWriter(func(out io.Writer) *gocsv.SafeCSVWriter {
		writer := csv.NewWriter(out)
		writer.Comma = ','
		return gocsv.NewSafeCSVWriter(writer)
	})

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return "", fmt.Errorf("ExportToCsv: failed to write to file: %w", err)
	}

	log.Infof("Exported %d rows to %s", len(rows), outFilePath)

	return outFilePath, nil
}

// SettledCsvName derives the marked-output filename from the input path:
// screen.csv with suffix "_pnl" becomes screen_pnl.csv.
func SettledCsvName(csvPath string, suffix string) string {
	base := path.Base(csvPath)
	return strings.TrimSuffix(base, ".csv") + suffix + ".csv"
}

// ImportFromCsv reads rows from a CSV written by ExportToCsv.
func ImportFromCsv[T any](inFilePath string) ([]T, error) {
	file, err := os.Open(inFilePath)
	if err != nil {
		return nil, fmt.Errorf("ImportFromCsv: failed to open file: %w", err)
	}
	defer file.Close()

	var rows []T
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("ImportFromCsv: failed to parse %s: %w", inFilePath, err)
	}

	return rows, nil
}
