package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rwalsh-trading/marketscope/src/models"
)

var benzingaEarningsURL = "https://api.polygon.io/benzinga/v1/earnings"

var earningsBackOff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}

var earningsSleep = time.Sleep

func fetchBenzingaEarningsPage(url, apiKey string, query map[string]string) (*models.BenzingaEarningsResponse, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetchBenzingaEarningsPage: failed to create request: %w", err)
	}

	q := req.URL.Query()
	for k, v := range query {
		q.Add(k, v)
	}
	q.Add("apiKey", apiKey)

	req.URL.RawQuery = q.Encode()
	req.Header.Add("Accept", "application/json")

	client := http.Client{
		Timeout: 10 * time.Second,
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetchBenzingaEarningsPage: failed to fetch earnings: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetchBenzingaEarningsPage: failed to fetch earnings, http code %v", res.Status)
	}

	var dto models.BenzingaEarningsResponse
	if err := json.NewDecoder(res.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("fetchBenzingaEarningsPage: failed to decode json: %w", err)
	}

	return &dto, nil
}

// FetchUpcomingEarnings lists scheduled earnings for a symbol between two
// dates. Transient failures back off exponentially before giving up.
func FetchUpcomingEarnings(apiKey string, symbol models.StockSymbol, from, to time.Time, limit int) ([]models.BenzingaEarningsDTO, error) {
	query := map[string]string{
		"ticker":   symbol.String(),
		"date.gte": from.Format("2006-01-02"),
		"date.lte": to.Format("2006-01-02"),
		"limit":    fmt.Sprintf("%d", limit),
	}

	var lastErr error
	for counter := 0; counter <= len(earningsBackOff); counter++ {
		if counter > 0 {
			log.Warnf("FetchUpcomingEarnings: backoff %v", earningsBackOff[counter-1])
			earningsSleep(earningsBackOff[counter-1])
		}

		resp, err := fetchBenzingaEarningsPage(benzingaEarningsURL, apiKey, query)
		if err != nil {
			lastErr = err
			log.Errorf("FetchUpcomingEarnings: %v", err)
			continue
		}

		return resp.Results, nil
	}

	return nil, fmt.Errorf("FetchUpcomingEarnings: retries exhausted: %w", lastErr)
}

// HasUpcomingEarnings reports whether earnings fall inside the window. An
// earnings-feed failure is logged and treated as no earnings, because the
// screen is advisory and should not die on a secondary endpoint.
func HasUpcomingEarnings(apiKey string, symbol models.StockSymbol, from, to time.Time) bool {
	earnings, err := FetchUpcomingEarnings(apiKey, symbol, from, to, 10)
	if err != nil {
		log.Warnf("HasUpcomingEarnings: %v", err)
		return false
	}

	if len(earnings) > 0 {
		log.Infof("found %d upcoming earnings for %s", len(earnings), symbol)
		return true
	}

	return false
}
